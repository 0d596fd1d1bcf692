/*
Package apiclient is the REST transport of the dance studio backend.

# Overview

A Client wraps an *http.Client whose cookie jar carries the backend's
session cookie (credentials are "included" on every request, the same way a
browser would send them). Every endpoint is a thin typed method:

	client, err := apiclient.New("https://studio.example.com", apiclient.WithJar(jar))

	// Cookie login (form encoded body)
	err = client.Login(ctx, apiclient.LoginRequest{Username: email, Password: pw})

	// Current user
	me, err := client.GetMe(ctx)

	// Student calendar for one week
	sessions, err := client.MyCalendar(ctx, apiclient.CalendarQuery{From: from, To: to})

# Errors

Non 2xx answers are returned as *APIError carrying the HTTP status and the
backend's error code (the "detail" field of the response). Transport
failures are returned wrapped and report CodeNetworkError through Code:

	if apiclient.IsUnauthorized(err) {
		// session expired
	}
	switch apiclient.Code(err) {
	case apiclient.CodeLoginBadCredentials:
	}

Nothing in this package retries.

# Cookies

PersistentJar keeps the cookies of the API origin in a CookieStore so a
restarted client can resume its session. Expired cookies, and auth cookies
holding an expired JWT, are dropped when restoring.
*/
package apiclient
