package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	t.Run("plain code detail", func(t *testing.T) {
		err := parseErrorResponse(http.StatusBadRequest, []byte(`{"detail":"LOGIN_BAD_CREDENTIALS"}`))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		require.Equal(t, CodeLoginBadCredentials, apiErr.Code)
		require.Empty(t, apiErr.Reason)
	})

	t.Run("coded detail with reason", func(t *testing.T) {
		body := []byte(`{"detail":{"code":"REGISTER_INVALID_PASSWORD","reason":"too short"}}`)
		err := parseErrorResponse(http.StatusBadRequest, body)

		require.Equal(t, CodeRegisterInvalidPassword, Code(err))
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "too short", apiErr.Reason)
	})

	t.Run("validation list", func(t *testing.T) {
		body := []byte(`{"detail":[
			{"loc":["body","email"],"msg":"value is not a valid email","type":"value_error"},
			{"loc":["body","password"],"msg":"field required","type":"missing"}
		]}`)
		err := parseErrorResponse(http.StatusUnprocessableEntity, body)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, CodeValidationError, apiErr.Code)
		require.Equal(t, map[string]string{
			"email":    "value is not a valid email",
			"password": "field required",
		}, apiErr.Fields)
	})

	t.Run("sentence detail falls back to status", func(t *testing.T) {
		err := parseErrorResponse(http.StatusUnauthorized, []byte(`{"detail":"Unauthorized"}`))

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, CodeUnauthorized, apiErr.Code)
		require.Equal(t, "Unauthorized", apiErr.Reason)
		require.True(t, IsUnauthorized(err))
	})

	t.Run("non json body", func(t *testing.T) {
		err := parseErrorResponse(http.StatusBadGateway, []byte("<html>bad gateway</html>"))
		require.Equal(t, CodeUnknownError, Code(err))
		require.Equal(t, http.StatusBadGateway, StatusCode(err))
	})

	t.Run("empty body on 404", func(t *testing.T) {
		err := parseErrorResponse(http.StatusNotFound, nil)
		require.Equal(t, CodeNotFound, Code(err))
	})
}

func TestCode(t *testing.T) {
	t.Parallel()

	require.Empty(t, Code(nil))
	require.Equal(t, CodeUnknownError, Code(errors.New("boom")))

	netErr := &transportError{err: errors.New("connection refused")}
	require.Equal(t, CodeNetworkError, Code(fmt.Errorf("fetch user: %w", netErr)))
	require.Zero(t, StatusCode(netErr))

	wrapped := fmt.Errorf("enroll: %w", &APIError{StatusCode: 400, Code: CodeAlreadyEnrolled})
	require.Equal(t, CodeAlreadyEnrolled, Code(wrapped))
	require.Equal(t, 400, StatusCode(wrapped))
	require.False(t, IsUnauthorized(wrapped))
}

func TestTokenExpired(t *testing.T) {
	t.Parallel()

	now := time.Now()
	sign := func(exp time.Time) string {
		claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
		require.NoError(t, err)
		return token
	}

	require.True(t, tokenExpired(sign(now.Add(-time.Minute)), now))
	require.False(t, tokenExpired(sign(now.Add(time.Hour)), now))
	require.False(t, tokenExpired("opaque-session-id", now))

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"}).SignedString([]byte("k"))
	require.NoError(t, err)
	require.False(t, tokenExpired(noExp, now))
}
