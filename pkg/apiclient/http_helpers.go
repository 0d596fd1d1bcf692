package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// url builds a complete URL by appending the prefixed path to the base URL.
func (c *Client) url(path string, query url.Values) string {
	u := c.BaseURL + c.Prefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// doRequest performs an HTTP request with the client's HTTP client. Cookies
// are attached by the jar.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	query url.Values,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &transportError{err: fmt.Errorf("failed to send request: %w", err)}
	}

	return resp, nil
}

// doJSON sends in (when non nil) as a JSON body and decodes the answer into
// out (when non nil).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	headers := map[string]string{}
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
		headers["Content-Type"] = "application/json"
	}

	resp, err := c.doRequest(ctx, method, path, query, body, headers)
	if err != nil {
		return err
	}

	return decodeJSON(resp, out)
}

// doForm sends an application/x-www-form-urlencoded body.
func (c *Client) doForm(ctx context.Context, path string, form url.Values, out any) error {
	headers := map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, nil, strings.NewReader(form.Encode()), headers)
	if err != nil {
		return err
	}

	return decodeJSON(resp, out)
}

// decodeJSON decodes a 2xx JSON response into target. Empty bodies (204,
// 202 without content) leave target untouched. Non 2xx answers become a
// typed *APIError.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	// Read body once for both error parsing and success decoding
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp.StatusCode, bodyBytes)
	}

	if target == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
