package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	// Authentication and account codes returned in "detail".
	CodeLoginBadCredentials          = "LOGIN_BAD_CREDENTIALS"
	CodeLoginUserNotVerified         = "LOGIN_USER_NOT_VERIFIED"
	CodeRegisterUserAlreadyExists    = "REGISTER_USER_ALREADY_EXISTS"
	CodeRegisterInvalidPassword      = "REGISTER_INVALID_PASSWORD"
	CodeVerifyUserBadToken           = "VERIFY_USER_BAD_TOKEN"
	CodeVerifyUserAlreadyVerified    = "VERIFY_USER_ALREADY_VERIFIED"
	CodeResetPasswordBadToken        = "RESET_PASSWORD_BAD_TOKEN"
	CodeResetPasswordInvalidPassword = "RESET_PASSWORD_INVALID_PASSWORD"
	CodeUpdateUserEmailAlreadyExists = "UPDATE_USER_EMAIL_ALREADY_EXISTS"
	CodeUpdateUserInvalidPassword    = "UPDATE_USER_INVALID_PASSWORD"

	// Scheduling and enrollment codes.
	CodeAlreadyEnrolled         = "ALREADY_ENROLLED"
	CodeEnrollmentNotFound      = "ENROLLMENT_NOT_FOUND"
	CodeClassGroupNotFound      = "CLASS_GROUP_NOT_FOUND"
	CodeClassSessionNotFound    = "CLASS_SESSION_NOT_FOUND"
	CodeSessionAlreadyCompleted = "SESSION_ALREADY_COMPLETED"
	CodeSessionAlreadyCancelled = "SESSION_ALREADY_CANCELLED"
	CodeInvalidTimeRange        = "INVALID_TIME_RANGE"

	// Generic codes synthesised by this package.
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNetworkError    = "NETWORK_ERROR"
	CodeUnknownError    = "UNKNOWN_ERROR"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is a non 2xx answer of the backend.
type APIError struct {
	// StatusCode is the HTTP status code of the answer
	StatusCode int

	// Code is the backend error code, e.g. "LOGIN_BAD_CREDENTIALS"
	Code string

	// Reason is an optional human readable explanation
	Reason string

	// Fields holds per field messages of a 422 validation answer, keyed by
	// the last element of the error location.
	Fields map[string]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Reason)
	}
	return fmt.Sprintf("api error %d %s", e.StatusCode, e.Code)
}

// transportError marks failures that never produced an HTTP answer.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return e.err.Error() }
func (e *transportError) Unwrap() error { return e.err }

// IsUnauthorized reports whether err is a 401 answer.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Code returns the error code carried by err. Transport failures report
// CodeNetworkError, anything else CodeUnknownError. A nil error has no code.
func Code(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}

	var tErr *transportError
	if errors.As(err, &tErr) {
		return CodeNetworkError
	}

	return CodeUnknownError
}

// ============================================================================
// Error Parsing
// ============================================================================

// validationItem is one entry of a 422 "detail" list.
type validationItem struct {
	Loc  []any  `json:"loc"`
	Msg  string `json:"msg"`
	Type string `json:"type"`
}

// parseErrorResponse turns a non 2xx answer into an *APIError. The backend
// puts its error in "detail" as a plain code string, as {"code", "reason"},
// or as a list of validation items.
func parseErrorResponse(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var code string
		var coded struct {
			Code   string `json:"code"`
			Reason string `json:"reason"`
		}
		var items []validationItem

		switch {
		case json.Unmarshal(envelope.Detail, &code) == nil:
			apiErr.Code = code
		case json.Unmarshal(envelope.Detail, &coded) == nil && coded.Code != "":
			apiErr.Code = coded.Code
			apiErr.Reason = coded.Reason
		case json.Unmarshal(envelope.Detail, &items) == nil && len(items) > 0:
			apiErr.Code = CodeValidationError
			apiErr.Fields = make(map[string]string, len(items))
			for _, item := range items {
				apiErr.Fields[fieldName(item.Loc)] = item.Msg
			}
		}
	}

	// Status codes carry meaning of their own when the body did not.
	if apiErr.Code == "" || !isCode(apiErr.Code) {
		if apiErr.Reason == "" {
			apiErr.Reason = strings.TrimSpace(apiErr.Code)
		}
		apiErr.Code = codeFromStatus(statusCode)
	}

	return apiErr
}

// isCode reports whether s looks like an UPPER_SNAKE error code rather than
// a sentence such as "Unauthorized" or "Not Found".
func isCode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '_' {
			return false
		}
	}
	return true
}

func codeFromStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusUnprocessableEntity:
		return CodeValidationError
	default:
		return CodeUnknownError
	}
}

func fieldName(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	return fmt.Sprint(loc[len(loc)-1])
}
