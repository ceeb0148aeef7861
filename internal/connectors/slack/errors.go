package slack

import (
	"errors"
	"fmt"
	"strings"
	"time"

	slackgo "github.com/slack-go/slack"
)

// RateLimitError represents a rate limited Web API call.
type RateLimitError struct {
	// Method is the Web API method that was throttled.
	Method string

	// RetryAfter is the server's hint. Zero when absent.
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("slack: %s rate limited, retry after %s", e.Method, e.RetryAfter)
}

// APIError represents a Slack Web API error response.
type APIError struct {
	// Method is the Web API method that failed.
	Method string

	// Code is the Slack error code, e.g. "channel_not_found".
	Code string

	// StatusCode is the HTTP status for transport level failures.
	StatusCode int
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("slack: %s failed: %s", e.Method, e.Code)
	}
	return fmt.Sprintf("slack: %s failed with status %d", e.Method, e.StatusCode)
}

// authErrorCodes are platform errors that mean the app is not installed or
// the token is wrong. They are setup problems, not runtime failures.
var authErrorCodes = map[string]bool{
	"invalid_auth": true,
	"not_authed":   true,
}

// IsRateLimited checks if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	_, ok := rateLimitHint(err)
	return ok
}

// IsAuthError checks if the error is an invalid_auth or not_authed
// platform error.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return authErrorCodes[apiErr.Code]
	}
	var slackErr slackgo.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return authErrorCodes[slackErr.Err]
	}
	return authErrorCodes[strings.TrimSpace(err.Error())]
}

// rateLimitHint reports whether err is a rate limit signal and returns the
// server's retry-after hint, if any.
func rateLimitHint(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	var ownErr *RateLimitError
	if errors.As(err, &ownErr) {
		return ownErr.RetryAfter, true
	}

	var rlErr *slackgo.RateLimitedError
	if errors.As(err, &rlErr) {
		return rlErr.RetryAfter, true
	}

	var statusErr slackgo.StatusCodeError
	if errors.As(err, &statusErr) && statusErr.Code == 429 {
		return 0, true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.StatusCode == 429 || apiErr.Code == "ratelimited") {
		return 0, true
	}

	return 0, false
}

// wrapError converts slack-go errors to package errors. Rate limit errors
// pass through unchanged so the retrier can read their hint.
func wrapError(err error, method string) error {
	if err == nil {
		return nil
	}
	if _, ok := rateLimitHint(err); ok {
		return err
	}

	var statusErr slackgo.StatusCodeError
	if errors.As(err, &statusErr) {
		return &APIError{Method: method, StatusCode: statusErr.Code}
	}

	var slackErr slackgo.SlackErrorResponse
	if errors.As(err, &slackErr) {
		return &APIError{Method: method, Code: slackErr.Err}
	}

	// slack-go reports most platform errors as a bare error code.
	msg := strings.TrimSpace(err.Error())
	if msg != "" && !strings.ContainsAny(msg, " :") {
		return &APIError{Method: method, Code: msg}
	}

	return fmt.Errorf("%s: %w", method, err)
}
