// Package apierr defines the errors reported to web service clients.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes are part of the public API and must never be renumbered.
const (
	CodeUnknownFormat          = 1
	CodeMissingParameter       = 2
	CodeInvalidFingerprint     = 3
	CodeInvalidAPIKey          = 4
	CodeInternal               = 5
	CodeInvalidUserAPIKey      = 6
	CodeInvalidUUID            = 7
	CodeInvalidDuration        = 8
	CodeInvalidBitrate         = 9
	CodeInvalidForeignID       = 10
	CodeInvalidMaxDurationDiff = 11
	CodeTooManyRequests        = 14
)

// Error is a web service error: it carries the code and message sent to the
// client and the HTTP status of the response.
type Error struct {
	Code    int
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code int, message string) *Error {
	return &Error{Code: code, Message: message, Status: http.StatusBadRequest}
}

// UnknownFormat 未知的输出格式
func UnknownFormat(format string) *Error {
	return newError(CodeUnknownFormat, fmt.Sprintf("unknown format %q", format))
}

// MissingParameter 缺少必需参数
func MissingParameter(name string) *Error {
	return newError(CodeMissingParameter, fmt.Sprintf("missing required parameter %q", name))
}

func InvalidFingerprint() *Error {
	return newError(CodeInvalidFingerprint, "invalid fingerprint")
}

func InvalidAPIKey() *Error {
	return newError(CodeInvalidAPIKey, "invalid API key")
}

func InvalidUserAPIKey() *Error {
	return newError(CodeInvalidUserAPIKey, "invalid user API key")
}

func InvalidUUID(name string) *Error {
	return newError(CodeInvalidUUID, fmt.Sprintf("invalid UUID in parameter %q", name))
}

func InvalidDuration(name string) *Error {
	return newError(CodeInvalidDuration, fmt.Sprintf("invalid duration in parameter %q", name))
}

func InvalidBitrate(name string) *Error {
	return newError(CodeInvalidBitrate, fmt.Sprintf("invalid bitrate in parameter %q", name))
}

func InvalidForeignID(name string) *Error {
	return newError(CodeInvalidForeignID, fmt.Sprintf("invalid foreign ID in parameter %q", name))
}

func InvalidMaxDurationDiff(name string) *Error {
	return newError(CodeInvalidMaxDurationDiff, fmt.Sprintf("invalid maximum duration difference in parameter %q", name))
}

// TooManyRequests reports the rate limit that was exceeded.
func TooManyRequests(rate int) *Error {
	return &Error{
		Code:    CodeTooManyRequests,
		Message: fmt.Sprintf("rate limit (%d requests per second) exceeded, try again later", rate),
		Status:  http.StatusTooManyRequests,
	}
}

// Internal hides the cause from the client.
func Internal() *Error {
	return &Error{Code: CodeInternal, Message: "internal error", Status: http.StatusInternalServerError}
}

// Unavailable is an internal error the client may retry.
func Unavailable() *Error {
	return &Error{Code: CodeInternal, Message: "internal error", Status: http.StatusServiceUnavailable}
}

// As extracts the web service error from err. Any other error becomes an
// internal error; ok is false in that case.
func As(err error) (e *Error, ok bool) {
	if errors.As(err, &e) {
		return e, true
	}
	return Internal(), false
}
