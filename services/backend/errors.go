package backend

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNotConfigured is returned when the client has no URL or key.
	ErrNotConfigured = errors.New("backend: not configured")
	// ErrTransport wraps network failures and unreadable responses.
	ErrTransport = errors.New("backend: transport failure")
	// ErrNotFound is returned by admin lookups for a missing identity.
	ErrNotFound = errors.New("backend: not found")
)

// Error is a structured error returned by the backend. Data API errors carry a
// Postgres code (42501 for RLS denials, P0001 for raised exceptions); auth errors
// carry the GoTrue error code.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Code != "" {
		fmt.Fprintf(&b, "%s: ", e.Code)
	}
	b.WriteString(e.Message)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	return b.String()
}

// IsPermissionDenied reports a row-level-security or privilege failure.
func (e *Error) IsPermissionDenied() bool {
	return e.Code == "42501" || e.Status == 403 || MentionsRowSecurity(e.Message)
}

var rowSecurity = regexp.MustCompile(`(?i)\brls\b|row[- ]level security`)

// MentionsRowSecurity reports whether msg names a row-level security policy.
func MentionsRowSecurity(msg string) bool {
	return rowSecurity.MatchString(msg)
}

// AsError unwraps err into a backend *Error.
func AsError(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

// wireError covers both the data API and the auth API error bodies.
type wireError struct {
	Code             any    `json:"code"`
	Message          string `json:"message"`
	Details          string `json:"details"`
	Hint             string `json:"hint"`
	Msg              string `json:"msg"`
	ErrorCode        string `json:"error_code"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (w wireError) toError(status int) *Error {
	e := &Error{Status: status, Message: w.Message, Details: w.Details, Hint: w.Hint}
	switch v := w.Code.(type) {
	case string:
		e.Code = v
	case float64:
		if w.ErrorCode == "" {
			e.Code = fmt.Sprintf("%d", int(v))
		}
	}
	if w.ErrorCode != "" {
		e.Code = w.ErrorCode
	}
	if e.Code == "" {
		e.Code = w.ErrorName
	}
	if e.Message == "" {
		e.Message = w.Msg
	}
	if e.Message == "" {
		e.Message = w.ErrorDescription
	}
	return e
}
