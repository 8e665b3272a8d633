package fetcher

import (
	"errors"
	"fmt"
)

// Reason classifies a failed fetch.
type Reason string

const (
	ReasonNetwork Reason = "network_error"
	ReasonHTTP    Reason = "http_error"
	ReasonTimeout Reason = "timeout"
)

// Error is the failure side of a fetch. StatusCode is set only for ReasonHTTP.
type Error struct {
	Reason     Reason
	StatusCode int
	URL        string
	Err        error
}

func newError(reason Reason, url string, status int, err error) *Error {
	return &Error{Reason: reason, StatusCode: status, URL: url, Err: err}
}

func (e *Error) Error() string {
	if e.Reason == ReasonHTTP {
		return fmt.Sprintf("%s(%d) fetching %s", e.Reason, e.StatusCode, e.URL)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s fetching %s: %v", e.Reason, e.URL, e.Err)
	}
	return fmt.Sprintf("%s fetching %s", e.Reason, e.URL)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ReasonOf reports the failure reason carried by err, if any.
func ReasonOf(err error) (Reason, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason, true
	}
	return "", false
}

// IsHTTPStatus reports whether err is an http_error with the given status.
func IsHTTPStatus(err error, status int) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Reason == ReasonHTTP && fe.StatusCode == status
}
