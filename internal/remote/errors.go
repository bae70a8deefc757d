package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Op names the remote call that failed.
type Op string

const (
	OpFetch   Op = "fetch"
	OpVersion Op = "version"
	OpWrite   Op = "write"
)

// ErrReadOnly is returned by writes when no write credential is set.
var ErrReadOnly = errors.New("remote is read-only: no write credential configured")

// ErrNoDocumentURL is returned by Fetch when remote.document_url is unset.
var ErrNoDocumentURL = errors.New("remote: no document URL configured")

// Error describes a failed remote call.
type Error struct {
	Op         Op
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("remote %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("remote %s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s failed", e.Op)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the call ran out of time.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// Retryable reports whether repeating the call may succeed: timeouts,
// transport errors, rate limits, conflicts and server errors.
func (e *Error) Retryable() bool {
	if e.Timeout() {
		return true
	}
	switch {
	case e.StatusCode == 0:
		return e.Err != nil && !errors.Is(e.Err, context.Canceled)
	case e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode == http.StatusConflict,
		e.StatusCode >= 500:
		return true
	}
	return false
}

// IsRetryable reports whether err (or any error in its chain) is a
// retryable remote Error.
func IsRetryable(err error) bool {
	var remoteErr *Error
	return errors.As(err, &remoteErr) && remoteErr.Retryable()
}

// IsUnauthorized reports whether err is a 401 or 403 from the remote.
func IsUnauthorized(err error) bool {
	var remoteErr *Error
	if !errors.As(err, &remoteErr) {
		return false
	}
	return remoteErr.StatusCode == http.StatusUnauthorized ||
		remoteErr.StatusCode == http.StatusForbidden
}

// IsNotFound reports whether err is a 404 from the remote, meaning no
// document has been stored yet.
func IsNotFound(err error) bool {
	var remoteErr *Error
	return errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound
}
