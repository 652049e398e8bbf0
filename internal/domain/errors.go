package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrBadRequest marks malformed or missing caller input.
	ErrBadRequest = errors.New("bad request")

	// ErrUpstreamUnavailable marks a transport-level failure talking to the
	// remote store: refused connection, DNS failure, timeout, truncated body.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamError is returned when the remote store answered, but not with a
// 2xx status. The answer is relayed to the caller as is.
type UpstreamError struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}
