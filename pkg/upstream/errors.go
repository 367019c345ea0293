package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// TimeoutError means the provider did not answer within the fetch timeout.
type TimeoutError struct {
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream timed out after %s: %v", e.Timeout, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// UnreachableError means the request never got a response (DNS, refused, reset).
type UnreachableError struct {
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("upstream unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// BlockedError means the provider answered but refused to serve results,
// either with a non-2xx status or with a CAPTCHA interstitial.
type BlockedError struct {
	StatusCode int
	Reason     string
}

func (e *BlockedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("upstream blocked the request (HTTP %d, %s)", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("upstream blocked the request (HTTP %d)", e.StatusCode)
}

// transportError maps an http.Client.Do failure to a typed error.
// Cancellation by the caller is passed through unchanged.
func transportError(ctx context.Context, timeout time.Duration, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &TimeoutError{Timeout: timeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TimeoutError{Timeout: timeout, Err: err}
	}
	return &UnreachableError{Err: err}
}
