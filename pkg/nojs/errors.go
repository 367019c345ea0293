package nojs

import "fmt"

// TargetFetchError means a followed link could not be fetched or read as a
// page. It never affects the result list the link came from.
type TargetFetchError struct {
	URL    string
	Reason string
	Err    error
}

func (e *TargetFetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("fetching %s: %s", e.URL, e.Reason)
}

func (e *TargetFetchError) Unwrap() error {
	return e.Err
}

// TargetBlockedError means the target answered with a non-2xx status.
type TargetBlockedError struct {
	URL        string
	StatusCode int
}

func (e *TargetBlockedError) Error() string {
	return fmt.Sprintf("fetching %s: status %d", e.URL, e.StatusCode)
}
