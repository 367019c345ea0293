package tools

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/usestring/quietsearch/internal/pipeline"
	"github.com/usestring/quietsearch/pkg/extract"
	"github.com/usestring/quietsearch/pkg/nojs"
	"github.com/usestring/quietsearch/pkg/upstream"
)

// Error codes for MCP tool responses.
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeUpstreamTimeout     = "UPSTREAM_TIMEOUT"
	ErrCodeUpstreamUnreachable = "UPSTREAM_UNREACHABLE"
	ErrCodeUpstreamBlocked     = "UPSTREAM_BLOCKED"
	ErrCodeResultsUnavailable  = "RESULTS_UNAVAILABLE"
	ErrCodeTargetFetchFailed   = "TARGET_FETCH_FAILED"
	ErrCodeTargetBlocked       = "TARGET_BLOCKED"
	ErrCodeCanceled            = "CANCELED"
	ErrCodeInternal            = "INTERNAL"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapPipelineError converts an error returned by the pipeline to a coded error.
func WrapPipelineError(err error) error {
	if err == nil {
		return nil
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	coded = &CodedError{Code: codeFor(err), Message: messageFor(err), Cause: err}

	slog.Warn("search request failed",
		slog.String("code", coded.Code),
		slog.String("kind", string(pipeline.KindOf(err))),
		slog.String("message", coded.Message),
	)

	return coded
}

func codeFor(err error) string {
	var (
		timeout     *upstream.TimeoutError
		unreachable *upstream.UnreachableError
		blocked     *upstream.BlockedError
		targetBlock *nojs.TargetBlockedError
	)
	switch {
	case errors.As(err, &timeout):
		return ErrCodeUpstreamTimeout
	case errors.As(err, &unreachable):
		return ErrCodeUpstreamUnreachable
	case errors.As(err, &blocked):
		return ErrCodeUpstreamBlocked
	case errors.As(err, &targetBlock):
		return ErrCodeTargetBlocked
	}

	switch pipeline.KindOf(err) {
	case pipeline.KindInput:
		return ErrCodeInvalidInput
	case pipeline.KindParse:
		return ErrCodeResultsUnavailable
	case pipeline.KindTargetFetch:
		return ErrCodeTargetFetchFailed
	case pipeline.KindCanceled:
		return ErrCodeCanceled
	default:
		return ErrCodeInternal
	}
}

func messageFor(err error) string {
	var malformed *extract.MalformedDocumentError
	if errors.As(err, &malformed) {
		return "the search provider returned a page without readable results"
	}
	var targetFetch *nojs.TargetFetchError
	if errors.As(err, &targetFetch) {
		return fmt.Sprintf("could not fetch %s: %s", targetFetch.URL, targetFetch.Reason)
	}
	var targetBlock *nojs.TargetBlockedError
	if errors.As(err, &targetBlock) {
		return fmt.Sprintf("%s answered HTTP %d", targetBlock.URL, targetBlock.StatusCode)
	}
	var pe *pipeline.Error
	if errors.As(err, &pe) {
		if pe.Kind == pipeline.KindInput {
			return pe.Err.Error()
		}
		return fmt.Sprintf("request failed after %s", pe.Stage)
	}
	return "request failed"
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
