package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/usestring/quietsearch/pkg/extract"
	"github.com/usestring/quietsearch/pkg/nojs"
	"github.com/usestring/quietsearch/pkg/query"
	"github.com/usestring/quietsearch/pkg/upstream"
)

// Stage is a step of the request state machine.
type Stage string

const (
	StageReceived   Stage = "received"
	StageNormalized Stage = "normalized"
	StageFetched    Stage = "fetched"
	StageExtracted  Stage = "extracted"
	StageSanitized  Stage = "sanitized"
	StageComplete   Stage = "complete"
	StageFailed     Stage = "failed"
)

// Kind groups failures by what the caller can do about them.
type Kind string

const (
	KindInput       Kind = "input"
	KindUpstream    Kind = "upstream"
	KindParse       Kind = "parse"
	KindTargetFetch Kind = "target_fetch"
	KindCanceled    Kind = "canceled"
	KindInternal    Kind = "internal"
)

// ErrInvalidURL is returned by View for links that are not absolute
// http(s) URLs.
var ErrInvalidURL = errors.New("not an absolute http(s) url")

// Error is a failed request. Stage is the last stage the request reached
// before failing.
type Error struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s failure after %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies any error returned by the pipeline or its components.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return classify(err)
}

func classify(err error) Kind {
	var (
		timeout     *upstream.TimeoutError
		unreachable *upstream.UnreachableError
		blocked     *upstream.BlockedError
		malformed   *extract.MalformedDocumentError
		targetFetch *nojs.TargetFetchError
		targetBlock *nojs.TargetBlockedError
	)
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, query.ErrEmptyQuery), errors.Is(err, ErrInvalidURL):
		return KindInput
	case errors.As(err, &timeout), errors.As(err, &unreachable), errors.As(err, &blocked):
		return KindUpstream
	case errors.As(err, &malformed):
		return KindParse
	case errors.As(err, &targetFetch), errors.As(err, &targetBlock):
		return KindTargetFetch
	default:
		return KindInternal
	}
}
