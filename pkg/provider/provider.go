// Package provider defines the uniform capability wrapping each AI backend:
// given a question and the prior conversation, produce one reply plus
// normalized token usage.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
)

// Request carries everything an adapter needs for one generation call.
// Adapters are stateless; the full context travels with each request.
type Request struct {
	// Question is the prompt the provider must answer.
	Question string

	// Instructions is the system-level framing for this turn (debate role,
	// round guidance). May be empty for a direct ask.
	Instructions string

	// History holds the prior turns of the session, in transcript order.
	History []model.Turn
}

// Reply is a provider's answer with normalized token accounting.
type Reply struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Adapter is the capability each concrete AI backend implements. Adapters
// keep no mutable state across calls and are safe for concurrent use.
type Adapter interface {
	// Name returns the provider family identifier (e.g. "openai").
	Name() string

	// Model returns the model identifier this adapter targets.
	Model() string

	// Generate produces one reply. Blocking is bounded by the caller's
	// context deadline; on expiry the call fails with KindTimeout.
	Generate(ctx context.Context, req Request) (Reply, error)
}

// Kind classifies adapter-level failures. All of them are recoverable at
// the session level: the round continues without the failed provider.
type Kind int

const (
	KindTimeout Kind = iota
	KindRateLimited
	KindAuthFailure
	KindUpstream
)

// String returns the wire name for the failure kind.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindRateLimited:
		return "rate_limited"
	case KindAuthFailure:
		return "auth_failure"
	default:
		return "upstream_error"
	}
}

// Error is a classified provider failure.
type Error struct {
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified provider error.
func NewError(kind Kind, providerName string, err error) *Error {
	return &Error{Kind: kind, Provider: providerName, Err: err}
}

// Classify wraps an arbitrary transport error into a provider Error.
// Context expiry maps to KindTimeout; everything unrecognized is upstream.
func Classify(providerName string, err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, providerName, err)
	}
	return NewError(KindUpstream, providerName, err)
}

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind, true
	}
	return 0, false
}

// KindFromStatus maps an HTTP status code to a failure kind.
func KindFromStatus(status int) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuthFailure
	case status == 429:
		return KindRateLimited
	default:
		return KindUpstream
	}
}

// Attribution labels a prior turn for inclusion in another provider's
// context, so each debater can see who said what.
func Attribution(t model.Turn) string {
	return fmt.Sprintf("%s (%s, round %d) said:\n%s", t.Provider, t.Model, t.Round, t.Text)
}
