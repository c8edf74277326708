package model

import (
	"fmt"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleDebater Role = "debater"
	RoleJudge   Role = "judge"
)

// Status represents the lifecycle state of a debate session.
type Status string

const (
	StatusPending         Status = "pending"
	StatusRoundInProgress Status = "round_in_progress"
	StatusRoundComplete   Status = "round_complete"
	StatusSynthesizing    Status = "synthesizing"
	StatusComplete        Status = "complete"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
)

// transitions lists the allowed forward moves for each state. Terminal
// states have no entries and are never left.
var transitions = map[Status][]Status{
	StatusPending:         {StatusRoundInProgress, StatusFailed, StatusCancelled},
	StatusRoundInProgress: {StatusRoundComplete, StatusFailed, StatusCancelled},
	StatusRoundComplete:   {StatusRoundInProgress, StatusSynthesizing, StatusComplete, StatusFailed, StatusCancelled},
	StatusSynthesizing:    {StatusComplete, StatusFailed, StatusCancelled},
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed || s == StatusCancelled
}

// CanTransition reports whether moving from s to next is a legal forward step.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Turn is one recorded utterance within a debate session. Once appended to a
// transcript it is never rewritten.
type Turn struct {
	ID           string    `json:"id"`
	Round        int       `json:"round"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Role         Role      `json:"role"`
	Text         string    `json:"text"`
	InputTokens  int64     `json:"input_tokens"`
	OutputTokens int64     `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	FailureKind  string    `json:"failure_kind,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Failed reports whether this turn records a provider failure instead of a reply.
func (t Turn) Failed() bool {
	return t.FailureKind != ""
}

// Transcript is the append-only ordered history of turns for one session.
// Ordering is monotonic by round, then by provider registration order.
type Transcript []Turn

// Round returns the turns belonging to the given round, in order.
func (tr Transcript) Round(round int) []Turn {
	var turns []Turn
	for _, t := range tr {
		if t.Round == round {
			turns = append(turns, t)
		}
	}
	return turns
}

// ProviderRef identifies one registered participant of a session.
type ProviderRef struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

// Session is one debate from question to final answer. It is owned and
// mutated by a single orchestrator; there is no external writer.
type Session struct {
	ID           string        `json:"id"`
	Question     string        `json:"question"`
	Providers    []ProviderRef `json:"providers"`
	Transcript   Transcript    `json:"conversation"`
	TotalCostUSD float64       `json:"total_cost_usd"`
	Round        int           `json:"round"`
	Status       Status        `json:"status"`
	FailReason   string        `json:"fail_reason,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// Advance moves the session to the next status, enforcing forward-only
// transitions.
func (s *Session) Advance(next Status) error {
	if !s.Status.CanTransition(next) {
		return fmt.Errorf("illegal status transition %s -> %s", s.Status, next)
	}
	s.Status = next
	return nil
}

// SessionSummary is a lightweight view for listing stored sessions.
type SessionSummary struct {
	ID           string    `json:"id"`
	Question     string    `json:"question"`
	Status       Status    `json:"status"`
	Rounds       int       `json:"rounds"`
	TurnCount    int       `json:"turn_count"`
	TotalCostUSD float64   `json:"total_cost_usd"`
	CreatedAt    time.Time `json:"created_at"`
}
