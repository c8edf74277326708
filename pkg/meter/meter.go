// Package meter accumulates the monetary cost of a debate session from
// per-turn token usage and the injected pricing table.
package meter

import (
	"fmt"

	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/pricing"
)

// Meter tracks the running USD cost of one session. Updates are serialized
// by the session's single-writer orchestrator, so no locking is needed.
type Meter struct {
	table *pricing.Table
	total float64
}

// New creates a meter backed by the given pricing table.
func New(table *pricing.Table) *Meter {
	return &Meter{table: table}
}

// Record prices one turn and returns the updated session total. An unpriced
// model aborts accounting with pricing.ErrModelNotPriced rather than
// defaulting to zero.
func (m *Meter) Record(turn model.Turn) (float64, error) {
	cost, err := CostOf(m.table, turn)
	if err != nil {
		return m.total, err
	}
	m.total += cost
	return m.total, nil
}

// Total returns the accumulated session cost so far.
func (m *Meter) Total() float64 {
	return m.total
}

// CostOf prices a single turn independently of any accumulator. It is the
// same formula Record applies, exposed so callers can recompute totals.
func CostOf(table *pricing.Table, turn model.Turn) (float64, error) {
	entry, err := table.Lookup(turn.Model)
	if err != nil {
		return 0, fmt.Errorf("meter turn %s: %w", turn.ID, err)
	}
	cost := float64(turn.InputTokens)/1_000_000*entry.InputPerMillion +
		float64(turn.OutputTokens)/1_000_000*entry.OutputPerMillion
	return cost, nil
}
