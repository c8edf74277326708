package meter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/meter"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/pricing"
)

func newTestTable(t *testing.T) *pricing.Table {
	t.Helper()
	return pricing.NewTable(
		pricing.Entry{Model: "gpt-4o", InputPerMillion: 2.50, OutputPerMillion: 10.00},
		pricing.Entry{Model: "claude-sonnet-4-20250514", InputPerMillion: 3.00, OutputPerMillion: 15.00},
	)
}

func TestMeter_Record(t *testing.T) {
	m := meter.New(newTestTable(t))

	total, err := m.Record(model.Turn{ID: "t1", Model: "gpt-4o", InputTokens: 1000, OutputTokens: 500})
	require.NoError(t, err)
	expected := 2.50*1000/1e6 + 10.00*500/1e6
	assert.InDelta(t, expected, total, 1e-12)

	total, err = m.Record(model.Turn{ID: "t2", Model: "claude-sonnet-4-20250514", InputTokens: 2000, OutputTokens: 100})
	require.NoError(t, err)
	expected += 3.00*2000/1e6 + 15.00*100/1e6
	assert.InDelta(t, expected, total, 1e-12)
	assert.InDelta(t, expected, m.Total(), 1e-12)
}

func TestMeter_UnpricedModelAborts(t *testing.T) {
	m := meter.New(newTestTable(t))

	_, err := m.Record(model.Turn{ID: "t1", Model: "gpt-4o", InputTokens: 1_000_000, OutputTokens: 0})
	require.NoError(t, err)

	before := m.Total()
	_, err = m.Record(model.Turn{ID: "t2", Model: "mystery-model", InputTokens: 100, OutputTokens: 100})
	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrModelNotPriced)
	assert.Equal(t, before, m.Total(), "failed record must not change the total")
}

func TestCostOf_MatchesRecord(t *testing.T) {
	table := newTestTable(t)
	m := meter.New(table)

	turns := []model.Turn{
		{ID: "a", Model: "gpt-4o", InputTokens: 123, OutputTokens: 456},
		{ID: "b", Model: "claude-sonnet-4-20250514", InputTokens: 789, OutputTokens: 12},
		{ID: "c", Model: "gpt-4o", InputTokens: 0, OutputTokens: 0},
	}

	var independent float64
	for _, turn := range turns {
		_, err := m.Record(turn)
		require.NoError(t, err)

		cost, err := meter.CostOf(table, turn)
		require.NoError(t, err)
		independent += cost
	}

	assert.InDelta(t, independent, m.Total(), 1e-12)
}
