package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
	"github.com/VadymMak/multi-ai-chat-sub002/pkg/storage"
)

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newTestSession(t *testing.T) *model.Session {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	done := now.Add(3 * time.Second)
	return &model.Session{
		ID:       uuid.New().String(),
		Question: "Is P=NP?",
		Providers: []model.ProviderRef{
			{Name: "openai", Model: "gpt-4o"},
			{Name: "anthropic", Model: "claude-sonnet-4-20250514"},
		},
		Transcript: model.Transcript{
			{ID: uuid.New().String(), Round: 1, Provider: "openai", Model: "gpt-4o", Role: model.RoleDebater, Text: "Probably not.", InputTokens: 10, OutputTokens: 5, CostUSD: 0.0001, Timestamp: now},
			{ID: uuid.New().String(), Round: 1, Provider: "anthropic", Model: "claude-sonnet-4-20250514", Role: model.RoleDebater, FailureKind: "timeout", Timestamp: now},
			{ID: uuid.New().String(), Round: 1, Provider: "openai", Model: "gpt-4o", Role: model.RoleJudge, Text: "Final: open problem.", InputTokens: 20, OutputTokens: 8, CostUSD: 0.0002, Timestamp: now},
		},
		TotalCostUSD: 0.0003,
		Round:        1,
		Status:       model.StatusComplete,
		CreatedAt:    now,
		CompletedAt:  &done,
	}
}

func TestSQLite_SaveAndGetSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess := newTestSession(t)

	require.NoError(t, store.SaveSession(ctx, sess))

	got, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Question, got.Question)
	assert.Equal(t, model.StatusComplete, got.Status)
	assert.InDelta(t, sess.TotalCostUSD, got.TotalCostUSD, 1e-12)

	require.Len(t, got.Transcript, 3)
	assert.Equal(t, "Probably not.", got.Transcript[0].Text)
	assert.True(t, got.Transcript[1].Failed())
	assert.Equal(t, "timeout", got.Transcript[1].FailureKind)
	assert.Equal(t, model.RoleJudge, got.Transcript[2].Role)
	assert.Equal(t, int64(20), got.Transcript[2].InputTokens)
}

func TestSQLite_GetMissingSession(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSession(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSQLite_SaveIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sess := newTestSession(t)

	require.NoError(t, store.SaveSession(ctx, sess))
	require.NoError(t, store.SaveSession(ctx, sess))

	got, err := store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, got.Transcript, 3, "re-saving must not duplicate turns")
}

func TestSQLite_ListSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := newTestSession(t)
	first.CreatedAt = first.CreatedAt.Add(-time.Hour)
	second := newTestSession(t)

	require.NoError(t, store.SaveSession(ctx, first))
	require.NoError(t, store.SaveSession(ctx, second))

	summaries, err := store.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, second.ID, summaries[0].ID, "newest first")
	assert.Equal(t, 3, summaries[0].TurnCount)
	assert.Equal(t, model.StatusComplete, summaries[0].Status)

	limited, err := store.ListSessions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
