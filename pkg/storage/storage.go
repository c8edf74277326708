// Package storage snapshots finished debate sessions. The core never reads
// its own history back; this is the persistence collaborator the UI and CLI
// use for inspection.
package storage

import (
	"context"
	"errors"

	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"
)

// ErrNotFound is returned when no session exists for an ID.
var ErrNotFound = errors.New("session not found")

// Store persists session snapshots.
type Store interface {
	// SaveSession persists a terminal session and its transcript.
	SaveSession(ctx context.Context, s *model.Session) error

	// GetSession retrieves a stored session with its full transcript.
	GetSession(ctx context.Context, id string) (*model.Session, error)

	// ListSessions returns the most recent sessions, newest first.
	ListSessions(ctx context.Context, limit int) ([]model.SessionSummary, error)

	// Close releases resources.
	Close() error
}
