package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/VadymMak/multi-ai-chat-sub002/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Store interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) SaveSession(ctx context.Context, sess *model.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO sessions (id, question, status, fail_reason, rounds, total_cost_usd, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Question, string(sess.Status), sess.FailReason,
		sess.Round, sess.TotalCostUSD, sess.CreatedAt, sess.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	// Transcripts are append-only; a replace rewrites the turn set whole.
	if _, err := tx.ExecContext(ctx, "DELETE FROM turns WHERE session_id = ?", sess.ID); err != nil {
		return fmt.Errorf("clear turns: %w", err)
	}

	for seq, turn := range sess.Transcript {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO turns (id, session_id, seq, round, provider, model, role, text, input_tokens, output_tokens, cost_usd, failure_kind, timestamp)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			turn.ID, sess.ID, seq, turn.Round, turn.Provider, turn.Model,
			string(turn.Role), turn.Text, turn.InputTokens, turn.OutputTokens,
			turn.CostUSD, turn.FailureKind, turn.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert turn %d: %w", seq, err)
		}
	}

	return tx.Commit()
}

func (s *SQLite) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	var status string
	row := s.db.QueryRowContext(ctx,
		`SELECT id, question, status, fail_reason, rounds, total_cost_usd, created_at, completed_at
		 FROM sessions WHERE id = ?`, id)
	err := row.Scan(&sess.ID, &sess.Question, &status, &sess.FailReason,
		&sess.Round, &sess.TotalCostUSD, &sess.CreatedAt, &sess.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	sess.Status = model.Status(status)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, round, provider, model, role, text, input_tokens, output_tokens, cost_usd, failure_kind, timestamp
		 FROM turns WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Turn
		var role string
		if err := rows.Scan(&t.ID, &t.Round, &t.Provider, &t.Model, &role, &t.Text,
			&t.InputTokens, &t.OutputTokens, &t.CostUSD, &t.FailureKind, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = model.Role(role)
		sess.Transcript = append(sess.Transcript, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &sess, nil
}

func (s *SQLite) ListSessions(ctx context.Context, limit int) ([]model.SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.question, s.status, s.rounds, s.total_cost_usd, s.created_at,
		        (SELECT COUNT(*) FROM turns t WHERE t.session_id = s.id)
		 FROM sessions s ORDER BY s.created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var summaries []model.SessionSummary
	for rows.Next() {
		var sum model.SessionSummary
		var status string
		if err := rows.Scan(&sum.ID, &sum.Question, &status, &sum.Rounds,
			&sum.TotalCostUSD, &sum.CreatedAt, &sum.TurnCount); err != nil {
			return nil, fmt.Errorf("scan session summary: %w", err)
		}
		sum.Status = model.Status(status)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
