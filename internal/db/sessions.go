package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// BeginSession records the start of an evaluation run in 'processing' state
func (db *DB) BeginSession(ctx context.Context, sessionID uuid.UUID, fileIDs, itemIDs []int64) error {
	fileJSON, err := json.Marshal(fileIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal file ids: %w", err)
	}
	itemJSON, err := json.Marshal(itemIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal item ids: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO sessions (session_id, file_ids, item_ids, status)
		 VALUES ($1, $2, $3, $4)`,
		sessionID, fileJSON, itemJSON, SessionStatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to begin session: %w", err)
	}
	return nil
}

// CompleteSession stores the results of a successful evaluation run
func (db *DB) CompleteSession(ctx context.Context, sessionID uuid.UUID, results any, elapsed time.Duration) error {
	resultJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`UPDATE sessions SET results = $2, status = $3, processing_time_ms = $4, completed_at = NOW()
		 WHERE session_id = $1`,
		sessionID, resultJSON, SessionStatusCompleted, elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to complete session: %w", err)
	}
	return nil
}

// FailSession marks an evaluation run as failed with the given message
func (db *DB) FailSession(ctx context.Context, sessionID uuid.UUID, message string, elapsed time.Duration) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE sessions SET status = $2, error_message = $3, processing_time_ms = $4, completed_at = NOW()
		 WHERE session_id = $1`,
		sessionID, SessionStatusFailed, message, elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to fail session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by its UUID, or nil if it does not exist
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID) (*EvaluationSession, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, session_id, file_ids, item_ids, results, status, error_message, processing_time_ms, created_at, completed_at
		 FROM sessions WHERE session_id = $1`,
		sessionID,
	)
	s, err := scanSession(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// ListSessions retrieves recent sessions, newest first
func (db *DB) ListSessions(ctx context.Context, limit int) ([]EvaluationSession, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, file_ids, item_ids, results, status, error_message, processing_time_ms, created_at, completed_at
		 FROM sessions ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []EvaluationSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*EvaluationSession, error) {
	var s EvaluationSession
	var fileJSON, itemJSON, resultJSON []byte

	err := row.Scan(&s.ID, &s.SessionID, &fileJSON, &itemJSON, &resultJSON,
		&s.Status, &s.ErrorMessage, &s.ProcessingTimeMS, &s.CreatedAt, &s.CompletedAt)
	if err != nil {
		return nil, err
	}

	if len(fileJSON) > 0 {
		if err := json.Unmarshal(fileJSON, &s.FileIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal file ids: %w", err)
		}
	}
	if len(itemJSON) > 0 {
		if err := json.Unmarshal(itemJSON, &s.ItemIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item ids: %w", err)
		}
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &s.Results); err != nil {
			return nil, fmt.Errorf("failed to unmarshal results: %w", err)
		}
	}
	return &s, nil
}
