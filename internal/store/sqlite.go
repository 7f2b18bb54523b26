package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ziadkadry99/orientation-agent/internal/db"
	"github.com/ziadkadry99/orientation-agent/internal/interview"
)

// SQLiteStore keeps snapshots in the session_snapshots table.
type SQLiteStore struct {
	db         *db.DB
	appVersion string
}

// NewSQLiteStore wraps an opened database.
func NewSQLiteStore(d *db.DB, appVersion string) *SQLiteStore {
	return &SQLiteStore{db: d, appVersion: appVersion}
}

// Save upserts the snapshot of s.
func (st *SQLiteStore) Save(ctx context.Context, s *interview.Session) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	_, err = st.db.ExecContext(ctx, `
		INSERT INTO session_snapshots (app_version, id, phase, question_index, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(app_version, id) DO UPDATE SET
			phase = excluded.phase,
			question_index = excluded.question_index,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at`,
		st.appVersion, s.ID, string(s.Phase), s.Index, string(data),
		formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID, err)
	}
	return nil
}

// Load returns the stored snapshot or ErrNotFound.
func (st *SQLiteStore) Load(ctx context.Context, id string) (*interview.Session, error) {
	var data string
	err := st.db.QueryRowContext(ctx,
		`SELECT snapshot FROM session_snapshots WHERE app_version = ? AND id = ?`,
		st.appVersion, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return decode([]byte(data))
}

// Delete removes the snapshot or returns ErrNotFound.
func (st *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := st.db.ExecContext(ctx,
		`DELETE FROM session_snapshots WHERE app_version = ? AND id = ?`, st.appVersion, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the sessions of this app version, most recently updated first.
func (st *SQLiteStore) List(ctx context.Context) ([]Meta, error) {
	rows, err := st.db.QueryContext(ctx, `
		SELECT id, phase, question_index, updated_at FROM session_snapshots
		WHERE app_version = ? ORDER BY updated_at DESC, id`, st.appVersion)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var (
			m       Meta
			phase   string
			updated string
		)
		if err := rows.Scan(&m.ID, &phase, &m.Index, &updated); err != nil {
			return nil, fmt.Errorf("scanning session row: %w", err)
		}
		m.Phase = interview.Phase(phase)
		if m.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return nil, fmt.Errorf("parsing updated_at of %s: %w", m.ID, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// formatTime renders fixed-width UTC timestamps so that text ordering
// matches time ordering.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Close closes the underlying database.
func (st *SQLiteStore) Close() error {
	return st.db.Close()
}
