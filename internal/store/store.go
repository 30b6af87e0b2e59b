// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/stride/internal/interval"
	"github.com/verte-zerg/stride/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is RFC 3339 with fixed-width fractional seconds so that
// string comparison in SQL matches time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// dbtx is the shared surface of *sql.DB and *sql.Tx used by queries.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps SQLite access for shoe, session, and attribution records.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS shoes (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			archived INTEGER NOT NULL DEFAULT 0,
			is_default INTEGER NOT NULL DEFAULT 0,
			inactivity_timeout_s INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			shoe_id INTEGER NOT NULL REFERENCES shoes(id) ON DELETE CASCADE,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			auto_started INTEGER NOT NULL DEFAULT 0,
			auto_closed INTEGER NOT NULL DEFAULT 0,
			steps INTEGER NOT NULL DEFAULT 0,
			distance_km REAL NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS hour_attributions (
			id INTEGER PRIMARY KEY,
			shoe_id INTEGER NOT NULL REFERENCES shoes(id) ON DELETE CASCADE,
			hour TEXT NOT NULL UNIQUE,
			steps INTEGER NOT NULL,
			distance_km REAL NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_shoe ON sessions(shoe_id);`,
		`CREATE INDEX IF NOT EXISTS idx_attributions_shoe ON hour_attributions(shoe_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Tx exposes record operations scoped to one transaction.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn inside a transaction, committing on nil error and
// rolling back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Tx{tx: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// --- shoes ---

// InsertShoe creates a shoe and returns its id.
func (t *Tx) InsertShoe(ctx context.Context, name string, timeout time.Duration) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO shoes (name, archived, is_default, inactivity_timeout_s) VALUES (?, 0, 0, ?)`,
		name, int64(timeout/time.Second))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SetShoeArchived flips the archived flag on a shoe.
func (t *Tx) SetShoeArchived(ctx context.Context, id int64, archived bool) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE shoes SET archived = ? WHERE id = ?`, boolInt(archived), id)
	return err
}

// SetDefaultShoe marks one shoe as default and clears the flag on all
// others in the same statement pair.
func (t *Tx) SetDefaultShoe(ctx context.Context, id int64) error {
	if _, err := t.tx.ExecContext(ctx, `UPDATE shoes SET is_default = 0 WHERE id != ?`, id); err != nil {
		return err
	}
	_, err := t.tx.ExecContext(ctx, `UPDATE shoes SET is_default = 1 WHERE id = ?`, id)
	return err
}

const shoeColumns = `id, name, archived, is_default, inactivity_timeout_s`

// GetShoe returns a shoe by id, or nil when absent.
func (s *Store) GetShoe(ctx context.Context, id int64) (*model.Shoe, error) {
	return queryShoe(ctx, s.db, `SELECT `+shoeColumns+` FROM shoes WHERE id = ?`, id)
}

// GetShoe returns a shoe by id within the transaction, or nil when absent.
func (t *Tx) GetShoe(ctx context.Context, id int64) (*model.Shoe, error) {
	return queryShoe(ctx, t.tx, `SELECT `+shoeColumns+` FROM shoes WHERE id = ?`, id)
}

// GetShoeByName returns a shoe by name, or nil when absent.
func (s *Store) GetShoeByName(ctx context.Context, name string) (*model.Shoe, error) {
	return queryShoe(ctx, s.db, `SELECT `+shoeColumns+` FROM shoes WHERE name = ?`, name)
}

// DefaultShoe returns the shoe flagged as default, or nil when none is.
func (s *Store) DefaultShoe(ctx context.Context) (*model.Shoe, error) {
	return queryShoe(ctx, s.db, `SELECT `+shoeColumns+` FROM shoes WHERE is_default = 1`)
}

// DefaultShoe returns the default shoe within the transaction.
func (t *Tx) DefaultShoe(ctx context.Context) (*model.Shoe, error) {
	return queryShoe(ctx, t.tx, `SELECT `+shoeColumns+` FROM shoes WHERE is_default = 1`)
}

// ListShoes returns all shoes, optionally including archived ones.
func (s *Store) ListShoes(ctx context.Context, includeArchived bool) ([]model.Shoe, error) {
	query := `SELECT ` + shoeColumns + ` FROM shoes`
	if !includeArchived {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var shoes []model.Shoe
	for rows.Next() {
		shoe, err := scanShoe(rows)
		if err != nil {
			return nil, err
		}
		shoes = append(shoes, shoe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return shoes, nil
}

func queryShoe(ctx context.Context, q dbtx, query string, args ...any) (*model.Shoe, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)
	if !rows.Next() {
		return nil, rows.Err()
	}
	shoe, err := scanShoe(rows)
	if err != nil {
		return nil, err
	}
	return &shoe, rows.Err()
}

func scanShoe(rows *sql.Rows) (model.Shoe, error) {
	var shoe model.Shoe
	var archived, isDefault int64
	var timeoutSec int64
	if err := rows.Scan(&shoe.ID, &shoe.Name, &archived, &isDefault, &timeoutSec); err != nil {
		return model.Shoe{}, err
	}
	shoe.Archived = archived != 0
	shoe.IsDefault = isDefault != 0
	shoe.InactivityTimeout = time.Duration(timeoutSec) * time.Second
	return shoe, nil
}

// --- sessions ---

const sessionColumns = `id, shoe_id, started_at, ended_at, auto_started, auto_closed, steps, distance_km`

// InsertSession creates a session and returns its id. endedAt may be nil
// for an open session.
func (t *Tx) InsertSession(ctx context.Context, sess model.Session) (int64, error) {
	var endedAt any
	if sess.EndedAt != nil {
		endedAt = formatTime(*sess.EndedAt)
	}
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO sessions (shoe_id, started_at, ended_at, auto_started, auto_closed, steps, distance_km)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ShoeID, formatTime(sess.StartedAt), endedAt,
		boolInt(sess.AutoStarted), boolInt(sess.AutoClosed),
		int64(sess.Steps), sess.DistanceKm)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// CloseSession sets a session's end and cached activity totals. It is a
// no-op on an already closed session.
func (t *Tx) CloseSession(ctx context.Context, id int64, endedAt time.Time, autoClosed bool, steps uint64, distanceKm float64) error {
	_, err := t.tx.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, auto_closed = ?, steps = ?, distance_km = ?
		 WHERE id = ? AND ended_at IS NULL`,
		formatTime(endedAt), boolInt(autoClosed), int64(steps), distanceKm, id)
	return err
}

// DeleteSession removes a session record entirely.
func (t *Tx) DeleteSession(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// OpenSessions returns every session with no end, oldest first.
func (s *Store) OpenSessions(ctx context.Context) ([]model.Session, error) {
	return querySessions(ctx, s.db,
		`SELECT `+sessionColumns+` FROM sessions WHERE ended_at IS NULL ORDER BY started_at ASC`)
}

// OpenSessions returns every open session within the transaction.
func (t *Tx) OpenSessions(ctx context.Context) ([]model.Session, error) {
	return querySessions(ctx, t.tx,
		`SELECT `+sessionColumns+` FROM sessions WHERE ended_at IS NULL ORDER BY started_at ASC`)
}

// SessionsOverlapping returns sessions whose interval overlaps iv.
func (s *Store) SessionsOverlapping(ctx context.Context, iv interval.Interval) ([]model.Session, error) {
	return sessionsOverlapping(ctx, s.db, iv)
}

// SessionsOverlapping returns overlapping sessions within the transaction.
func (t *Tx) SessionsOverlapping(ctx context.Context, iv interval.Interval) ([]model.Session, error) {
	return sessionsOverlapping(ctx, t.tx, iv)
}

func sessionsOverlapping(ctx context.Context, q dbtx, iv interval.Interval) ([]model.Session, error) {
	// Open session ends and open query ends both behave as +inf.
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE (ended_at IS NULL OR ended_at > ?)`
	args := []any{formatTime(iv.Start)}
	if !iv.IsOpen() {
		query += ` AND started_at < ?`
		args = append(args, formatTime(iv.End))
	}
	query += ` ORDER BY started_at ASC`
	return querySessions(ctx, q, query, args...)
}

func querySessions(ctx context.Context, q dbtx, query string, args ...any) ([]model.Session, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var sessions []model.Session
	for rows.Next() {
		var sess model.Session
		var startedAt string
		var endedAt sql.NullString
		var autoStarted, autoClosed, steps int64
		if err := rows.Scan(&sess.ID, &sess.ShoeID, &startedAt, &endedAt, &autoStarted, &autoClosed, &steps, &sess.DistanceKm); err != nil {
			return nil, err
		}
		start, err := parseTime(startedAt)
		if err != nil {
			return nil, err
		}
		sess.StartedAt = start
		if endedAt.Valid {
			end, err := parseTime(endedAt.String)
			if err != nil {
				return nil, err
			}
			sess.EndedAt = &end
		}
		sess.AutoStarted = autoStarted != 0
		sess.AutoClosed = autoClosed != 0
		sess.Steps = uint64(steps)
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// --- hour attributions ---

const attributionColumns = `id, shoe_id, hour, steps, distance_km`

// InsertAttribution creates an hour attribution and returns its id. The
// hour column is UNIQUE; conflicts must be resolved beforehand.
func (t *Tx) InsertAttribution(ctx context.Context, attr model.HourAttribution) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO hour_attributions (shoe_id, hour, steps, distance_km) VALUES (?, ?, ?, ?)`,
		attr.ShoeID, formatTime(attr.Hour), int64(attr.Steps), attr.DistanceKm)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// DeleteAttribution removes the attribution for the given hour, if any.
// It reports whether a record was deleted.
func (t *Tx) DeleteAttribution(ctx context.Context, hour time.Time) (bool, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM hour_attributions WHERE hour = ?`, formatTime(hour))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetAttribution returns the attribution for an hour, or nil when absent.
func (s *Store) GetAttribution(ctx context.Context, hour time.Time) (*model.HourAttribution, error) {
	attrs, err := queryAttributions(ctx, s.db,
		`SELECT `+attributionColumns+` FROM hour_attributions WHERE hour = ?`, formatTime(hour))
	if err != nil {
		return nil, err
	}
	if len(attrs) == 0 {
		return nil, nil
	}
	return &attrs[0], nil
}

// AttributionsInRange returns attributions with start <= hour < end.
func (s *Store) AttributionsInRange(ctx context.Context, start, end time.Time) ([]model.HourAttribution, error) {
	return attributionsInRange(ctx, s.db, start, end)
}

// AttributionsInRange returns attributions in range within the transaction.
func (t *Tx) AttributionsInRange(ctx context.Context, start, end time.Time) ([]model.HourAttribution, error) {
	return attributionsInRange(ctx, t.tx, start, end)
}

func attributionsInRange(ctx context.Context, q dbtx, start, end time.Time) ([]model.HourAttribution, error) {
	return queryAttributions(ctx, q,
		`SELECT `+attributionColumns+` FROM hour_attributions WHERE hour >= ? AND hour < ? ORDER BY hour ASC`,
		formatTime(start), formatTime(end))
}

func queryAttributions(ctx context.Context, q dbtx, query string, args ...any) ([]model.HourAttribution, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows)

	var attrs []model.HourAttribution
	for rows.Next() {
		var attr model.HourAttribution
		var hour string
		var steps int64
		if err := rows.Scan(&attr.ID, &attr.ShoeID, &hour, &steps, &attr.DistanceKm); err != nil {
			return nil, err
		}
		parsed, err := parseTime(hour)
		if err != nil {
			return nil, err
		}
		attr.Hour = parsed
		attr.Steps = uint64(steps)
		attrs = append(attrs, attr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return attrs, nil
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func closeRows(rows *sql.Rows) {
	_ = rows.Close()
}
