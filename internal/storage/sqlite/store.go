// Package sqlite provides a SQLite implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jwulff/caregiver-go/internal/bloodsugar"
	"github.com/jwulff/caregiver-go/internal/storage"
	"github.com/jwulff/caregiver-go/internal/treatment"

	_ "modernc.org/sqlite"
)

// Store is a SQLite implementation of storage.Store.
type Store struct {
	db *sql.DB
}

// NewMemoryStore creates an in-memory SQLite store.
func NewMemoryStore() (*Store, error) {
	return newStore(":memory:")
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string) (*Store, error) {
	return newStore(path)
}

func newStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Sample methods

func (s *Store) StoreSamples(ctx context.Context, samples []bloodsugar.Sample) error {
	return s.insertAll(ctx, `
		INSERT OR REPLACE INTO samples (timestamp, value) VALUES (?, ?)
	`, len(samples), func(i int) []any {
		return []any{toMillis(samples[i].Timestamp), samples[i].Value}
	})
}

func (s *Store) QuerySamples(ctx context.Context, since, until time.Time) ([]bloodsugar.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, value FROM samples
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, toMillis(since), toMillis(until))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []bloodsugar.Sample
	for rows.Next() {
		var ms int64
		var value int
		if err := rows.Scan(&ms, &value); err != nil {
			return nil, err
		}
		samples = append(samples, bloodsugar.NewSample(value, fromMillis(ms)))
	}
	return samples, rows.Err()
}

// Treatment methods

func (s *Store) StoreBolusEvents(ctx context.Context, events []treatment.BolusEvent) error {
	return s.insertAll(ctx, `
		INSERT OR REPLACE INTO boluses (timestamp, amount) VALUES (?, ?)
	`, len(events), func(i int) []any {
		return []any{toMillis(events[i].Timestamp), events[i].Amount}
	})
}

func (s *Store) QueryBolusEvents(ctx context.Context, since, until time.Time) ([]treatment.BolusEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, amount FROM boluses
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, toMillis(since), toMillis(until))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []treatment.BolusEvent
	for rows.Next() {
		var ms int64
		var amount float64
		if err := rows.Scan(&ms, &amount); err != nil {
			return nil, err
		}
		events = append(events, treatment.NewBolusEvent(amount, fromMillis(ms)))
	}
	return events, rows.Err()
}

func (s *Store) StoreCarbEvents(ctx context.Context, events []treatment.CarbEvent) error {
	return s.insertAll(ctx, `
		INSERT OR REPLACE INTO carbs (timestamp, amount) VALUES (?, ?)
	`, len(events), func(i int) []any {
		return []any{toMillis(events[i].Timestamp), events[i].Amount}
	})
}

func (s *Store) QueryCarbEvents(ctx context.Context, since, until time.Time) ([]treatment.CarbEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, amount FROM carbs
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, toMillis(since), toMillis(until))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []treatment.CarbEvent
	for rows.Next() {
		var ms int64
		var amount int
		if err := rows.Scan(&ms, &amount); err != nil {
			return nil, err
		}
		events = append(events, treatment.NewCarbEvent(amount, fromMillis(ms)))
	}
	return events, rows.Err()
}

// insertAll runs query once per row inside a single transaction.
func (s *Store) insertAll(ctx context.Context, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) DeleteOldData(ctx context.Context, before time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	cutoff := toMillis(before)
	for _, table := range []string{"samples", "boluses", "carbs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE timestamp < ?", cutoff); err != nil {
			return fmt.Errorf("failed to prune %s: %w", table, err)
		}
	}

	return tx.Commit()
}

// Command log methods

func (s *Store) RecordCommand(ctx context.Context, cmd *storage.CommandRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO commands (id, kind, detail, error, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, cmd.ID, cmd.Kind, cmd.Detail, cmd.Error, toMillis(cmd.CreatedAt))
	return err
}

func (s *Store) RecentCommands(ctx context.Context, limit int) ([]*storage.CommandRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, detail, error, created_at FROM commands
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cmds []*storage.CommandRecord
	for rows.Next() {
		var cmd storage.CommandRecord
		var ms int64
		if err := rows.Scan(&cmd.ID, &cmd.Kind, &cmd.Detail, &cmd.Error, &ms); err != nil {
			return nil, err
		}
		cmd.CreatedAt = fromMillis(ms)
		cmds = append(cmds, &cmd)
	}
	return cmds, rows.Err()
}

// Config methods

func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", storage.ErrNotFound{Resource: "config", ID: key}
	}
	return value, err
}

func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO config (key, value, updated_at)
		VALUES (?, ?, ?)
	`, key, value, time.Now())
	return err
}

func (s *Store) DeleteConfig(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM config WHERE key = ?", key)
	return err
}

// Verify interface compliance
var _ storage.Store = (*Store)(nil)
