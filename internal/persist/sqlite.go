package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/l1jgo/worldnav/internal/record"
)

// SQLiteRecordRepo stores world records in a local SQLite file. It is the
// default store; PostgreSQL is for shared deployments.
type SQLiteRecordRepo struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRecordRepo, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}
	if err := migrate(ctx, db, "sqlite3", "migrations/sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteRecordRepo{db: db}, nil
}

func (r *SQLiteRecordRepo) Save(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e.Record)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", e.Name, err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO world_records (name, tick, body, saved_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE
		 SET tick = excluded.tick, body = excluded.body, saved_at = excluded.saved_at`,
		e.Name, int64(e.Tick), string(data), now,
	); err != nil {
		return fmt.Errorf("record upsert: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO world_record_history (name, tick, tasks, saved_at) VALUES (?, ?, ?, ?)`,
		e.Name, int64(e.Tick), e.Tasks, now,
	); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return tx.Commit()
}

func (r *SQLiteRecordRepo) Load(ctx context.Context, name string) (Entry, error) {
	var (
		raw   string
		tick  int64
		saved string
		e     = Entry{Name: name}
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT tick, body, saved_at FROM world_records WHERE name = ?`, name,
	).Scan(&tick, &raw, &saved)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, err
	}

	e.Tick = uint64(tick)
	e.SavedAt, _ = time.Parse(time.RFC3339Nano, saved)
	e.Record = record.New()
	if err := json.Unmarshal([]byte(raw), e.Record); err != nil {
		return e, fmt.Errorf("decode record %s: %w", name, err)
	}
	return e, nil
}

// History returns the most recent saves of name, newest first.
func (r *SQLiteRecordRepo) History(ctx context.Context, name string, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tick, tasks, saved_at FROM world_record_history
		 WHERE name = ? ORDER BY id DESC LIMIT ?`,
		name, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			tick  int64
			saved string
			e     = Entry{Name: name}
		)
		if err := rows.Scan(&tick, &e.Tasks, &saved); err != nil {
			return nil, err
		}
		e.Tick = uint64(tick)
		e.SavedAt, _ = time.Parse(time.RFC3339Nano, saved)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecordRepo) Close() error {
	return r.db.Close()
}
