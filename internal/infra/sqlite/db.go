// Package sqlite provides SQLite-based snapshot storage for Exhale.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// FileName is the database file created inside the data directory.
const FileName = "state.db"

// DB wraps a SQLite connection with WAL mode and migrations.
// It implements domain.SnapshotStore.
type DB struct {
	db *sqlx.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode and a 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, errors.Wrap(err, "create data dir")
	}

	dsn := filepath.Join(dir, FileName) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			key        TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return errors.Wrapf(err, "exec %.40q", m)
		}
	}
	return nil
}

// ─── Snapshots ──────────────────────────────────────────────────────────────

type snapshotRow struct {
	Key       string `db:"key"`
	Data      []byte `db:"data"`
	UpdatedAt int64  `db:"updated_at"`
}

// Load returns the bytes stored under key, or nil when there are none.
func (d *DB) Load(key string) ([]byte, error) {
	query, args, err := squirrel.
		Select("key", "data", "updated_at").
		From("snapshots").
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build load query")
	}

	var row snapshotRow
	if err := d.db.Get(&row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "load snapshot %q", key)
	}
	return row.Data, nil
}

// Save replaces the bytes stored under key.
func (d *DB) Save(key string, data []byte) error {
	query, args, err := squirrel.
		Insert("snapshots").
		Columns("key", "data", "updated_at").
		Values(key, data, time.Now().Unix()).
		Suffix("ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build save query")
	}

	if _, err := d.db.Exec(query, args...); err != nil {
		return errors.Wrapf(err, "save snapshot %q", key)
	}
	return nil
}

// UpdatedAt returns when key was last written. ok is false when key is absent.
func (d *DB) UpdatedAt(key string) (t time.Time, ok bool, err error) {
	query, args, err := squirrel.
		Select("updated_at").
		From("snapshots").
		Where(squirrel.Eq{"key": key}).
		ToSql()
	if err != nil {
		return time.Time{}, false, errors.Wrap(err, "build updated_at query")
	}

	var unix int64
	if err := d.db.Get(&unix, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, errors.Wrapf(err, "read updated_at %q", key)
	}
	return time.Unix(unix, 0), true, nil
}
