// Package database stores the operation ledger in SQLite.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"shard-go/internal/database/migrations"
	"shard-go/internal/shard"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const timeLayout = time.RFC3339Nano

// SQLiteLedger implements shard.Ledger on a SQLite database.
type SQLiteLedger struct {
	db    *sql.DB
	path  string
	clock shard.Clock
	idgen shard.IDGenerator
}

var _ shard.Ledger = (*SQLiteLedger)(nil)

// NewSQLiteLedger opens the database at path, which can be a file path or
// ":memory:". The schema is not migrated; see migrations.MigrateUp.
// Nil clock and idgen select the real clock and random UUIDs.
func NewSQLiteLedger(path string, clock shard.Clock, idgen shard.IDGenerator) (*SQLiteLedger, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	l := NewSQLiteLedgerFromDB(db, clock, idgen)
	l.path = path
	return l, nil
}

// NewSQLiteLedgerFromDB wraps an existing connection.
func NewSQLiteLedgerFromDB(db *sql.DB, clock shard.Clock, idgen shard.IDGenerator) *SQLiteLedger {
	if clock == nil {
		clock = shard.RealClock{}
	}
	if idgen == nil {
		idgen = shard.UUIDGenerator{}
	}
	return &SQLiteLedger{db: db, clock: clock, idgen: idgen}
}

// OpenConnection opens and configures a SQLite connection.
// An in-memory database lives only as long as its connection, so the pool is
// pinned to one connection in that case.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

func (s *SQLiteLedger) StartOperation(kind, shareSet string, params shard.OperationParams) (*shard.Operation, error) {
	op := &shard.Operation{
		OperationID: s.idgen.New(),
		Kind:        kind,
		ShareSet:    shareSet,
		Shares:      params.Shares,
		Threshold:   params.Threshold,
		Status:      shard.StatusRunning,
		StartedAt:   s.clock.Now(),
	}

	res, err := s.db.Exec(
		`INSERT INTO operations (operation_id, kind, share_set, shares, threshold, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		op.OperationID, op.Kind, op.ShareSet, op.Shares, op.Threshold, op.Status,
		op.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating operation: %w", err)
	}
	op.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading operation id: %w", err)
	}
	return op, nil
}

func (s *SQLiteLedger) FinishOperation(id int64, status, errMsg string, params shard.OperationParams) error {
	res, err := s.db.Exec(
		`UPDATE operations SET status = ?, error = ?, shares = ?, threshold = ?, finished_at = ? WHERE id = ?`,
		status, errMsg, params.Shares, params.Threshold, s.clock.Now().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("operation %d: %w", id, shard.ErrNotFound)
	}
	return nil
}

// ListOperations returns up to limit operations, newest first. A limit of
// zero or less returns all of them.
func (s *SQLiteLedger) ListOperations(limit int) ([]*shard.Operation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(
		`SELECT id, operation_id, kind, share_set, shares, threshold, status, error, started_at, finished_at
		 FROM operations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*shard.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

func scanOperation(rows *sql.Rows) (*shard.Operation, error) {
	var (
		op       shard.Operation
		started  string
		finished sql.NullString
	)
	if err := rows.Scan(&op.ID, &op.OperationID, &op.Kind, &op.ShareSet, &op.Shares,
		&op.Threshold, &op.Status, &op.Error, &started, &finished); err != nil {
		return nil, fmt.Errorf("scanning operation: %w", err)
	}

	t, err := time.Parse(timeLayout, started)
	if err != nil {
		return nil, fmt.Errorf("operation %d: bad started_at: %w", op.ID, err)
	}
	op.StartedAt = t

	if finished.Valid {
		t, err := time.Parse(timeLayout, finished.String)
		if err != nil {
			return nil, fmt.Errorf("operation %d: bad finished_at: %w", op.ID, err)
		}
		op.FinishedAt = &t
	}
	return &op, nil
}

// Path returns the database file path, or ":memory:".
func (s *SQLiteLedger) Path() string {
	return s.path
}

// CheckMigrations verifies the schema is up to date.
func (s *SQLiteLedger) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate applies pending schema migrations.
func (s *SQLiteLedger) Migrate() error {
	return migrations.MigrateUp(s.db)
}

func (s *SQLiteLedger) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
