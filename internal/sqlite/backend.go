// Package sqlite implements the SQLite collection backend for notechain.
// SQLite serves as the query engine; JSONL files in DataDir are the source
// of truth and are reloaded into a fresh database on every Attach.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/notechain/pkg/types"
)

// dbFile is the name of the scratch database inside DataDir.
const dbFile = "notechain.db"

// Backend implements the Collection interface using SQLite as the query
// engine and JSONL files as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB

	// Open checkpoint state. Writes made while tx is set go through it and
	// record pre-images in undo_entries.
	tx    *sql.Tx
	open  *types.Checkpoint
	seq   int64
	dirty map[string]bool
}

var _ types.Collection = (*Backend)(nil)

// querier is the subset of *sql.DB and *sql.Tx the backend queries through.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, rebuilds the SQLite schema, and
// loads every JSONL file. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}

	// The database is a cache of the JSONL files; start from scratch.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	// Foreign keys are a per-connection setting; the DSN applies it to every
	// connection the pool opens.
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return err
	}
	// One connection: while a checkpoint is open every statement runs on its
	// transaction.
	db.SetMaxOpenConns(1)

	for _, ddl := range append(append([]string{}, schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	if err := initJSONLFiles(dataDir); err != nil {
		db.Close()
		return err
	}

	if err := loadAllJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.config.DataDir = dataDir
	b.tx = nil
	b.open = nil
	b.dirty = make(map[string]bool)
	b.attached = true
	return nil
}

// Detach releases all resources held by the backend. An open checkpoint is
// rolled back. After Detach, all operations return ErrCollectionDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.tx != nil {
		_ = b.tx.Rollback()
		b.tx = nil
		b.open = nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	return nil
}

// q returns the querier for the current write scope.
func (b *Backend) q() querier {
	if b.tx != nil {
		return b.tx
	}
	return b.db
}

// touch marks tables as modified. Outside a checkpoint the JSONL files are
// rewritten immediately; inside one they are rewritten on commit.
func (b *Backend) touch(tables ...string) error {
	if b.tx != nil {
		for _, t := range tables {
			b.dirty[t] = true
		}
		return nil
	}
	for _, t := range tables {
		if err := b.persistTable(t); err != nil {
			return err
		}
	}
	return nil
}

// persistTable rewrites the JSONL file backing a table from the database.
func (b *Backend) persistTable(table string) error {
	spec, ok := specByTable(table)
	if !ok {
		return fmt.Errorf("persist %s: unknown table", table)
	}
	records, err := spec.dump(b.q(), "")
	if err != nil {
		return fmt.Errorf("persist %s: %w", table, err)
	}
	return writeJSONL(filepath.Join(b.config.DataDir, spec.file), records)
}

// generateUUID generates a new UUID v7 for entity IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// timeLayout is a fixed-width RFC 3339 layout so stored timestamps sort
// lexically in creation order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// notFound converts sql.ErrNoRows into types.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	return err
}
