// Package store implements the durable graph store (spec §4.5): a
// two-table SQLite schema behind two interchangeable back-ends — a
// native, file-backed driver for server/CLI use, and an in-memory
// driver with an explicit flush for sandboxed hosts — sharing one
// upsert/transactional write path and one prepared-statement read
// path.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"

	"codemap/internal/apperr"
	"codemap/internal/graph"
)

// Backend distinguishes the two interchangeable back-ends.
type Backend int

const (
	// Native is a disk-backed back-end: writes hit disk immediately
	// and batch inserts are wrapped in a mandatory transaction.
	Native Backend = iota
	// Memory mirrors state in RAM; writes use the same transaction as
	// Native, and Save must be called to flush to disk.
	Memory
)

// Store is a durable graph store backed by SQLite via
// github.com/mattn/go-sqlite3, in either back-end configuration.
type Store struct {
	db      *sql.DB
	backend Backend
	dirty   bool
}

// OpenNative opens (creating if necessary) a file-backed store at path.
func OpenNative(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open native store: %v", apperr.ErrStoreWrite, err)
	}
	return &Store{db: db, backend: Native}, nil
}

// OpenMemory opens an in-memory store. Its contents are lost unless
// Save is called before Close.
func OpenMemory() (*Store, error) {
	// A named, shared-cache in-memory DB so multiple connections in the
	// pool see the same data; database/sql otherwise hands out a fresh
	// empty :memory: database per connection.
	db, err := sql.Open("sqlite3", "file::codemap-mem:?mode=memory&cache=shared")
	if err != nil {
		return nil, fmt.Errorf("%w: open memory store: %v", apperr.ErrStoreWrite, err)
	}
	db.SetMaxOpenConns(1) // shared-cache memory DBs are happiest single-connection
	// Create the tables if the shared database has none yet, so reads
	// before the first SaveGraph see an empty graph, not a missing table.
	var tables int
	if err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'nodes'`).Scan(&tables); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: inspect memory store: %v", apperr.ErrStoreWrite, err)
	}
	if tables == 0 {
		if _, err := db.Exec(schemaDDL); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: create memory schema: %v", apperr.ErrStoreWrite, err)
		}
	}
	return &Store{db: db, backend: Memory}, nil
}

// Close releases the store's connections and prepared statements.
func (s *Store) Close() error {
	return s.db.Close()
}

// ResetSchema drops and recreates the nodes/edges tables and their
// indices. Only the write path calls this; the read path never does
// (spec §4.5, "Read workflow").
func (s *Store) ResetSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, dropDDL); err != nil {
		return fmt.Errorf("%w: drop schema: %v", apperr.ErrStoreWrite, err)
	}
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("%w: create schema: %v", apperr.ErrStoreWrite, err)
	}
	if s.backend == Memory {
		s.dirty = true
	}
	return nil
}

// SaveGraph runs the full write workflow (spec §4.5): reset schema,
// upsert every node, upsert every edge, commit. The upserts run inside
// one transaction on both back-ends and are rolled back on failure.
func (s *Store) SaveGraph(ctx context.Context, g *graph.Graph) error {
	if err := s.ResetSchema(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", apperr.ErrStoreWrite, err)
	}
	rollback := func(cause error) error {
		_ = tx.Rollback()
		if s.backend == Memory {
			s.dirty = true
		}
		return cause
	}

	nodeStmt, err := tx.PrepareContext(ctx, `INSERT INTO nodes (id, type, label, meta) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET type=excluded.type, label=excluded.label, meta=excluded.meta`)
	if err != nil {
		return rollback(fmt.Errorf("%w: prepare node upsert: %v", apperr.ErrStoreWrite, err))
	}
	defer nodeStmt.Close()

	for _, n := range g.NodeList() {
		metaJSON, err := json.Marshal(n.Meta)
		if err != nil {
			return rollback(fmt.Errorf("%w: marshal node meta %s: %v", apperr.ErrStoreWrite, n.ID, err))
		}
		if _, err := nodeStmt.ExecContext(ctx, n.ID, string(n.Kind), n.Label, string(metaJSON)); err != nil {
			return rollback(fmt.Errorf("%w: upsert node %s: %v", apperr.ErrStoreWrite, n.ID, err))
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `INSERT INTO edges (from_id, to_id, type, meta) VALUES (?, ?, ?, ?)
		ON CONFLICT(from_id, to_id, type) DO UPDATE SET meta=excluded.meta`)
	if err != nil {
		return rollback(fmt.Errorf("%w: prepare edge upsert: %v", apperr.ErrStoreWrite, err))
	}
	defer edgeStmt.Close()

	for _, e := range g.EdgeList() {
		metaJSON, err := json.Marshal(e.Meta)
		if err != nil {
			return rollback(fmt.Errorf("%w: marshal edge meta %s->%s: %v", apperr.ErrStoreWrite, e.From, e.To, err))
		}
		if _, err := edgeStmt.ExecContext(ctx, e.From, e.To, string(e.Kind), string(metaJSON)); err != nil {
			return rollback(fmt.Errorf("%w: upsert edge %s->%s: %v", apperr.ErrStoreWrite, e.From, e.To, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return rollback(fmt.Errorf("%w: commit: %v", apperr.ErrStoreWrite, err))
	}
	if s.backend == Memory {
		s.dirty = true
	}
	return nil
}

// Dirty reports whether the in-memory back-end has unflushed writes.
// Meaningless (always false) on the native back-end, which is durable
// on every commit.
func (s *Store) Dirty() bool {
	return s.backend == Memory && s.dirty
}

// Save flushes an in-memory store's contents to a native SQLite file
// at destPath using SQLite's own online-backup API (exposed by
// github.com/mattn/go-sqlite3 as (*SQLiteConn).Backup), so the bytes
// written are the same on-disk format the native back-end itself
// produces (spec §6.1, "binary-compatible in-memory snapshot"). A
// no-op on the native back-end, which is already durable.
func (s *Store) Save(ctx context.Context, destPath string) error {
	if s.backend == Native {
		return nil
	}

	destDB, err := sql.Open("sqlite3", destPath)
	if err != nil {
		return fmt.Errorf("%w: open flush target %s: %v", apperr.ErrStoreWrite, destPath, err)
	}
	defer destDB.Close()

	srcConn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquire source conn: %v", apperr.ErrStoreWrite, err)
	}
	defer srcConn.Close()

	destConn, err := destDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquire dest conn: %v", apperr.ErrStoreWrite, err)
	}
	defer destConn.Close()

	backupErr := destConn.Raw(func(destRaw any) error {
		return srcConn.Raw(func(srcRaw any) error {
			destSQLite, ok := destRaw.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("unexpected dest driver connection type %T", destRaw)
			}
			srcSQLite, ok := srcRaw.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("unexpected source driver connection type %T", srcRaw)
			}
			backup, err := destSQLite.Backup("main", srcSQLite, "main")
			if err != nil {
				return err
			}
			defer backup.Close()
			if _, err := backup.Step(-1); err != nil {
				return err
			}
			return nil
		})
	})
	if backupErr != nil {
		return fmt.Errorf("%w: backup to %s: %v", apperr.ErrStoreWrite, destPath, backupErr)
	}
	s.dirty = false
	return nil
}
