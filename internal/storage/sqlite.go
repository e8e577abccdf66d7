package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/OCharnyshevich/voxel-world/internal/world/chunk"
)

// SQLiteBackend stores records as blobs in a single SQLite table.
type SQLiteBackend struct {
	db    *sql.DB
	path  string
	codec *Codec
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, codec *Codec) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS chunk_modifications (
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			z INTEGER NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (x, y, z)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &SQLiteBackend{db: db, path: path, codec: codec}, nil
}

// Load returns the record for idx, or nil if no row exists.
func (s *SQLiteBackend) Load(ctx context.Context, idx chunk.Index) (*Record, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM chunk_modifications WHERE x = ? AND y = ? AND z = ?",
		idx.X, idx.Y, idx.Z,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query chunk %s: %w", idx, err)
	}
	rec, err := s.codec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode chunk %s: %w", idx, err)
	}
	return rec, nil
}

// Save upserts rec, or deletes the row when rec is empty.
func (s *SQLiteBackend) Save(ctx context.Context, rec *Record) error {
	if len(rec.BlockModifications) == 0 {
		return s.Delete(ctx, rec.Index())
	}
	data, err := s.codec.Marshal(rec)
	if err != nil {
		return err
	}
	idx := rec.Index()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chunk_modifications (x, y, z, data) VALUES (?, ?, ?, ?)
		ON CONFLICT(x, y, z) DO UPDATE SET data = excluded.data`,
		idx.X, idx.Y, idx.Z, data,
	)
	if err != nil {
		return fmt.Errorf("save chunk %s: %w", idx, err)
	}
	return nil
}

// Delete removes the row for idx.
func (s *SQLiteBackend) Delete(ctx context.Context, idx chunk.Index) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM chunk_modifications WHERE x = ? AND y = ? AND z = ?",
		idx.X, idx.Y, idx.Z,
	)
	if err != nil {
		return fmt.Errorf("delete chunk %s: %w", idx, err)
	}
	return nil
}

// Count returns the number of stored chunks.
func (s *SQLiteBackend) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunk_modifications").Scan(&n); err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

// Size returns the database page usage in bytes.
func (s *SQLiteBackend) Size(ctx context.Context) (int64, error) {
	var pages, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pages); err != nil {
		return 0, fmt.Errorf("page count: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("page size: %w", err)
	}
	return pages * pageSize, nil
}

// Close closes the database.
func (s *SQLiteBackend) Close() error {
	s.codec.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
