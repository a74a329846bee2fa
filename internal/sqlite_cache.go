package internal

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const sqliteCacheSchemaVersion = 1

var _ CacheStore = (*SQLiteCache)(nil)

// SQLiteCache keeps one row per corpus position.
type SQLiteCache struct {
	db *sql.DB
}

func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	if err := migrateSQLiteCache(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteCache{db: db}, nil
}

func migrateSQLiteCache(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS embeddings (
		  position INTEGER PRIMARY KEY,
		  dim      INTEGER NOT NULL,
		  vector   BLOB NOT NULL
		);`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", sqliteCacheSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// Load returns the stored vectors in position order. Gaps in the position
// sequence are reported as corruption.
func (c *SQLiteCache) Load(ctx context.Context) ([][]float32, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT position, dim, vector FROM embeddings ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query cache: %w", err)
	}
	defer rows.Close()

	var vectors [][]float32
	for rows.Next() {
		var pos, dim int
		var blob []byte
		if err := rows.Scan(&pos, &dim, &blob); err != nil {
			return nil, fmt.Errorf("scan cache row: %w", err)
		}
		if pos != len(vectors) {
			return nil, fmt.Errorf("cache row %d out of sequence", pos)
		}
		vec, err := decodeVector(blob, dim)
		if err != nil {
			return nil, fmt.Errorf("cache row %d: %w", pos, err)
		}
		vectors = append(vectors, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	if len(vectors) == 0 {
		return nil, ErrCacheEmpty
	}
	return vectors, nil
}

// Save replaces every stored row in one transaction.
func (c *SQLiteCache) Save(ctx context.Context, vectors [][]float32) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cache transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM embeddings"); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO embeddings (position, dim, vector) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for i, vec := range vectors {
		if _, err := stmt.ExecContext(ctx, i, len(vec), encodeVector(vec)); err != nil {
			return fmt.Errorf("insert cache row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cache: %w", err)
	}
	return nil
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(blob []byte, dim int) ([]float32, error) {
	if len(blob) != 4*dim {
		return nil, fmt.Errorf("vector blob has %d bytes, want %d", len(blob), 4*dim)
	}
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec, nil
}
