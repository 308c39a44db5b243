package sheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS regions (
	name         TEXT PRIMARY KEY,
	row_capacity INTEGER NOT NULL,
	col_capacity INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS region_rows (
	region TEXT    NOT NULL,
	pos    INTEGER NOT NULL,
	cells  TEXT    NOT NULL,
	PRIMARY KEY (region, pos)
);
`

// SQLiteStore is a local Store backend for running without Google Sheets
// credentials. Regions map to row sets keyed by position; cells are kept
// as a JSON array per row. The medium has no visual formatting, so the
// cosmetic operations are accepted and do nothing.
type SQLiteStore struct {
	conn *sql.DB

	// Serializes writes; SQLite supports a single writer at a time
	writeMu sync.Mutex
}

// OpenSQLite opens (and if needed initializes) the local store
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path + "?_journal=WAL&_busy_timeout=5000"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{conn: conn}, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

// ReadRegion implements Store
func (s *SQLiteStore) ReadRegion(ctx context.Context, name string) ([]Row, error) {
	if err := s.requireRegion(ctx, name); err != nil {
		return nil, err
	}

	result, err := s.conn.QueryContext(ctx,
		"SELECT cells FROM region_rows WHERE region = ? ORDER BY pos", name)
	if err != nil {
		return nil, fmt.Errorf("failed to read region %s: %w", name, err)
	}
	defer result.Close()

	var rows []Row
	for result.Next() {
		var cells string
		if err := result.Scan(&cells); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var row Row
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return nil, fmt.Errorf("corrupt row in region %s: %w", name, err)
		}
		rows = append(rows, row)
	}
	return rows, result.Err()
}

// ClearRegion implements Store
func (s *SQLiteStore) ClearRegion(ctx context.Context, name string) error {
	if err := s.requireRegion(ctx, name); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM region_rows WHERE region = ?", name); err != nil {
		return fmt.Errorf("failed to clear region %s: %w", name, err)
	}
	return nil
}

// WriteRegion implements Store
func (s *SQLiteStore) WriteRegion(ctx context.Context, name string, rows []Row, startRow int) error {
	if err := s.requireRegion(ctx, name); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, row := range rows {
		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO region_rows (region, pos, cells) VALUES (?, ?, ?)",
			name, startRow+i, string(cells))
		if err != nil {
			return fmt.Errorf("failed to write row %d: %w", startRow+i, err)
		}
	}

	return tx.Commit()
}

// EnsureRegionExists implements Store
func (s *SQLiteStore) EnsureRegionExists(ctx context.Context, name string, rowCapacity, colCapacity int) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.conn.ExecContext(ctx,
		"INSERT OR IGNORE INTO regions (name, row_capacity, col_capacity) VALUES (?, ?, ?)",
		name, rowCapacity, colCapacity)
	if err != nil {
		return fmt.Errorf("failed to create region %s: %w", name, err)
	}
	return nil
}

// CopyFormatting implements Store; SQLite rows carry no formatting
func (s *SQLiteStore) CopyFormatting(ctx context.Context, src, dst string, extent Extent) error {
	return nil
}

// SetCellStyle implements Store; SQLite rows carry no formatting
func (s *SQLiteStore) SetCellStyle(ctx context.Context, name string, extent Extent, style Style) error {
	return nil
}

// Upsert implements Store. The whole merge runs in one transaction, so a
// partial write never becomes visible.
func (s *SQLiteStore) Upsert(ctx context.Context, name string, rows []LogRow) (UpsertResult, error) {
	if err := s.requireRegion(ctx, name); err != nil {
		return UpsertResult{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	existing, err := tx.QueryContext(ctx,
		"SELECT pos, cells FROM region_rows WHERE region = ? ORDER BY pos", name)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("failed to read region %s: %w", name, err)
	}

	index := make(map[string]int)
	nextPos := 0
	for existing.Next() {
		var pos int
		var cells string
		if err := existing.Scan(&pos, &cells); err != nil {
			existing.Close()
			return UpsertResult{}, fmt.Errorf("failed to scan row: %w", err)
		}
		var row Row
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			existing.Close()
			return UpsertResult{}, fmt.Errorf("corrupt row in region %s: %w", name, err)
		}
		index[ParseLogRow(row).Key()] = pos
		if pos >= nextPos {
			nextPos = pos + 1
		}
	}
	if err := existing.Err(); err != nil {
		existing.Close()
		return UpsertResult{}, err
	}
	existing.Close()

	var result UpsertResult
	for _, row := range rows {
		cells, err := json.Marshal(row.Values())
		if err != nil {
			return UpsertResult{}, fmt.Errorf("failed to encode row: %w", err)
		}

		pos, ok := index[row.Key()]
		if !ok {
			pos = nextPos
			nextPos++
			index[row.Key()] = pos
			result.New++
		} else {
			result.Updated++
		}
		result.TotalProcessed++

		_, err = tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO region_rows (region, pos, cells) VALUES (?, ?, ?)",
			name, pos, string(cells))
		if err != nil {
			return UpsertResult{}, fmt.Errorf("failed to upsert row %s: %w", row.Vehicle, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return UpsertResult{}, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return result, nil
}

// requireRegion mirrors the Sheets backend, where operations on a missing
// sheet fail.
func (s *SQLiteStore) requireRegion(ctx context.Context, name string) error {
	var n int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM regions WHERE name = ?", name).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to look up region %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("region %q does not exist", name)
	}
	return nil
}
