// Package duckdb stores reference databases and annotated variants in DuckDB.
// Reference tables keep each database line verbatim next to its span, so
// they can stand in for a tabix index. Annotated pools are appended to a
// queryable result table.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// ensureSchema creates the bookkeeping and result tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS reference_tables (
		name VARCHAR PRIMARY KEY,
		path VARCHAR,
		size BIGINT,
		mod_time TIMESTAMP,
		row_count BIGINT,
		skipped BIGINT
	)`); err != nil {
		return err
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS variants (
		chrom VARCHAR,
		pos BIGINT,
		end_pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		qual DOUBLE,
		zygosity VARCHAR,
		pop_freq DOUBLE,
		pop_allele_count DOUBLE,
		pop_allele_number DOUBLE,
		clin_pathogenic DOUBLE,
		conservation DOUBLE,
		relevance DOUBLE,
		gene VARCHAR,
		consequence VARCHAR,
		clin_sig VARCHAR,
		clin_disease VARCHAR,
		database_id VARCHAR,
		region_flag VARCHAR,
		PRIMARY KEY (chrom, pos, end_pos, ref, alt)
	)`)
	return err
}
