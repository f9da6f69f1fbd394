package duckdb

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/inodb/vibe-trio/internal/match"
)

var tableNameRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reserved tables cannot be used as reference table names.
var reserved = map[string]bool{"variants": true, "reference_tables": true}

func checkTableName(name string) error {
	if !tableNameRE.MatchString(name) || reserved[strings.ToLower(name)] {
		return fmt.Errorf("invalid reference table name %q", name)
	}
	return nil
}

// LoadResult reports the outcome of LoadTable.
type LoadResult struct {
	Rows    int64
	Skipped int64
}

// RefTable describes a loaded reference table.
type RefTable struct {
	Name   string
	Source FileFingerprint
	Rows   int64
}

// LoadTable replaces table with the records of a tab-separated database
// file (plain or gzipped). Each record is stored verbatim with its span so
// that the table can serve match queries. Comment lines are skipped, and
// lines the layout cannot parse are skipped and counted.
func (s *Store) LoadTable(table, path string, layout match.Layout) (LoadResult, error) {
	if err := checkTableName(table); err != nil {
		return LoadResult{}, err
	}
	fp, err := StatFile(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("open reference file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return LoadResult{}, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	if _, err := s.db.Exec(fmt.Sprintf(`CREATE OR REPLACE TABLE %s (
		chrom VARCHAR,
		pos BIGINT,
		end_pos BIGINT,
		line VARCHAR
	)`, table)); err != nil {
		return LoadResult{}, fmt.Errorf("create table %s: %w", table, err)
	}

	res, err := s.appendLines(table, r, layout)
	if err != nil {
		return res, err
	}

	// Index for window lookups
	if _, err := s.db.Exec(fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_pos ON %s (chrom, pos)`, table, table)); err != nil {
		return res, fmt.Errorf("index %s: %w", table, err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO reference_tables VALUES (?, ?, ?, ?, ?, ?)`,
		table, fp.Path, fp.Size, fp.ModTime, res.Rows, res.Skipped); err != nil {
		return res, fmt.Errorf("record reference table: %w", err)
	}
	return res, nil
}

func (s *Store) appendLines(table string, r io.Reader, layout match.Layout) (LoadResult, error) {
	var res LoadResult

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return res, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	appender, err := newAppender(conn, table)
	if err != nil {
		return res, err
	}
	defer appender.Close()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || line[0] == '#' {
			continue
		}
		rec, err := layout.Parse(line)
		if err != nil {
			res.Skipped++
			continue
		}
		if err := appender.AppendRow(rec.Chrom, rec.Pos, rec.End(), line); err != nil {
			return res, fmt.Errorf("append to %s: %w", table, err)
		}
		res.Rows++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("read reference file: %w", err)
	}
	if err := appender.Flush(); err != nil {
		return res, fmt.Errorf("flush %s: %w", table, err)
	}
	return res, nil
}

// Tables lists the loaded reference tables.
func (s *Store) Tables() ([]RefTable, error) {
	rows, err := s.db.Query(`SELECT name, path, size, mod_time, row_count
		FROM reference_tables ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query reference tables: %w", err)
	}
	defer rows.Close()

	var out []RefTable
	for rows.Next() {
		var t RefTable
		if err := rows.Scan(&t.Name, &t.Source.Path, &t.Source.Size, &t.Source.ModTime, &t.Rows); err != nil {
			return nil, fmt.Errorf("scan reference table: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stale reports whether the file a table was loaded from changed on disk
// since loading. Tables that were never loaded are stale.
func (s *Store) Stale(table string) (bool, error) {
	var t RefTable
	err := s.db.QueryRow(`SELECT path, size, mod_time FROM reference_tables WHERE name=?`, table).
		Scan(&t.Source.Path, &t.Source.Size, &t.Source.ModTime)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("query reference table %s: %w", table, err)
	}
	cur, err := StatFile(t.Source.Path)
	if err != nil {
		return true, nil
	}
	return !cur.Matches(t.Source), nil
}

// Opener returns a match.Opener over a loaded reference table. The path
// handed to the opener is ignored. Every handle owns a dedicated connection
// and prepared statement.
func (s *Store) Opener(table string) match.Opener {
	return func(string) (match.Index, error) {
		return s.openTable(table)
	}
}

type tableIndex struct {
	table   string
	conn    *sql.Conn
	stmt    *sql.Stmt
	contigs map[string]bool
}

func (s *Store) openTable(table string) (*tableIndex, error) {
	if err := checkTableName(table); err != nil {
		return nil, err
	}
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}

	contigs, err := distinctContigs(ctx, conn, table)
	if err != nil {
		conn.Close()
		return nil, err
	}

	stmt, err := conn.PrepareContext(ctx, fmt.Sprintf(
		`SELECT line FROM %s WHERE chrom=? AND pos<=? AND end_pos>=? ORDER BY pos`, table))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("prepare lookup on %s: %w", table, err)
	}
	return &tableIndex{table: table, conn: conn, stmt: stmt, contigs: contigs}, nil
}

func distinctContigs(ctx context.Context, conn *sql.Conn, table string) (map[string]bool, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`SELECT DISTINCT chrom FROM %s`, table))
	if err != nil {
		return nil, fmt.Errorf("list contigs of %s: %w", table, err)
	}
	defer rows.Close()

	contigs := make(map[string]bool)
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan contig: %w", err)
		}
		contigs[c] = true
	}
	return contigs, rows.Err()
}

// Query returns the lines whose span overlaps the 1-based inclusive window.
func (t *tableIndex) Query(contig string, start, end int64) (match.Lines, error) {
	name, ok := match.ResolveContig(contig, func(c string) bool { return t.contigs[c] })
	if !ok {
		return nil, &match.UnknownContigError{Contig: contig}
	}

	rows, err := t.stmt.Query(name, end, start)
	if err != nil {
		return nil, fmt.Errorf("query %s %s:%d-%d: %w", t.table, contig, start, end, err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", t.table, err)
	}
	return match.NewSliceLines(lines), nil
}

func (t *tableIndex) Close() error {
	err := t.stmt.Close()
	if cerr := t.conn.Close(); err == nil {
		err = cerr
	}
	return err
}
