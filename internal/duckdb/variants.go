package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-trio/internal/variant"
)

// WriteVariants batch-inserts the pool into the variants table using the
// Appender API. Records sharing a normalized key are written once. Unset
// properties and annotations are stored as NULL.
func (s *Store) WriteVariants(pool *variant.Pool) (int, error) {
	if pool.Len() == 0 {
		return 0, nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return 0, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	appender, err := newAppender(conn, "variants")
	if err != nil {
		return 0, err
	}
	defer appender.Close()

	seen := make(map[variant.Key]bool, pool.Len())
	written := 0
	for _, v := range pool.All() {
		k := v.Key()
		if seen[k] {
			continue
		}
		seen[k] = true

		row := []driver.Value{v.Chrom, v.Pos, v.End, v.Ref, v.Alt, v.Qual, v.Zygosity.String()}
		for _, p := range variant.AllProperties() {
			if val, ok := v.Property(p); ok {
				row = append(row, val)
			} else {
				row = append(row, nil)
			}
		}
		for _, f := range variant.AllFields() {
			if val, ok := v.Annotation(f); ok {
				row = append(row, val)
			} else {
				row = append(row, nil)
			}
		}
		if err := appender.AppendRow(row...); err != nil {
			return written, fmt.Errorf("append variant %s: %w", v, err)
		}
		written++
	}

	if err := appender.Flush(); err != nil {
		return written, fmt.Errorf("flush variants: %w", err)
	}
	return written, nil
}

func newAppender(conn *sql.Conn, table string) (*goduckdb.Appender, error) {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return nil, fmt.Errorf("create appender for %s: %w", table, err)
	}
	return appender, nil
}

// ClearVariants removes all stored variants.
func (s *Store) ClearVariants() error {
	_, err := s.db.Exec("DELETE FROM variants")
	return err
}

// CountVariants returns the number of stored variants.
func (s *Store) CountVariants() (int64, error) {
	var n int64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM variants").Scan(&n); err != nil {
		return 0, fmt.Errorf("count variants: %w", err)
	}
	return n, nil
}

const variantColumns = `chrom, pos, end_pos, ref, alt, qual, zygosity,
	pop_freq, pop_allele_count, pop_allele_number, clin_pathogenic, conservation, relevance,
	gene, consequence, clin_sig, clin_disease, database_id, region_flag`

// LookupVariant reads back a stored variant, or nil if none was written
// with these exact coordinates.
func (s *Store) LookupVariant(chrom string, pos int64, ref, alt string) (*variant.Variant, error) {
	rows, err := s.db.Query(`SELECT `+variantColumns+`
		FROM variants
		WHERE chrom=? AND pos=? AND ref=? AND alt=?`,
		chrom, pos, ref, alt)
	if err != nil {
		return nil, fmt.Errorf("query variant: %w", err)
	}
	defer rows.Close()

	vs, err := scanVariants(rows)
	if err != nil || len(vs) == 0 {
		return nil, err
	}
	return vs[0], nil
}

// VariantsByGene returns the stored variants annotated with gene.
func (s *Store) VariantsByGene(gene string) ([]*variant.Variant, error) {
	rows, err := s.db.Query(`SELECT `+variantColumns+`
		FROM variants
		WHERE gene=?
		ORDER BY chrom, pos`, gene)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	defer rows.Close()

	return scanVariants(rows)
}

// scanVariants scans rows selected with variantColumns.
func scanVariants(rows *sql.Rows) ([]*variant.Variant, error) {
	var out []*variant.Variant
	for rows.Next() {
		v := &variant.Variant{}
		var zyg string
		props := make([]sql.NullFloat64, len(variant.AllProperties()))
		anns := make([]sql.NullString, len(variant.AllFields()))

		dest := []any{&v.Chrom, &v.Pos, &v.End, &v.Ref, &v.Alt, &v.Qual, &zyg}
		for i := range props {
			dest = append(dest, &props[i])
		}
		for i := range anns {
			dest = append(dest, &anns[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}

		v.Zygosity = variant.ParseZygosity(zyg)
		for i, p := range variant.AllProperties() {
			if props[i].Valid {
				v.SetProperty(p, props[i].Float64)
			}
		}
		for i, f := range variant.AllFields() {
			if anns[i].Valid {
				v.SetAnnotation(f, anns[i].String)
			}
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return out, nil
}
