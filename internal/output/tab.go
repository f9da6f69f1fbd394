// Package output writes annotated variant pools and inheritance hits.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-trio/internal/variant"
)

// Missing marks an absent value in tab-delimited output.
const Missing = "-"

// PoolWriter writes variants in tab-delimited format: fixed columns, then
// one column per property and per annotation field.
type PoolWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewPoolWriter creates a new tab-delimited writer.
func NewPoolWriter(w io.Writer) *PoolWriter {
	columns := []string{
		"#Chrom",
		"Pos",
		"End",
		"ID",
		"Ref",
		"Alt",
		"Qual",
		"Zygosity",
	}
	for _, p := range variant.AllProperties() {
		columns = append(columns, p.String())
	}
	for _, f := range variant.AllFields() {
		columns = append(columns, f.String())
	}
	return &PoolWriter{w: bufio.NewWriter(w), columns: columns}
}

// WriteHeader writes the header line.
func (pw *PoolWriter) WriteHeader() error {
	_, err := pw.w.WriteString(strings.Join(pw.columns, "\t") + "\n")
	return err
}

// Write writes a single variant.
func (pw *PoolWriter) Write(v *variant.Variant) error {
	_, err := pw.w.WriteString(strings.Join(row(v), "\t") + "\n")
	return err
}

// WritePool writes the header and every variant of the pool in pool order.
func (pw *PoolWriter) WritePool(pool *variant.Pool) error {
	if err := pw.WriteHeader(); err != nil {
		return err
	}
	for _, v := range pool.All() {
		if err := pw.Write(v); err != nil {
			return err
		}
	}
	return pw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (pw *PoolWriter) Flush() error {
	return pw.w.Flush()
}

func row(v *variant.Variant) []string {
	qual := Missing
	if v.Qual != variant.UnknownQual {
		qual = formatFloat(v.Qual)
	}
	values := []string{
		v.Chrom,
		strconv.FormatInt(v.Pos, 10),
		strconv.FormatInt(v.End, 10),
		orMissing(v.ID),
		v.Ref,
		v.Alt,
		qual,
		v.Zygosity.String(),
	}
	for _, p := range variant.AllProperties() {
		if val, ok := v.Property(p); ok {
			values = append(values, formatFloat(val))
		} else {
			values = append(values, Missing)
		}
	}
	for _, f := range variant.AllFields() {
		val, _ := v.Annotation(f)
		values = append(values, orMissing(val))
	}
	return values
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func orMissing(s string) string {
	if s == "" || s == "." {
		return Missing
	}
	return s
}
