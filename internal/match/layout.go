package match

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inodb/vibe-trio/internal/variant"
)

// Layout gives the 0-based column indices of the fields the matcher needs.
type Layout struct {
	Chrom int
	Pos   int
	Ref   int
	Alt   int
}

var (
	// VCFLayout reads CHROM, POS, REF, ALT of a VCF-style line.
	VCFLayout = Layout{Chrom: 0, Pos: 1, Ref: 3, Alt: 4}
	// TSVLayout reads chrom, pos, ref, alt as the first four columns.
	TSVLayout = Layout{Chrom: 0, Pos: 1, Ref: 2, Alt: 3}
)

// LayoutByName returns a predefined layout ("vcf" or "tsv").
func LayoutByName(name string) (Layout, error) {
	switch strings.ToLower(name) {
	case "", "vcf":
		return VCFLayout, nil
	case "tsv":
		return TSVLayout, nil
	default:
		return Layout{}, fmt.Errorf("unknown layout %q (want vcf or tsv)", name)
	}
}

func (l Layout) width() int {
	return max(l.Chrom, l.Pos, l.Ref, l.Alt) + 1
}

// Record is the positional part of a database line.
type Record struct {
	Chrom  string
	Pos    int64
	Ref    string
	Alts   []string
	Fields []string
}

// End returns the last reference base covered by the record.
func (r Record) End() int64 {
	if r.Ref == variant.Gap || r.Ref == "" {
		return r.Pos
	}
	return r.Pos + int64(len(r.Ref)) - 1
}

// LineError describes a database line that cannot be used.
type LineError struct {
	Message string
}

func (e *LineError) Error() string {
	return "malformed database line: " + e.Message
}

// Parse splits a tab-separated line into its positional fields.
func (l Layout) Parse(line string) (Record, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < l.width() {
		return Record{}, &LineError{Message: fmt.Sprintf("expected at least %d columns, found %d", l.width(), len(fields))}
	}
	pos, err := strconv.ParseInt(fields[l.Pos], 10, 64)
	if err != nil || pos < 1 {
		return Record{}, &LineError{Message: fmt.Sprintf("invalid position: %s", fields[l.Pos])}
	}
	ref := fields[l.Ref]
	if ref == "" {
		return Record{}, &LineError{Message: "empty reference allele"}
	}
	return Record{
		Chrom:  fields[l.Chrom],
		Pos:    pos,
		Ref:    ref,
		Alts:   strings.Split(fields[l.Alt], ","),
		Fields: fields,
	}, nil
}

// Info returns the value of key in the INFO column (column 8) of a
// VCF-style record. Flags are reported present with an empty value.
func (r Record) Info(key string) (string, bool) {
	if len(r.Fields) < 8 {
		return "", false
	}
	for _, kv := range strings.Split(r.Fields[7], ";") {
		k, v, _ := strings.Cut(kv, "=")
		if k == key {
			return v, true
		}
	}
	return "", false
}

// AlleleValue picks the altIndex-th entry of a per-allele, comma-separated
// value. A single entry applies to every allele.
func AlleleValue(value string, altIndex int) (string, bool) {
	parts := strings.Split(value, ",")
	switch {
	case altIndex < len(parts):
		return parts[altIndex], true
	case len(parts) == 1:
		return parts[0], true
	}
	return "", false
}
