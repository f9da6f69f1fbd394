// Package match finds the reference-database line describing the same
// normalized variant as a query, using a position-indexed database.
package match

import (
	"io"
	"sort"
	"strings"
)

// Index is a handle on a position-sorted, position-indexed reference
// database. Handles are not safe for concurrent queries; every concurrent
// task opens its own.
type Index interface {
	// Query returns the raw lines overlapping the 1-based inclusive window
	// [start, end] on contig. Unknown contigs return an error.
	Query(contig string, start, end int64) (Lines, error)
	Close() error
}

// Lines is a lazy sequence of raw database lines.
type Lines interface {
	// Next returns the next line, or io.EOF when the sequence is exhausted.
	Next() (string, error)
	Close() error
}

// Opener opens an independent Index handle on the database at path.
type Opener func(path string) (Index, error)

// SliceLines serves lines from memory.
type SliceLines struct {
	lines []string
	next  int
}

// NewSliceLines returns a Lines over the given lines.
func NewSliceLines(lines []string) *SliceLines {
	return &SliceLines{lines: lines}
}

func (s *SliceLines) Next() (string, error) {
	if s.next >= len(s.lines) {
		return "", io.EOF
	}
	line := s.lines[s.next]
	s.next++
	return line, nil
}

func (s *SliceLines) Close() error { return nil }

// MemIndex is an in-memory Index over raw lines grouped by contig. It is
// used for small reference sets and in tests.
type MemIndex struct {
	layout Layout
	lines  map[string][]memLine
}

type memLine struct {
	pos, end int64
	text     string
}

// NewMemIndex builds an in-memory index. Lines that cannot be parsed with
// the layout are dropped.
func NewMemIndex(layout Layout, lines []string) *MemIndex {
	m := &MemIndex{layout: layout, lines: make(map[string][]memLine)}
	for _, line := range lines {
		rec, err := layout.Parse(line)
		if err != nil {
			continue
		}
		m.lines[rec.Chrom] = append(m.lines[rec.Chrom], memLine{pos: rec.Pos, end: rec.End(), text: line})
	}
	for _, ls := range m.lines {
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].pos < ls[j].pos })
	}
	return m
}

// Query returns the lines overlapping [start, end] on contig.
func (m *MemIndex) Query(contig string, start, end int64) (Lines, error) {
	ls, ok := m.lines[contig]
	if !ok {
		ls, ok = m.lines[alternateName(contig)]
	}
	if !ok {
		return nil, &UnknownContigError{Contig: contig}
	}
	var out []string
	for _, l := range ls {
		if l.pos > end {
			break
		}
		if l.end >= start {
			out = append(out, l.text)
		}
	}
	return NewSliceLines(out), nil
}

func (m *MemIndex) Close() error { return nil }

// UnknownContigError is returned by indexes that do not cover a contig.
type UnknownContigError struct {
	Contig string
}

func (e *UnknownContigError) Error() string {
	return "unknown contig " + e.Contig
}

// alternateName toggles the "chr" prefix of a contig name.
func alternateName(contig string) string {
	if strings.HasPrefix(contig, "chr") {
		return contig[3:]
	}
	return "chr" + contig
}

// ResolveContig returns the name under which contig is known to an index,
// trying the name as given and then with the "chr" prefix toggled.
func ResolveContig(contig string, known func(string) bool) (string, bool) {
	if known(contig) {
		return contig, true
	}
	if alt := alternateName(contig); known(alt) {
		return alt, true
	}
	return "", false
}
