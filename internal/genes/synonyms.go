// Package genes resolves gene symbols and assigns genes to variants by
// genomic position.
package genes

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Synonyms maps alias and previous symbols to approved (Hugo) symbols.
type Synonyms struct {
	approved map[string]bool
	aliases  map[string]string
}

// NewSynonyms creates an empty table; Resolve returns names unchanged.
func NewSynonyms() *Synonyms {
	return &Synonyms{approved: make(map[string]bool), aliases: make(map[string]string)}
}

// LoadSynonyms loads a synonym TSV (plain or gzipped). The header must have
// a "Hugo Symbol" column and a "Synonyms" (or "Gene Aliases") column holding
// a comma separated alias list.
func LoadSynonyms(path string) (*Synonyms, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open synonym table: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return ReadSynonyms(r)
}

// ReadSynonyms parses a synonym table from r.
func ReadSynonyms(r io.Reader) (*Synonyms, error) {
	scanner := bufio.NewScanner(r)

	// Read header to find column indices
	if !scanner.Scan() {
		return nil, fmt.Errorf("synonym table: empty file")
	}
	header := strings.Split(scanner.Text(), "\t")

	hugoIdx := -1
	synIdx := -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Hugo Symbol":
			hugoIdx = i
		case "Synonyms", "Gene Aliases":
			synIdx = i
		}
	}
	if hugoIdx < 0 {
		return nil, fmt.Errorf("synonym table: missing 'Hugo Symbol' column")
	}
	if synIdx < 0 {
		return nil, fmt.Errorf("synonym table: missing 'Synonyms' column")
	}

	s := NewSynonyms()
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) <= hugoIdx {
			continue
		}
		hugo := strings.TrimSpace(fields[hugoIdx])
		if hugo == "" {
			continue
		}
		s.approved[hugo] = true
		if len(fields) <= synIdx {
			continue
		}
		for _, alias := range strings.Split(fields[synIdx], ",") {
			alias = strings.TrimSpace(alias)
			if alias == "" || alias == hugo {
				continue
			}
			// First approved symbol claiming an alias keeps it.
			if _, taken := s.aliases[alias]; !taken {
				s.aliases[alias] = hugo
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading synonym table: %w", err)
	}
	return s, nil
}

// Resolve returns the approved symbol for name. Approved symbols and
// unknown names are returned unchanged.
func (s *Synonyms) Resolve(name string) string {
	if s == nil || s.approved[name] {
		return name
	}
	if hugo, ok := s.aliases[name]; ok {
		return hugo
	}
	return name
}

// Len returns the number of approved symbols.
func (s *Synonyms) Len() int {
	return len(s.approved)
}
