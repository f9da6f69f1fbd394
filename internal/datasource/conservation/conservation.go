// Package conservation annotates variants with per-allele conservation or
// pathogenicity scores from a tab-separated table such as AlphaMissense:
//
//	#CHROM  POS  REF  ALT  score  [class]
package conservation

import (
	"strconv"
	"strings"

	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
)

// DefaultScoreColumn is the 0-based column holding the score.
const DefaultScoreColumn = 4

// Source reads a numeric score from matching lines.
type Source struct {
	name        string
	path        string
	scoreColumn int
}

// NewSource creates a score source over path. A scoreColumn below 4 selects
// DefaultScoreColumn; AlphaMissense tables use column 8.
func NewSource(name, path string, scoreColumn int) *Source {
	if name == "" {
		name = "conservation"
	}
	if scoreColumn < DefaultScoreColumn {
		scoreColumn = DefaultScoreColumn
	}
	return &Source{name: name, path: path, scoreColumn: scoreColumn}
}

func (s *Source) Name() string         { return s.name }
func (s *Source) IndexPath() string    { return s.path }
func (s *Source) Layout() match.Layout { return match.TSVLayout }

// Extract records the score on v. Lines without a numeric score are rejected.
func (s *Source) Extract(v *variant.Variant, line string, _ int) bool {
	fields := strings.Split(line, "\t")
	if len(fields) <= s.scoreColumn {
		return false
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(fields[s.scoreColumn]), 64)
	if err != nil {
		return false
	}
	v.SetProperty(variant.Conservation, score)
	return true
}
