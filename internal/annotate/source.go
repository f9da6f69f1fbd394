// Package annotate runs reference-database sources over variant pools.
package annotate

import (
	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
)

// Source is one reference-database family: where its index lives, how its
// lines are laid out and how a matching line is turned into properties and
// annotations on the variant.
type Source interface {
	Name() string         // e.g. "popfreq"
	IndexPath() string    // path handed to the driver's Opener
	Layout() match.Layout // column layout of the database lines
	// Extract records the data of a matching line on v. Returning false
	// rejects the line (e.g. unparsable numeric field) and the scan goes on.
	Extract(v *variant.Variant, line string, altIndex int) bool
}

// Defaulter is implemented by sources that define an explicit value for
// variants without a matching record (e.g. zero population frequency).
type Defaulter interface {
	ApplyDefault(v *variant.Variant)
}

// FuncSource adapts a path, layout and extraction function to a Source.
type FuncSource struct {
	SourceName string
	Path       string
	LineLayout match.Layout
	ExtractFn  match.ExtractFunc
}

func (s *FuncSource) Name() string {
	if s.SourceName == "" {
		return s.Path
	}
	return s.SourceName
}

func (s *FuncSource) IndexPath() string    { return s.Path }
func (s *FuncSource) Layout() match.Layout { return s.LineLayout }

func (s *FuncSource) Extract(v *variant.Variant, line string, altIndex int) bool {
	if s.ExtractFn == nil {
		return true
	}
	return s.ExtractFn(v, line, altIndex)
}
