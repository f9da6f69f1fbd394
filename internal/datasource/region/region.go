// Package region flags variants that fall in problematic genomic regions
// (bad mapping, low complexity) listed in BED files.
package region

import (
	"fmt"

	"github.com/inodb/vibe-trio/internal/annotate"
	"github.com/inodb/vibe-trio/internal/interval"
	"github.com/inodb/vibe-trio/internal/variant"
)

// Common flag values.
const (
	BadRegion     = "bad_region"
	LowComplexity = "low_complexity"
)

// Source tags variants overlapping its interval set with a flag. The set is
// used unmerged so that region names stay available.
type Source struct {
	flag string
	set  *interval.Set
}

// New creates a region source from an interval set.
func New(flag string, set *interval.Set) *Source {
	return &Source{flag: flag, set: set}
}

// Load reads a BED file (plain or gzipped) into a region source.
func Load(flag, path string) (*Source, error) {
	set, err := interval.LoadBED(path)
	if err != nil {
		return nil, fmt.Errorf("load %s regions: %w", flag, err)
	}
	return New(flag, set), nil
}

// Name returns the flag written by this source.
func (s *Source) Name() string { return s.flag }

// Flagged reports whether any base of v lies in a listed region.
func (s *Source) Flagged(v *variant.Variant) bool {
	return annotate.InCapture(s.set, v)
}

// Annotate adds the flag to every overlapping variant of the pool and
// returns how many were flagged.
func (s *Source) Annotate(pool *variant.Pool) int {
	n := 0
	for _, v := range pool.All() {
		if s.Flagged(v) {
			v.AddAnnotation(variant.RegionFlag, s.flag)
			n++
		}
	}
	return n
}
