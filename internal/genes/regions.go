package genes

import (
	"fmt"

	"github.com/inodb/vibe-trio/internal/interval"
	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
)

// Regions assigns genes to variants from a gene BED (name in column 4).
type Regions struct {
	set *interval.Set
}

// NewRegions wraps an interval set whose payloads are gene names.
func NewRegions(set *interval.Set) *Regions {
	return &Regions{set: set}
}

// LoadRegions reads a gene BED file (plain or gzipped).
func LoadRegions(path string) (*Regions, error) {
	set, err := interval.LoadBED(path)
	if err != nil {
		return nil, fmt.Errorf("load gene regions: %w", err)
	}
	return NewRegions(set), nil
}

// GenesAt returns the names of the genes overlapping v in ascending start
// order, without duplicates.
func (r *Regions) GenesAt(v *variant.Variant) []string {
	end := max(v.End, v.Pos)
	var names []string
	seen := make(map[string]bool)
	match.ResolveContig(v.Chrom, func(contig string) bool {
		ivs := r.set.Overlapping(contig, v.Pos-1, end)
		for _, iv := range ivs {
			name, _ := iv.Payload.(string)
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
		return len(ivs) > 0
	})
	return names
}

// Annotate sets Gene on every record of the pool that has none, using the
// first overlapping gene, resolved through syn (which may be nil). It
// returns the number of records annotated.
func (r *Regions) Annotate(pool *variant.Pool, syn *Synonyms) int {
	n := 0
	for _, v := range pool.All() {
		if v.GeneName() != "" {
			continue
		}
		if names := r.GenesAt(v); len(names) > 0 {
			v.SetAnnotation(variant.Gene, syn.Resolve(names[0]))
			n++
		}
	}
	return n
}
