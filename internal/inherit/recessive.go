package inherit

import (
	"sort"

	"github.com/inodb/vibe-trio/internal/variant"
)

// ScoreFunc ranks candidate variants; higher is more relevant.
type ScoreFunc func(*variant.Variant) float64

// DefaultScore uses the Relevance property, then Conservation, then 0.
func DefaultScore(v *variant.Variant) float64 {
	if s, ok := v.Property(variant.Relevance); ok {
		return s
	}
	if s, ok := v.Property(variant.Conservation); ok {
		return s
	}
	return 0
}

// Recessive returns the damaging variants homozygous in the child and
// homozygous in neither parent, sorted by descending score (stable for
// ties). parentB may be nil when only one parent was sequenced. Variants
// without a consequence annotation are never damaging. A nil score uses
// DefaultScore.
func Recessive(child, parentA, parentB *variant.Pool, score ScoreFunc) []*variant.Variant {
	return recessive(child, parentA, parentB, score, variant.HasDamagingConsequence)
}

func recessive(child, parentA, parentB *variant.Pool, score ScoreFunc, damaging func(*variant.Variant) bool) []*variant.Variant {
	if score == nil {
		score = DefaultScore
	}
	isHom := func(v *variant.Variant) bool { return v.Zygosity == variant.Homozygous }

	var homParents []*variant.Pool
	for _, p := range []*variant.Pool{parentA, parentB} {
		if p != nil {
			homParents = append(homParents, p.Filter(isHom))
		}
	}

	var hits []*variant.Variant
	for _, v := range child.Filter(damaging).All() {
		if !isHom(v) {
			continue
		}
		inParent := false
		for _, p := range homParents {
			if lookup(p, v.Key()) != nil {
				inParent = true
				break
			}
		}
		if !inParent {
			hits = append(hits, v)
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return score(hits[i]) > score(hits[j])
	})
	return hits
}
