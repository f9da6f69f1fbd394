package inherit

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/vibe-trio/internal/variant"
)

const (
	// MinCompoundHetVariants is the fewest damaging child hets a gene needs.
	MinCompoundHetVariants = 2
	// MaxCompoundHetVariants skips genes with more candidate hets than this;
	// such genes are treated as confounded.
	MaxCompoundHetVariants = 8
)

// ErrNoCandidates is returned when no child variant passes the damaging
// filter, which points at a missing consequence annotation step.
var ErrNoCandidates = errors.New("no damaging variants in child")

// CompoundHet is a pair of child variants in one gene inherited in trans.
type CompoundHet struct {
	Gene   string
	First  *variant.Variant // het in parent A (or the only parent)
	Second *variant.Variant // het in parent B (or absent from the only parent)
}

// Options configures CompoundHets.
type Options struct {
	Resolver Resolver                    // nil keeps names as annotated
	Damaging func(*variant.Variant) bool // nil uses variant.HasDamagingConsequence
	Logger   *zap.Logger                 // nil logs nothing
}

func (o Options) damaging() func(*variant.Variant) bool {
	if o.Damaging != nil {
		return o.Damaging
	}
	return variant.HasDamagingConsequence
}

func (o Options) logger() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return zap.NewNop()
}

// CompoundHets returns, per gene, the first pair of damaging child
// heterozygous variants with evidence of being in trans: one het in parent
// A and absent from parent B, the other het in parent B and absent from
// parent A. With parentB nil, the first must be het in parent A and the
// second absent from it. Pairs are scanned in child pool order and only
// the first qualifying pair of a gene is reported. Results are sorted by
// gene.
func CompoundHets(child, parentA, parentB *variant.Pool, opts Options) ([]CompoundHet, error) {
	if parentA == nil {
		return nil, errors.New("compound heterozygosity needs at least one parent")
	}
	damaging := opts.damaging()
	log := opts.logger()

	childDamaging := child.Filter(damaging)
	if childDamaging.Len() == 0 {
		return nil, ErrNoCandidates
	}
	isHet := func(v *variant.Variant) bool { return v.Zygosity == variant.Heterozygous }
	childGenes := GroupByGene(childDamaging.Filter(isHet), opts.Resolver)

	// Parent pools pass through the same damaging filter.
	parentAFiltered := parentA.Filter(damaging)
	parentAGenes := GroupByGene(parentAFiltered, opts.Resolver)
	var parentBFiltered *variant.Pool
	var parentBGenes map[string][]*variant.Variant
	if parentB != nil {
		parentBFiltered = parentB.Filter(damaging)
		parentBGenes = GroupByGene(parentBFiltered, opts.Resolver)
	}

	names := make([]string, 0, len(childGenes))
	for gene := range childGenes {
		names = append(names, gene)
	}
	sort.Strings(names)

	var hits []CompoundHet
	for _, gene := range names {
		candidates := childGenes[gene]
		if len(candidates) < MinCompoundHetVariants {
			continue
		}
		if len(candidates) > MaxCompoundHetVariants {
			log.Debug("skipping gene with too many candidate hets",
				zap.String("gene", gene), zap.Int("variants", len(candidates)))
			continue
		}
		if len(parentAGenes[gene]) == 0 {
			log.Warn("gene has no damaging variants in parent A", zap.String("gene", gene))
			continue
		}
		if parentB != nil && len(parentBGenes[gene]) == 0 {
			log.Warn("gene has no damaging variants in parent B", zap.String("gene", gene))
			continue
		}

		if first, second, ok := transPair(candidates, parentAFiltered, parentBFiltered, parentB != nil); ok {
			hits = append(hits, CompoundHet{Gene: gene, First: first, Second: second})
		}
	}
	return hits, nil
}

// transPair scans candidate pairs in order and returns the first with
// trans evidence, oriented so that First came from parent A.
func transPair(candidates []*variant.Variant, parentA, parentB *variant.Pool, trio bool) (*variant.Variant, *variant.Variant, bool) {
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i], candidates[j]
			if inTrans(a, b, parentA, parentB, trio) {
				return a, b, true
			}
			if inTrans(b, a, parentA, parentB, trio) {
				return b, a, true
			}
		}
	}
	return nil, nil, false
}

func inTrans(v1, v2 *variant.Variant, parentA, parentB *variant.Pool, trio bool) bool {
	if !hetIn(parentA, v1) || lookup(parentA, v2.Key()) != nil {
		return false
	}
	if !trio {
		return true
	}
	return lookup(parentB, v1.Key()) == nil && hetIn(parentB, v2)
}

func hetIn(pool *variant.Pool, v *variant.Variant) bool {
	p := lookup(pool, v.Key())
	return p != nil && p.Zygosity == variant.Heterozygous
}
