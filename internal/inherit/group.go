// Package inherit finds candidate recessive and compound-heterozygous
// variants in a child given the variants of one or both parents.
package inherit

import (
	"strings"

	"github.com/inodb/vibe-trio/internal/variant"
)

// Resolver maps gene aliases to approved symbols.
type Resolver interface {
	Resolve(name string) string
}

// GroupByGene groups the pooled variants by resolved gene symbol, keeping
// pool order within each gene. A variant annotated with several genes
// ("A,B") is listed under each. Variants without a gene are skipped.
func GroupByGene(pool *variant.Pool, resolver Resolver) map[string][]*variant.Variant {
	groups := make(map[string][]*variant.Variant)
	if pool == nil {
		return groups
	}
	for _, v := range pool.All() {
		seen := make(map[string]bool, 1)
		for _, name := range strings.Split(v.GeneName(), ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if resolver != nil {
				name = resolver.Resolve(name)
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			groups[name] = append(groups[name], v)
		}
	}
	return groups
}

// lookup finds the record of pool with key k, trying the contig name with
// and without the "chr" prefix.
func lookup(pool *variant.Pool, k variant.Key) *variant.Variant {
	if pool == nil {
		return nil
	}
	if v := pool.FindKey(k); v != nil {
		return v
	}
	if stripped := variant.StripChr(k.Chrom); stripped != k.Chrom {
		k.Chrom = stripped
	} else {
		k.Chrom = "chr" + k.Chrom
	}
	return pool.FindKey(k)
}
