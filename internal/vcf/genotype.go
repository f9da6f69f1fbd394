package vcf

import (
	"strconv"
	"strings"

	"github.com/inodb/vibe-trio/internal/variant"
)

// Genotype is a parsed GT value. Missing calls are stored as -1.
type Genotype struct {
	Alleles []int
	Phased  bool
}

// ParseGenotype parses a GT string such as "0/1", "1|1", "1" or "./.".
func ParseGenotype(gt string) Genotype {
	g := Genotype{Phased: strings.Contains(gt, "|")}
	for _, a := range strings.FieldsFunc(gt, func(r rune) bool { return r == '/' || r == '|' }) {
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 {
			n = -1
		}
		g.Alleles = append(g.Alleles, n)
	}
	return g
}

// Missing reports whether no allele was called.
func (g Genotype) Missing() bool {
	for _, a := range g.Alleles {
		if a >= 0 {
			return false
		}
	}
	return true
}

// Zygosity returns the sample's zygosity for the allele with the given
// 1-based ALT index. The second result is false when the sample was called
// without that allele. A fully missing call carries every allele with
// unknown zygosity.
func (g Genotype) Zygosity(allele int) (variant.Zygosity, bool) {
	if g.Missing() {
		return variant.ZygosityUnknown, true
	}
	count := 0
	for _, a := range g.Alleles {
		if a == allele {
			count++
		}
	}
	switch {
	case count == 0:
		return variant.ZygosityUnknown, false
	case len(g.Alleles) == 1:
		return variant.Hemizygous, true
	case count == len(g.Alleles):
		return variant.Homozygous, true
	default:
		return variant.Heterozygous, true
	}
}
