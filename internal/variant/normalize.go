package variant

import "strings"

// Key is the normalized identity of a variant used for matching. Two records
// describe the same change iff their keys are equal.
type Key struct {
	Chrom    string
	Pos      int64
	End      int64 // only set for symbolic alleles
	Ref      string
	Alt      string
	Symbolic bool
}

// Key returns the normalized identity of the variant.
func (v *Variant) Key() Key {
	if isSymbolic(v.Alt) {
		return Key{Chrom: v.Chrom, Pos: v.Pos, End: v.End, Alt: v.Alt, Symbolic: true}
	}
	chrom, pos, ref, alt := Normalize(v.Chrom, v.Pos, v.Ref, v.Alt)
	return Key{Chrom: chrom, Pos: pos, Ref: ref, Alt: alt}
}

// Normalize reduces a ref/alt pair to its minimal representation: the shared
// leading bases are stripped (advancing pos), then the shared trailing bases.
// Emptied alleles become Gap. Identical and symbolic alleles are returned
// unchanged.
func Normalize(chrom string, pos int64, ref, alt string) (string, int64, string, string) {
	if isSymbolic(alt) || isSymbolic(ref) {
		return chrom, pos, ref, alt
	}
	r, a := unGap(ref), unGap(alt)
	if r == a {
		return chrom, pos, ref, alt
	}

	prefix := commonPrefix(r, a)
	r, a = r[prefix:], a[prefix:]
	suffix := commonSuffix(r, a)
	r, a = r[:len(r)-suffix], a[:len(a)-suffix]

	return chrom, pos + int64(prefix), gapIfEmpty(r), gapIfEmpty(a)
}

// NormalizeAlleles strips the leading bases shared by ref and every alternate
// allele of a multi-allelic site. The prefix is measured against the shortest
// alt and then checked against each alt. Trailing bases are left alone since
// they differ per allele.
func NormalizeAlleles(pos int64, ref string, alts []string) (int64, string, []string) {
	out := make([]string, len(alts))
	copy(out, alts)
	if len(alts) == 0 {
		return pos, ref, out
	}

	r := unGap(ref)
	shortest := -1
	for i, alt := range alts {
		if isSymbolic(alt) {
			return pos, ref, out
		}
		if shortest < 0 || len(unGap(alt)) < len(unGap(alts[shortest])) {
			shortest = i
		}
	}

	prefix := commonPrefix(r, unGap(alts[shortest]))
	for _, alt := range alts {
		if p := commonPrefix(r[:prefix], unGap(alt)); p < prefix {
			prefix = p
		}
	}
	if prefix == 0 {
		return pos, ref, out
	}

	for i, alt := range alts {
		out[i] = gapIfEmpty(unGap(alt)[prefix:])
	}
	return pos + int64(prefix), gapIfEmpty(r[prefix:]), out
}

func commonPrefix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffix(a, b string) int {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

func unGap(s string) string {
	if s == Gap {
		return ""
	}
	return s
}

func gapIfEmpty(s string) string {
	if s == "" {
		return Gap
	}
	return s
}

// isSymbolic reports structural-variant tags (<DEL>), breakends and the
// spanning-deletion allele, none of which can be trimmed.
func isSymbolic(allele string) bool {
	if allele == "*" {
		return true
	}
	return strings.HasPrefix(allele, "<") || strings.ContainsAny(allele, "[]")
}
