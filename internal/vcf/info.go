package vcf

import (
	"strings"

	"github.com/inodb/vibe-trio/internal/variant"
)

// parseInfo parses the INFO field into a map. Flags map to "".
func parseInfo(info string) map[string]string {
	result := make(map[string]string)
	if info == "." || info == "" {
		return result
	}
	for _, kv := range strings.Split(info, ";") {
		k, v, _ := strings.Cut(kv, "=")
		result[k] = v
	}
	return result
}

// csqFormat holds the column positions of a VEP CSQ header.
type csqFormat struct {
	allele, consequence, symbol int
}

// parseCSQHeader reads the field order from a
// ##INFO=<ID=CSQ,...,Description="... Format: Allele|Consequence|...">
// header line.
func parseCSQHeader(line string) (csqFormat, bool) {
	if !strings.HasPrefix(line, "##INFO=<ID=CSQ,") {
		return csqFormat{}, false
	}
	_, format, ok := strings.Cut(line, "Format: ")
	if !ok {
		return csqFormat{}, false
	}
	format = strings.TrimRight(format, "\">")
	f := csqFormat{allele: -1, consequence: -1, symbol: -1}
	for i, name := range strings.Split(format, "|") {
		switch name {
		case "Allele":
			f.allele = i
		case "Consequence":
			f.consequence = i
		case "SYMBOL":
			f.symbol = i
		}
	}
	return f, f.allele >= 0 && f.consequence >= 0
}

// vepAllele is the allele string VEP writes for alt: the shared leading
// base is dropped and an empty allele becomes "-".
func vepAllele(ref, alt string) string {
	if len(ref) > 0 && len(alt) > 0 && ref[0] == alt[0] && len(ref) != len(alt) {
		alt = alt[1:]
		if alt == "" {
			return variant.Gap
		}
	}
	return alt
}

// annotateFromInfo copies gene and consequence annotations carried in the
// INFO column onto v: plain GENE/CONSEQUENCE keys, snpEff ANN entries and
// VEP CSQ entries for v's allele.
func annotateFromInfo(v *variant.Variant, info map[string]string, ref, alt string, csq *csqFormat) {
	for _, key := range []string{"GENE", "Gene", "GENEINFO"} {
		if g, ok := info[key]; ok && g != "" {
			// GENEINFO is SYMBOL:ID|SYMBOL:ID
			g, _, _ = strings.Cut(g, ":")
			v.SetAnnotation(variant.Gene, g)
			break
		}
	}
	for _, key := range []string{"CONSEQUENCE", "Consequence"} {
		if c, ok := info[key]; ok && c != "" {
			addTerms(v, c)
		}
	}

	if ann, ok := info["ANN"]; ok {
		for _, entry := range strings.Split(ann, ",") {
			f := strings.Split(entry, "|")
			if len(f) < 4 || f[0] != alt {
				continue
			}
			addTerms(v, f[1])
			if v.GeneName() == "" && f[3] != "" {
				v.SetAnnotation(variant.Gene, f[3])
			}
		}
	}

	if raw, ok := info["CSQ"]; ok && csq != nil {
		want := vepAllele(ref, alt)
		for _, entry := range strings.Split(raw, ",") {
			f := strings.Split(entry, "|")
			if len(f) <= csq.consequence || len(f) <= csq.allele {
				continue
			}
			if f[csq.allele] != want && f[csq.allele] != alt {
				continue
			}
			addTerms(v, f[csq.consequence])
			if csq.symbol >= 0 && csq.symbol < len(f) && v.GeneName() == "" && f[csq.symbol] != "" {
				v.SetAnnotation(variant.Gene, f[csq.symbol])
			}
		}
	}
}

// addTerms adds '&'- or ','-separated consequence terms.
func addTerms(v *variant.Variant, terms string) {
	for _, t := range strings.FieldsFunc(terms, func(r rune) bool { return r == '&' || r == ',' }) {
		v.AddAnnotation(variant.Consequence, t)
	}
}
