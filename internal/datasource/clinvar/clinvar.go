// Package clinvar annotates variants with clinical significance from a
// ClinVar VCF.
package clinvar

import (
	"strings"

	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
)

// Source reads CLNSIG and CLNDN from matching lines.
type Source struct {
	name string
	path string
}

// NewSource creates a ClinVar source over the database at path.
func NewSource(name, path string) *Source {
	if name == "" {
		name = "clinvar"
	}
	return &Source{name: name, path: path}
}

func (s *Source) Name() string         { return s.name }
func (s *Source) IndexPath() string    { return s.path }
func (s *Source) Layout() match.Layout { return match.VCFLayout }

// Extract records significance, disease names and the pathogenic flag.
// Lines without CLNSIG are rejected.
func (s *Source) Extract(v *variant.Variant, line string, altIndex int) bool {
	rec, err := match.VCFLayout.Parse(line)
	if err != nil {
		return false
	}
	raw, ok := rec.Info("CLNSIG")
	if !ok || raw == "" {
		return false
	}
	sig, ok := match.AlleleValue(raw, altIndex)
	if !ok {
		return false
	}

	v.SetAnnotation(variant.ClinSig, sig)
	if dn, ok := rec.Info("CLNDN"); ok && dn != "" {
		if d, ok := match.AlleleValue(dn, altIndex); ok {
			v.SetAnnotation(variant.ClinDisease, strings.ReplaceAll(d, "_", " "))
		}
	}
	if IsPathogenic(sig) {
		v.SetProperty(variant.ClinPathogenic, 1)
	} else {
		v.SetProperty(variant.ClinPathogenic, 0)
	}
	if len(rec.Fields) > 2 && rec.Fields[2] != "." {
		v.SetAnnotation(variant.DatabaseID, rec.Fields[2])
	}
	return true
}

// IsPathogenic reports whether a CLNSIG value asserts pathogenic or likely
// pathogenic significance. Both the named form ("Likely_pathogenic") and
// the legacy numeric codes (5 pathogenic, 4 likely pathogenic) are
// understood; conflicting interpretations are not pathogenic.
func IsPathogenic(sig string) bool {
	s := strings.ToLower(sig)
	if strings.Contains(s, "conflicting") {
		return false
	}
	for _, term := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == '/' || r == ',' }) {
		switch strings.TrimSpace(term) {
		case "pathogenic", "likely_pathogenic", "likely pathogenic", "5", "4":
			return true
		}
	}
	return false
}
