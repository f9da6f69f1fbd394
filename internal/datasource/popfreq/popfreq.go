// Package popfreq annotates variants with population allele frequencies
// from a VCF-style sites database (e.g. gnomAD, ExAC).
package popfreq

import (
	"strconv"

	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
)

// Source reads AF, AC and AN from the INFO column of matching lines.
type Source struct {
	name string
	path string
}

// NewSource creates a population-frequency source over the database at path.
func NewSource(name, path string) *Source {
	if name == "" {
		name = "popfreq"
	}
	return &Source{name: name, path: path}
}

func (s *Source) Name() string         { return s.name }
func (s *Source) IndexPath() string    { return s.path }
func (s *Source) Layout() match.Layout { return match.VCFLayout }

// Counts are the population values of one allele.
type Counts struct {
	Freq         float64
	AlleleCount  float64
	AlleleNumber float64
	HasCounts    bool
}

// Parse reads the population values of the altIndex-th allele of line.
// AF wins when present; otherwise it is derived from AC/AN.
func Parse(line string, altIndex int) (Counts, bool) {
	rec, err := match.VCFLayout.Parse(line)
	if err != nil {
		return Counts{}, false
	}

	var c Counts
	ac, hasAC := rec.Info("AC")
	an, hasAN := rec.Info("AN")
	if hasAC && hasAN {
		acv, ok := match.AlleleValue(ac, altIndex)
		if !ok {
			return Counts{}, false
		}
		if c.AlleleCount, err = strconv.ParseFloat(acv, 64); err != nil {
			return Counts{}, false
		}
		if c.AlleleNumber, err = strconv.ParseFloat(an, 64); err != nil {
			return Counts{}, false
		}
		c.HasCounts = true
	}

	if af, ok := rec.Info("AF"); ok {
		afv, ok := match.AlleleValue(af, altIndex)
		if !ok {
			return Counts{}, false
		}
		if c.Freq, err = strconv.ParseFloat(afv, 64); err != nil {
			return Counts{}, false
		}
		return c, true
	}
	if c.HasCounts && c.AlleleNumber > 0 {
		c.Freq = c.AlleleCount / c.AlleleNumber
		return c, true
	}
	return Counts{}, false
}

// Frequency returns the allele frequency of the altIndex-th allele of line.
func Frequency(line string, altIndex int) (float64, bool) {
	c, ok := Parse(line, altIndex)
	return c.Freq, ok
}

// Extract records frequency, counts and the record ID on v. Lines with
// unparsable numbers are rejected so the scan continues.
func (s *Source) Extract(v *variant.Variant, line string, altIndex int) bool {
	c, ok := Parse(line, altIndex)
	if !ok {
		return false
	}
	v.SetProperty(variant.PopFreq, c.Freq)
	if c.HasCounts {
		v.SetProperty(variant.PopAlleleCount, c.AlleleCount)
		v.SetProperty(variant.PopAlleleNumber, c.AlleleNumber)
	}
	if rec, err := match.VCFLayout.Parse(line); err == nil && len(rec.Fields) > 2 && rec.Fields[2] != "." {
		v.SetAnnotation(variant.DatabaseID, rec.Fields[2])
	}
	return true
}

// ApplyDefault marks a variant absent from the database with zero
// frequency and counts.
func (s *Source) ApplyDefault(v *variant.Variant) {
	v.SetProperty(variant.PopFreq, 0)
	v.SetProperty(variant.PopAlleleCount, 0)
	v.SetProperty(variant.PopAlleleNumber, 0)
}
