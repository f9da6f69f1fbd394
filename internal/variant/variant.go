// Package variant provides the variant record, allele normalization and the
// contig-bucketed variant pool shared by every annotator.
package variant

import (
	"errors"
	"fmt"
	"strings"
)

// Gap is the allele sentinel meaning "no bases" (pure insertion or deletion).
const Gap = "-"

// UnknownQual marks a variant whose quality was not reported.
const UnknownQual = -1.0

var (
	// ErrMultiAllelic is returned when a record still carries more than one
	// alternate allele. Multi-allelic sites must be split before pooling.
	ErrMultiAllelic = errors.New("multi-allelic variant must be split per alternate allele")

	// ErrInvalid is returned for records violating the structural invariants.
	ErrInvalid = errors.New("invalid variant")
)

// Variant represents one genomic change. Chrom, Pos, End, Ref and Alt are
// fixed at construction; annotators only add properties and annotations.
type Variant struct {
	Chrom    string   // Reference sequence name, no implied "chr" prefix
	Pos      int64    // 1-based start
	End      int64    // 1-based inclusive end
	ID       string   // Variant identifier (e.g., rs ID)
	Ref      string   // Reference allele or Gap
	Alt      string   // Single alternate allele or Gap
	Qual     float64  // Quality score, UnknownQual if not reported
	Zygosity Zygosity // Genotype state of the sample carrying the variant

	props       [numProperties]float64
	propSet     uint32
	annotations [numFields]string
	annSet      uint32
}

// New creates a validated variant. End is derived from the reference allele.
func New(chrom string, pos int64, ref, alt string) (*Variant, error) {
	v := &Variant{
		Chrom: chrom,
		Pos:   pos,
		Ref:   ref,
		Alt:   alt,
		Qual:  UnknownQual,
	}
	v.End = endOf(pos, ref)
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// SplitAlleles creates one variant per alternate allele of a multi-allelic site.
func SplitAlleles(chrom string, pos int64, ref string, alts []string) ([]*Variant, error) {
	variants := make([]*Variant, 0, len(alts))
	for _, alt := range alts {
		v, err := New(chrom, pos, ref, alt)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, nil
}

func endOf(pos int64, ref string) int64 {
	if ref == Gap || ref == "" || isSymbolic(ref) {
		return pos
	}
	return pos + int64(len(ref)) - 1
}

// Validate checks the structural invariants of the record.
func (v *Variant) Validate() error {
	switch {
	case v.Chrom == "":
		return fmt.Errorf("%w: empty contig", ErrInvalid)
	case v.Pos < 1:
		return fmt.Errorf("%w: %s:%d: position must be >= 1", ErrInvalid, v.Chrom, v.Pos)
	case v.End < v.Pos:
		return fmt.Errorf("%w: %s:%d: end %d before start", ErrInvalid, v.Chrom, v.Pos, v.End)
	case v.Ref == "" || v.Alt == "":
		return fmt.Errorf("%w: %s:%d: empty allele", ErrInvalid, v.Chrom, v.Pos)
	case v.Ref == Gap && v.Alt == Gap:
		return fmt.Errorf("%w: %s:%d: ref and alt are both %q", ErrInvalid, v.Chrom, v.Pos, Gap)
	case strings.Contains(v.Ref, ",") || strings.Contains(v.Alt, ","):
		return fmt.Errorf("%w: %s:%d %s>%s", ErrMultiAllelic, v.Chrom, v.Pos, v.Ref, v.Alt)
	}
	return nil
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1 && v.Ref != Gap && v.Alt != Gap
}

// IsInsertion returns true if the normalized variant adds bases.
func (v *Variant) IsInsertion() bool {
	k := v.Key()
	return !k.Symbolic && k.Ref == Gap
}

// IsDeletion returns true if the normalized variant removes bases.
func (v *Variant) IsDeletion() bool {
	k := v.Key()
	return !k.Symbolic && k.Alt == Gap
}

// IsIndel returns true if the variant is an insertion or deletion.
func (v *Variant) IsIndel() bool {
	return v.IsInsertion() || v.IsDeletion()
}

// IsSymbolic returns true for structural-variant tags and breakends.
func (v *Variant) IsSymbolic() bool {
	return isSymbolic(v.Alt)
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	return StripChr(v.Chrom)
}

// StripChr removes a leading "chr" from a contig name.
func StripChr(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}

// String formats the variant as chrom_pos_ref/alt.
func (v *Variant) String() string {
	return FormatID(v.Chrom, v.Pos, v.Ref, v.Alt)
}

// FormatID creates a variant identifier from components.
func FormatID(chrom string, pos int64, ref, alt string) string {
	return fmt.Sprintf("%s_%d_%s/%s", chrom, pos, ref, alt)
}
