package annotate

import (
	"errors"
	"fmt"
	"io"

	"github.com/inodb/vibe-trio/internal/interval"
	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
)

// FreqFunc reads the population frequency of one allele of a database line.
type FreqFunc func(line string, altIndex int) (float64, bool)

// MissingCommon scans the merged capture intervals of idx for database sites
// with frequency >= minFreq that fall inside the capture set but are absent
// from pool. Results use the capture set's contig names and come back in
// capture order. Contigs unknown to the index are skipped.
func MissingCommon(idx match.Index, layout match.Layout, capture *interval.Set, pool *variant.Pool, minFreq float64, freq FreqFunc) ([]*variant.Variant, error) {
	merged := capture.Merge()
	seen := make(map[variant.Key]bool)
	var missing []*variant.Variant

	for _, contig := range merged.Contigs() {
		for _, iv := range merged.Intervals(contig) {
			lines, err := idx.Query(contig, iv.Begin+1, iv.End)
			if err != nil {
				var unknown *match.UnknownContigError
				if errors.As(err, &unknown) {
					break
				}
				return nil, fmt.Errorf("query %s:%d-%d: %w", contig, iv.Begin+1, iv.End, err)
			}
			found, err := scanMissing(lines, layout, contig, capture, pool, minFreq, freq, seen)
			lines.Close()
			if err != nil {
				return nil, err
			}
			missing = append(missing, found...)
		}
	}
	return missing, nil
}

func scanMissing(lines match.Lines, layout match.Layout, contig string, capture *interval.Set, pool *variant.Pool, minFreq float64, freq FreqFunc, seen map[variant.Key]bool) ([]*variant.Variant, error) {
	var found []*variant.Variant
	for {
		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			return found, nil
		}
		if err != nil {
			return found, fmt.Errorf("read %s: %w", contig, err)
		}
		rec, err := layout.Parse(line)
		if err != nil {
			continue
		}
		for altIndex, alt := range rec.Alts {
			if alt == "" || alt == "." {
				continue
			}
			f, ok := freq(line, altIndex)
			if !ok || f < minFreq {
				continue
			}
			v, err := variant.New(contig, rec.Pos, rec.Ref, alt)
			if err != nil {
				continue
			}
			k := v.Key()
			if seen[k] || !InCapture(capture, v) || inPool(pool, v) {
				continue
			}
			seen[k] = true
			v.SetProperty(variant.PopFreq, f)
			found = append(found, v)
		}
	}
}

// inPool looks v up under its own contig name and the "chr"-toggled one.
func inPool(pool *variant.Pool, v *variant.Variant) bool {
	if pool.Contains(v) {
		return true
	}
	k := v.Key()
	alt := variant.StripChr(k.Chrom)
	if alt == k.Chrom {
		alt = "chr" + k.Chrom
	}
	k.Chrom = alt
	return pool.FindKey(k) != nil
}
