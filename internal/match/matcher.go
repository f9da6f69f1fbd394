package match

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-trio/internal/variant"
)

// DefaultMargin is the number of bases queried on each side of a variant's
// start. It absorbs the position shift between differently padded indel
// representations.
const DefaultMargin = 10

// ExtractFunc receives the query variant, the raw matching line and the
// index of the matching alternate allele in that line. Returning true
// accepts the match and stops the scan.
type ExtractFunc func(v *variant.Variant, line string, altIndex int) bool

// Hit is an accepted match.
type Hit struct {
	Line     string
	AltIndex int
}

// Stats counts matcher activity.
type Stats struct {
	Queries      int
	QueryErrors  int
	Lines        int
	SkippedLines int
	Matches      int
}

// Matcher looks up variants in an Index. A Matcher keeps counters and is
// meant to be owned by a single task.
type Matcher struct {
	layout Layout
	margin int64
	logger *zap.Logger
	stats  Stats
}

// NewMatcher creates a matcher for databases with the given layout.
func NewMatcher(layout Layout) *Matcher {
	return &Matcher{
		layout: layout,
		margin: DefaultMargin,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for skipped lines and index errors.
func (m *Matcher) SetLogger(l *zap.Logger) {
	m.logger = l
}

// Stats returns the counters accumulated so far.
func (m *Matcher) Stats() Stats {
	return m.stats
}

// Match searches idx for a line describing the same normalized variant as v.
// The first exact match accepted by extract wins; a nil extract accepts the
// first exact match. Index errors (e.g. a contig missing from the database)
// yield no match rather than an error; malformed lines are skipped. The only
// error is a query variant that was not split per alternate allele.
func (m *Matcher) Match(v *variant.Variant, idx Index, extract ExtractFunc) (Hit, bool, error) {
	if strings.Contains(v.Ref, ",") || strings.Contains(v.Alt, ",") {
		return Hit{}, false, fmt.Errorf("%w: %s:%d %s>%s", variant.ErrMultiAllelic, v.Chrom, v.Pos, v.Ref, v.Alt)
	}

	want := v.Key()
	start := max(v.Pos-m.margin, 1)
	end := v.Pos + m.margin

	m.stats.Queries++
	lines, err := idx.Query(v.Chrom, start, end)
	if err != nil {
		m.stats.QueryErrors++
		m.logger.Debug("index query failed",
			zap.String("chrom", v.Chrom),
			zap.Int64("pos", v.Pos),
			zap.Error(err))
		return Hit{}, false, nil
	}
	defer lines.Close()

	for {
		line, err := lines.Next()
		if errors.Is(err, io.EOF) {
			return Hit{}, false, nil
		}
		if err != nil {
			// A truncated block ends this variant's scan, not the batch.
			m.stats.QueryErrors++
			m.logger.Debug("reading index lines failed",
				zap.String("chrom", v.Chrom),
				zap.Int64("pos", v.Pos),
				zap.Error(err))
			return Hit{}, false, nil
		}
		m.stats.Lines++

		rec, err := m.layout.Parse(line)
		if err != nil {
			m.stats.SkippedLines++
			m.logger.Debug("skipping database line", zap.Error(err))
			continue
		}

		pos, ref, alts := rec.Pos, rec.Ref, rec.Alts
		if len(alts) > 1 {
			pos, ref, alts = variant.NormalizeAlleles(pos, ref, alts)
		}
		for altIndex, alt := range alts {
			if alt == "" || alt == "." {
				continue
			}
			if !sameVariant(want, rec, pos, ref, alt) {
				continue
			}
			if extract == nil || extract(v, line, altIndex) {
				m.stats.Matches++
				return Hit{Line: line, AltIndex: altIndex}, true, nil
			}
		}
	}
}

// sameVariant compares the normalized query key against one allele of a
// database record whose shared prefix may already be trimmed to pos and ref.
// Contigs match with or without the "chr" prefix.
func sameVariant(want variant.Key, rec Record, pos int64, ref, alt string) bool {
	if variant.StripChr(want.Chrom) != variant.StripChr(rec.Chrom) {
		return false
	}
	candidate := variant.Variant{Chrom: want.Chrom, Pos: pos, Ref: ref, Alt: alt, End: rec.End()}
	if want.Symbolic {
		candidate.End = symbolicEnd(rec)
	}
	got := candidate.Key()
	return got == want
}

// symbolicEnd reads END= from a VCF INFO column, falling back to the
// reference span.
func symbolicEnd(rec Record) int64 {
	if len(rec.Fields) > 7 {
		for _, kv := range strings.Split(rec.Fields[7], ";") {
			if v, ok := strings.CutPrefix(kv, "END="); ok {
				if end, err := strconv.ParseInt(v, 10, 64); err == nil {
					return end
				}
			}
		}
	}
	return rec.End()
}
