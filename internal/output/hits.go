package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/vibe-trio/internal/inherit"
	"github.com/inodb/vibe-trio/internal/variant"
)

// HitWriter writes recessive and compound-heterozygous candidates, one
// variant per line, tagged with the inheritance model.
type HitWriter struct {
	w     *bufio.Writer
	score inherit.ScoreFunc
}

// NewHitWriter creates a hit writer. A nil score uses inherit.DefaultScore.
func NewHitWriter(w io.Writer, score inherit.ScoreFunc) *HitWriter {
	if score == nil {
		score = inherit.DefaultScore
	}
	return &HitWriter{w: bufio.NewWriter(w), score: score}
}

// WriteHeader writes the header line.
func (hw *HitWriter) WriteHeader() error {
	_, err := hw.w.WriteString(strings.Join([]string{
		"#Model", "Gene", "Pair", "Variant", "Zygosity", "Consequence", "Impact", "Score",
	}, "\t") + "\n")
	return err
}

// WriteRecessive writes recessive hits in the given order.
func (hw *HitWriter) WriteRecessive(hits []*variant.Variant) error {
	for _, v := range hits {
		if err := hw.line("recessive", v.GeneName(), Missing, v); err != nil {
			return err
		}
	}
	return nil
}

// WriteCompoundHets writes both variants of every pair, the first line
// being the variant inherited from parent A.
func (hw *HitWriter) WriteCompoundHets(hits []inherit.CompoundHet) error {
	for _, h := range hits {
		pair := h.First.String() + "+" + h.Second.String()
		for _, v := range []*variant.Variant{h.First, h.Second} {
			if err := hw.line("compound_het", h.Gene, pair, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (hw *HitWriter) line(model, gene, pair string, v *variant.Variant) error {
	consequence, _ := v.Annotation(variant.Consequence)
	impact := Missing
	if consequence != "" {
		impact = variant.GetImpact(consequence)
	}
	_, err := hw.w.WriteString(strings.Join([]string{
		model,
		orMissing(gene),
		pair,
		v.String(),
		v.Zygosity.String(),
		orMissing(consequence),
		impact,
		formatFloat(hw.score(v)),
	}, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (hw *HitWriter) Flush() error {
	return hw.w.Flush()
}
