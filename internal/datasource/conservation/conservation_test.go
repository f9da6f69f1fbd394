package conservation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
)

// AlphaMissense-style rows: score in column 8.
var amLines = []string{
	"chr1\t69094\tG\tA\thg38\tQ8NH21\tENST00000335137.4\tV2M\t0.0782\tlikely_benign",
	"chr12\t25245350\tC\tA\thg38\tP01116\tENST00000256078.10\tG12C\t0.9876\tlikely_pathogenic",
	"chr12\t25245350\tC\tT\thg38\tP01116\tENST00000256078.10\tG12D\t0.8234\tlikely_pathogenic",
}

func TestSource_AlphaMissenseColumns(t *testing.T) {
	src := NewSource("alphamissense", "am.tsv.gz", 8)
	idx := match.NewMemIndex(src.Layout(), amLines)
	m := match.NewMatcher(src.Layout())

	v, err := variant.New("12", 25245350, "C", "T")
	require.NoError(t, err)
	_, ok, err := m.Match(v, idx, src.Extract)
	require.NoError(t, err)
	require.True(t, ok)

	score, ok := v.Property(variant.Conservation)
	assert.True(t, ok)
	assert.InDelta(t, 0.8234, score, 1e-9)
}

func TestExtract(t *testing.T) {
	src := NewSource("", "scores.tsv.gz", 0)
	assert.Equal(t, "conservation", src.Name())

	tests := []struct {
		name string
		line string
		ok   bool
		want float64
	}{
		{"score column", "1\t100\tA\tG\t3.5", true, 3.5},
		{"score with class", "1\t100\tA\tG\t-1.25\tneutral", true, -1.25},
		{"missing score", "1\t100\tA\tG", false, 0},
		{"non-numeric score", "1\t100\tA\tG\tNA", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := variant.New("1", 100, "A", "G")
			require.NoError(t, err)
			assert.Equal(t, tt.ok, src.Extract(v, tt.line, 0))
			got, set := v.Property(variant.Conservation)
			assert.Equal(t, tt.ok, set)
			assert.Equal(t, tt.want, got)
		})
	}
}
