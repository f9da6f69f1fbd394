package popfreq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-trio/internal/annotate"
	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
)

var _ annotate.Source = (*Source)(nil)
var _ annotate.Defaulter = (*Source)(nil)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		altIndex int
		want     Counts
		ok       bool
	}{
		{
			name:     "per-allele AF and AC",
			line:     "1\t100\trs1\tA\tG,C\t.\tPASS\tAC=10,30;AN=100;AF=0.1,0.3",
			altIndex: 1,
			want:     Counts{Freq: 0.3, AlleleCount: 30, AlleleNumber: 100, HasCounts: true},
			ok:       true,
		},
		{
			name: "frequency derived from counts",
			line: "1\t100\t.\tA\tG\t.\tPASS\tAC=5;AN=200",
			want: Counts{Freq: 0.025, AlleleCount: 5, AlleleNumber: 200, HasCounts: true},
			ok:   true,
		},
		{
			name: "AF only",
			line: "1\t100\t.\tA\tG\t.\tPASS\tAF=0.5",
			want: Counts{Freq: 0.5},
			ok:   true,
		},
		{"unparsable AF", "1\t100\t.\tA\tG\t.\tPASS\tAF=abc", 0, Counts{}, false},
		{"no frequency data", "1\t100\t.\tA\tG\t.\tPASS\tDP=10", 0, Counts{}, false},
		{"allele index out of range", "1\t100\t.\tA\tG,C,T\t.\tPASS\tAF=0.1,0.2", 2, Counts{}, false},
		{"zero allele number", "1\t100\t.\tA\tG\t.\tPASS\tAC=0;AN=0", 0, Counts{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.line, tt.altIndex)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want.Freq, got.Freq, 1e-9)
				assert.Equal(t, tt.want.HasCounts, got.HasCounts)
				assert.Equal(t, tt.want.AlleleCount, got.AlleleCount)
				assert.Equal(t, tt.want.AlleleNumber, got.AlleleNumber)
			}
		})
	}
}

func TestSource_AnnotatesThroughMatcher(t *testing.T) {
	idx := match.NewMemIndex(match.VCFLayout, []string{
		"1\t100\trs_bad\tA\tG\t.\tPASS\tAF=oops",
		"1\t100\trs_good\tA\tG\t.\tPASS\tAF=0.02;AC=2;AN=100",
	})
	src := NewSource("", "gnomad.vcf.gz")
	assert.Equal(t, "popfreq", src.Name())

	v, err := variant.New("1", 100, "A", "G")
	require.NoError(t, err)

	_, ok, err := match.NewMatcher(src.Layout()).Match(v, idx, src.Extract)
	require.NoError(t, err)
	require.True(t, ok, "unparsable line is skipped, next line accepted")

	f, _ := v.Property(variant.PopFreq)
	assert.InDelta(t, 0.02, f, 1e-9)
	id, _ := v.Annotation(variant.DatabaseID)
	assert.Equal(t, "rs_good", id)
}

func TestApplyDefault(t *testing.T) {
	v, err := variant.New("1", 100, "A", "G")
	require.NoError(t, err)

	NewSource("exac", "exac.vcf.gz").ApplyDefault(v)
	for _, p := range []variant.Property{variant.PopFreq, variant.PopAlleleCount, variant.PopAlleleNumber} {
		got, ok := v.Property(p)
		assert.True(t, ok, p.String())
		assert.Equal(t, 0.0, got)
	}
}

func TestFrequency(t *testing.T) {
	f, ok := Frequency("1\t100\t.\tA\tG,T\t.\t.\tAF=0.1,0.4", 1)
	assert.True(t, ok)
	assert.InDelta(t, 0.4, f, 1e-9)
}
