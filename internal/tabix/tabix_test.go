package tabix

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/tabix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
)

// span is the extent of one contig's block in the fixture index.
type span struct {
	name       string
	start, end int
}

func (s span) RefName() string { return s.name }
func (s span) Start() int      { return s.start }
func (s span) End() int        { return s.end }

// contigBlock is the text of one bgzf block holding a single contig's lines.
type contigBlock struct {
	span span
	text string
}

// writeIndexed writes each block as its own bgzf block and indexes it as one
// chunk spanning the whole contig, then writes path.tbi.
func writeIndexed(t *testing.T, path string, blocks []contigBlock) {
	t.Helper()
	var data bytes.Buffer
	w := bgzf.NewWriter(&data, 1)
	idx := tabix.New()
	idx.Format, idx.NameColumn, idx.BeginColumn, idx.EndColumn, idx.MetaChar = 2, 1, 2, 0, '#'

	for _, b := range blocks {
		begin := int64(data.Len())
		_, err := w.Write([]byte(b.text))
		require.NoError(t, err)
		require.NoError(t, w.Flush())
		require.NoError(t, w.Wait())
		chunk := bgzf.Chunk{
			Begin: bgzf.Offset{File: begin},
			End:   bgzf.Offset{File: begin, Block: uint16(len(b.text))},
		}
		require.NoError(t, idx.Add(b.span, chunk, true, true))
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, data.Bytes(), 0644))

	var tbi bytes.Buffer
	iw := bgzf.NewWriter(&tbi, 1)
	require.NoError(t, tabix.WriteTo(iw, idx))
	require.NoError(t, iw.Close())
	require.NoError(t, os.WriteFile(path+".tbi", tbi.Bytes(), 0644))
}

func gnomadFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gnomad.vcf.gz")
	writeIndexed(t, path, []contigBlock{
		{
			span: span{name: "1", start: 99, end: 302},
			text: strings.Join([]string{
				"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO",
				"1\t100\trs100\tA\tC,G\t.\tPASS\tAF=0.1,0.2",
				"1\t150\trs150\tT\tA\t.\tPASS\tAF=0.3",
				"1\t300\trs300\tGCA\tG\t.\tPASS\tAF=0.4",
			}, "\n") + "\n",
		},
		{
			// Last line of the file without a trailing newline.
			span: span{name: "2", start: 499, end: 500},
			text: "2\t500\trs500\tT\tC\t.\tPASS\tAF=0.5",
		},
	})
	return path
}

func TestReader_Match(t *testing.T) {
	r, err := Open(gnomadFixture(t), match.VCFLayout)
	require.NoError(t, err)
	defer r.Close()

	tests := []struct {
		name     string
		chrom    string
		pos      int64
		ref, alt string
		wantID   string
		altIndex int
	}{
		{"second allele of multi-allelic site", "1", 100, "A", "G", "rs100", 1},
		{"first allele of multi-allelic site", "1", 100, "A", "C", "rs100", 0},
		{"deletion with different padding", "1", 301, "CA", "-", "rs300", 0},
		{"chr-prefixed query", "chr1", 150, "T", "A", "rs150", 0},
		{"last line without newline", "2", 500, "T", "C", "rs500", 0},
		{"unknown contig", "7", 100, "A", "G", "", 0},
		{"no record at position", "1", 200, "A", "G", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := variant.New(tt.chrom, tt.pos, tt.ref, tt.alt)
			require.NoError(t, err)

			hit, ok, err := match.NewMatcher(match.VCFLayout).Match(v, r, nil)
			require.NoError(t, err)
			if tt.wantID == "" {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.wantID, strings.Split(hit.Line, "\t")[2])
			assert.Equal(t, tt.altIndex, hit.AltIndex)
		})
	}
}

func TestReader_Query(t *testing.T) {
	r, err := Open(gnomadFixture(t), match.VCFLayout)
	require.NoError(t, err)
	defer r.Close()

	collect := func(contig string, start, end int64) []string {
		t.Helper()
		lines, err := r.Query(contig, start, end)
		require.NoError(t, err)
		defer lines.Close()
		var got []string
		for {
			line, err := lines.Next()
			if err != nil {
				break
			}
			got = append(got, strings.Split(line, "\t")[1])
		}
		return got
	}

	// 1-based inclusive windows; the meta line never comes back.
	assert.Equal(t, []string{"100"}, collect("1", 100, 100))
	assert.Equal(t, []string{"100", "150"}, collect("chr1", 90, 150))
	assert.Equal(t, []string{"300"}, collect("1", 302, 302), "deletion span covers 300..302")
	assert.Empty(t, collect("1", 303, 400))
	assert.Equal(t, []string{"500"}, collect("2", 1, 1000))

	_, err = r.Query("7", 1, 100)
	var unknown *match.UnknownContigError
	assert.ErrorAs(t, err, &unknown)
}

func TestOpen_MissingIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gnomad.vcf.gz")
	require.NoError(t, os.WriteFile(path, []byte("not bgzf"), 0644))

	_, err := Open(path, match.VCFLayout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tabix index")
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := NewOpener(match.VCFLayout)(filepath.Join(t.TempDir(), "missing.vcf.gz"))
	assert.Error(t, err)
}

func TestOpen_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.tsv.gz")
	require.NoError(t, os.WriteFile(path, []byte{}, 0644))
	require.NoError(t, os.WriteFile(path+".tbi", []byte("garbage"), 0644))

	_, err := Open(path, match.TSVLayout)
	assert.Error(t, err)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bool
	}{
		{"inside window", "1\t100\t.\tA\tG", true},
		{"deletion reaching into window", "1\t85\t.\tAAAAAAA\tA", true},
		{"ends before window", "1\t80\t.\tAT\tA", false},
		{"starts after window", "1\t111\t.\tA\tG", false},
		{"other contig", "2\t100\t.\tA\tG", false},
		{"malformed passes through", "1\tx", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, overlaps(match.VCFLayout, tt.line, "1", 90, 110))
		})
	}
}
