package annotate

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-trio/internal/interval"
	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
)

func mustVariant(t *testing.T, chrom string, pos int64, ref, alt string) *variant.Variant {
	t.Helper()
	v, err := variant.New(chrom, pos, ref, alt)
	require.NoError(t, err)
	return v
}

// testPool spans several contigs; every even position is in the database.
func testPool(t *testing.T) *variant.Pool {
	t.Helper()
	p := variant.NewPool()
	for _, chrom := range []string{"1", "2", "3", "X"} {
		for pos := int64(100); pos < 130; pos++ {
			require.NoError(t, p.Add(mustVariant(t, chrom, pos, "A", "G")))
		}
	}
	return p
}

func testLines() []string {
	var lines []string
	for _, chrom := range []string{"1", "2", "3", "X"} {
		for pos := 100; pos < 130; pos += 2 {
			lines = append(lines, fmt.Sprintf("%s\t%d\trs%s_%d\tA\tG\t.\t.\tAF=0.%d", chrom, pos, chrom, pos, pos%10))
		}
	}
	return lines
}

// countingIndex wraps a MemIndex and fails the test when a handle is used
// by two goroutines at once.
type countingIndex struct {
	*match.MemIndex
	busy atomic.Int32
	t    *testing.T
}

func (c *countingIndex) Query(contig string, start, end int64) (match.Lines, error) {
	if c.busy.Add(1) != 1 {
		c.t.Errorf("index handle used concurrently")
	}
	defer c.busy.Add(-1)
	return c.MemIndex.Query(contig, start, end)
}

type countingOpener struct {
	mu     sync.Mutex
	opened int
	closed atomic.Int32
	lines  []string
	t      *testing.T
}

func (o *countingOpener) open(string) (match.Index, error) {
	o.mu.Lock()
	o.opened++
	o.mu.Unlock()
	return &closeCounter{
		Index: &countingIndex{MemIndex: match.NewMemIndex(match.VCFLayout, o.lines), t: o.t},
		onClose: func() {
			o.closed.Add(1)
		},
	}, nil
}

type closeCounter struct {
	match.Index
	onClose func()
}

func (c *closeCounter) Close() error {
	c.onClose()
	return c.Index.Close()
}

func recordID(v *variant.Variant, line string, _ int) bool {
	v.SetAnnotation(variant.DatabaseID, strings.Split(line, "\t")[2])
	return true
}

func snapshot(p *variant.Pool) map[string]string {
	out := make(map[string]string)
	for _, v := range p.All() {
		id, _ := v.Annotation(variant.DatabaseID)
		out[v.String()] = id
	}
	return out
}

func TestAnnotateAll_OneHandlePerContig(t *testing.T) {
	pool := testPool(t)
	o := &countingOpener{lines: testLines(), t: t}
	d := NewDriver(WithThreads(4), WithOpener(o.open))

	n, err := d.AnnotateAll(pool, &FuncSource{Path: "db", LineLayout: match.VCFLayout, ExtractFn: recordID})
	require.NoError(t, err)
	assert.Equal(t, 60, n)
	assert.Equal(t, 4, o.opened)
	assert.Equal(t, int32(4), o.closed.Load())
}

func TestAnnotateAll_SameResultForAnyThreadCount(t *testing.T) {
	var results []map[string]string
	for _, threads := range []int{1, 3, 8} {
		pool := testPool(t)
		o := &countingOpener{lines: testLines(), t: t}
		d := NewDriver(WithThreads(threads), WithOpener(o.open))

		n, err := d.AnnotateAll(pool, &FuncSource{Path: "db", LineLayout: match.VCFLayout, ExtractFn: recordID})
		require.NoError(t, err)
		assert.Equal(t, 60, n)
		results = append(results, snapshot(pool))
	}
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, results[0], results[2])
	assert.Equal(t, "rs2_104", results[0]["2_104_A/G"])
	assert.Equal(t, "", results[0]["2_105_A/G"])
}

func TestAnnotateAll_SurfacesFirstErrorAfterAllTasks(t *testing.T) {
	pool := testPool(t)
	var opened atomic.Int32
	boom := errors.New("index missing")
	opener := func(string) (match.Index, error) {
		if opened.Add(1) == 2 {
			return nil, boom
		}
		return match.NewMemIndex(match.VCFLayout, testLines()), nil
	}
	d := NewDriver(WithThreads(1), WithOpener(opener))

	n, err := d.AnnotateAll(pool, &FuncSource{Path: "db", LineLayout: match.VCFLayout, ExtractFn: recordID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, int32(4), opened.Load(), "siblings are not cancelled")
	assert.Equal(t, 45, n, "matches of the three successful contigs are counted")
}

func TestAnnotateAll_CaptureSkipsOffTarget(t *testing.T) {
	pool := testPool(t)
	capture := interval.Build([]interval.Interval{
		{Contig: "chr1", Begin: 99, End: 110}, // positions 100..110
	})
	o := &countingOpener{lines: testLines(), t: t}
	d := NewDriver(WithCapture(capture), WithOpener(o.open))

	n, err := d.AnnotateAll(pool, &FuncSource{Path: "db", LineLayout: match.VCFLayout, ExtractFn: recordID})
	require.NoError(t, err)
	assert.Equal(t, 6, n, "even positions 100..110 on contig 1 only")

	got := snapshot(pool)
	assert.Equal(t, "rs1_110", got["1_110_A/G"])
	assert.Equal(t, "", got["1_112_A/G"])
	assert.Equal(t, "", got["2_100_A/G"])
}

type defaultingSource struct {
	FuncSource
	defaulted int
}

func (s *defaultingSource) ApplyDefault(v *variant.Variant) {
	s.defaulted++
	v.SetProperty(variant.PopFreq, 0)
}

func TestAnnotateAll_DefaultsUnmatched(t *testing.T) {
	pool, err := variant.PoolOf(
		mustVariant(t, "1", 100, "A", "G"),
		mustVariant(t, "1", 101, "A", "G"),
	)
	require.NoError(t, err)
	src := &defaultingSource{FuncSource: FuncSource{Path: "db", LineLayout: match.VCFLayout, ExtractFn: recordID}}
	d := NewDriver(WithOpener(func(string) (match.Index, error) {
		return match.NewMemIndex(match.VCFLayout, testLines()), nil
	}))

	n, err := d.AnnotateAll(pool, src)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, src.defaulted)

	f, ok := pool.Find("1", 101, "A", "G").Property(variant.PopFreq)
	assert.True(t, ok)
	assert.Equal(t, 0.0, f)
	_, ok = pool.Find("1", 100, "A", "G").Property(variant.PopFreq)
	assert.False(t, ok, "matched variants are left to the extractor")
}

func TestDriverThreads(t *testing.T) {
	assert.Equal(t, DefaultThreads, NewDriver().threads())
	assert.Equal(t, 1, NewDriver(WithThreads(0)).threads())
	assert.Equal(t, MaxThreads, NewDriver(WithThreads(100)).threads())
}

func TestAnnotateWith_MissingIndex(t *testing.T) {
	pool, err := variant.PoolOf(mustVariant(t, "1", 100, "A", "G"))
	require.NoError(t, err)

	_, err = AnnotateWith(pool, t.TempDir()+"/absent.vcf.gz", match.VCFLayout, nil, 2)
	assert.Error(t, err)
}

func TestMissingCommon(t *testing.T) {
	idx := match.NewMemIndex(match.VCFLayout, []string{
		"chr1\t100\t.\tA\tG\t.\t.\tAF=0.40",
		"chr1\t105\t.\tC\tT,G\t.\t.\tAF=0.01,0.30",
		"chr1\t150\t.\tA\tG\t.\t.\tAF=0.50", // outside capture
		"chr1\t108\t.\tA\tG\t.\t.\tAF=0.50", // already called
	})
	capture := interval.Build([]interval.Interval{
		{Contig: "1", Begin: 95, End: 102},
		{Contig: "1", Begin: 101, End: 110},
		{Contig: "5", Begin: 0, End: 10},
	})
	pool, err := variant.PoolOf(mustVariant(t, "1", 108, "A", "G"))
	require.NoError(t, err)

	freq := func(line string, altIndex int) (float64, bool) {
		info := strings.Split(line, "\t")[7]
		vals := strings.Split(strings.TrimPrefix(info, "AF="), ",")
		var f float64
		_, err := fmt.Sscanf(vals[altIndex], "%g", &f)
		return f, err == nil
	}

	missing, err := MissingCommon(idx, match.VCFLayout, capture, pool, 0.05, freq)
	require.NoError(t, err)
	require.Len(t, missing, 2)
	assert.Equal(t, "1_100_A/G", missing[0].String())
	assert.Equal(t, "1_105_C/G", missing[1].String())
	f, _ := missing[1].Property(variant.PopFreq)
	assert.InDelta(t, 0.30, f, 1e-9)
}
