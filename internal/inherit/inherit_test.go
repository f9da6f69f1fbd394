package inherit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/inodb/vibe-trio/internal/variant"
)

type call struct {
	pos         int64
	alt         string
	zyg         variant.Zygosity
	gene        string
	consequence string
}

func het(pos int64, gene string) call {
	return call{pos: pos, alt: "G", zyg: variant.Heterozygous, gene: gene, consequence: "missense_variant"}
}

func hom(pos int64, gene string) call {
	return call{pos: pos, alt: "G", zyg: variant.Homozygous, gene: gene, consequence: "missense_variant"}
}

func pool(t *testing.T, calls ...call) *variant.Pool {
	t.Helper()
	p := variant.NewPool()
	for _, c := range calls {
		v, err := variant.New("1", c.pos, "A", c.alt)
		require.NoError(t, err)
		v.Zygosity = c.zyg
		if c.gene != "" {
			v.SetAnnotation(variant.Gene, c.gene)
		}
		if c.consequence != "" {
			v.SetAnnotation(variant.Consequence, c.consequence)
		}
		require.NoError(t, p.Add(v))
	}
	return p
}

type aliases map[string]string

func (a aliases) Resolve(name string) string {
	if hugo, ok := a[name]; ok {
		return hugo
	}
	return name
}

func TestGroupByGene(t *testing.T) {
	p := pool(t,
		het(100, "MLL2"),
		het(200, "KMT2D"),
		het(300, "GENE1,GENE2"),
		het(400, ""),
	)
	groups := GroupByGene(p, aliases{"MLL2": "KMT2D"})

	require.Len(t, groups["KMT2D"], 2)
	assert.Equal(t, int64(100), groups["KMT2D"][0].Pos)
	assert.Len(t, groups["GENE1"], 1)
	assert.Len(t, groups["GENE2"], 1)
	assert.Len(t, groups, 3)
}

func TestCompoundHets_TransPair(t *testing.T) {
	child := pool(t, het(100, "X"), het(200, "X"))
	parentA := pool(t, het(100, "X"))
	parentB := pool(t, het(200, "X"))

	hits, err := CompoundHets(child, parentA, parentB, Options{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "X", hits[0].Gene)
	assert.Equal(t, int64(100), hits[0].First.Pos)
	assert.Equal(t, int64(200), hits[0].Second.Pos)
}

func TestCompoundHets_OrientationFollowsParents(t *testing.T) {
	child := pool(t, het(100, "X"), het(200, "X"))
	parentA := pool(t, het(200, "X"))
	parentB := pool(t, het(100, "X"))

	hits, err := CompoundHets(child, parentA, parentB, Options{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(200), hits[0].First.Pos, "first variant comes from parent A")
}

func TestCompoundHets_CisConfiguration(t *testing.T) {
	child := pool(t, het(100, "X"), het(200, "X"))
	parentA := pool(t, het(100, "X"), het(200, "X"))
	parentB := pool(t, het(300, "X"))

	hits, err := CompoundHets(child, parentA, parentB, Options{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCompoundHets_OneParent(t *testing.T) {
	child := pool(t, het(100, "X"), het(200, "X"), het(100, "Y"))
	parent := pool(t, het(200, "X"))

	hits, err := CompoundHets(child, parent, nil, Options{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(200), hits[0].First.Pos)
	assert.Equal(t, int64(100), hits[0].Second.Pos)

	// Both present in the parent: no evidence.
	parent = pool(t, het(100, "X"), het(200, "X"))
	hits, err = CompoundHets(child, parent, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCompoundHets_ParentHomIsNotHet(t *testing.T) {
	child := pool(t, het(100, "X"), het(200, "X"))
	parentA := pool(t, hom(100, "X"))
	parentB := pool(t, het(200, "X"))

	hits, err := CompoundHets(child, parentA, parentB, Options{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCompoundHets_CandidateGuard(t *testing.T) {
	var calls []call
	for i := int64(0); i < MaxCompoundHetVariants+1; i++ {
		calls = append(calls, het(100+i*10, "BIG"))
	}
	child := pool(t, calls...)
	parentA := pool(t, het(100, "BIG"))
	parentB := pool(t, het(110, "BIG"))

	hits, err := CompoundHets(child, parentA, parentB, Options{})
	require.NoError(t, err)
	assert.Empty(t, hits, "genes above the guard are skipped")

	// At the guard the same gene is analysed.
	child = pool(t, calls[:MaxCompoundHetVariants]...)
	hits, err = CompoundHets(child, parentA, parentB, Options{})
	require.NoError(t, err)
	assert.Len(t, hits, 1)
}

func TestCompoundHets_SingleHetIgnored(t *testing.T) {
	child := pool(t, het(100, "X"), hom(200, "X"))
	parentA := pool(t, het(100, "X"))
	parentB := pool(t, het(200, "X"))

	hits, err := CompoundHets(child, parentA, parentB, Options{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestCompoundHets_FirstPairOnly(t *testing.T) {
	child := pool(t, het(100, "X"), het(200, "X"), het(300, "X"), het(400, "X"))
	parentA := pool(t, het(100, "X"), het(300, "X"))
	parentB := pool(t, het(200, "X"), het(400, "X"))

	hits, err := CompoundHets(child, parentA, parentB, Options{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(100), hits[0].First.Pos)
	assert.Equal(t, int64(200), hits[0].Second.Pos)
}

func TestCompoundHets_NoCandidates(t *testing.T) {
	child := pool(t, call{pos: 100, alt: "G", zyg: variant.Heterozygous, gene: "X", consequence: "synonymous_variant"})
	_, err := CompoundHets(child, pool(t), pool(t), Options{})
	assert.True(t, errors.Is(err, ErrNoCandidates))

	_, err = CompoundHets(child, nil, nil, Options{})
	assert.Error(t, err)
}

func TestCompoundHets_WarnsOnGeneMissingFromParent(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	child := pool(t, het(100, "X"), het(200, "X"))
	parentA := pool(t, het(100, "X"))
	parentB := pool(t, call{pos: 200, alt: "G", zyg: variant.Heterozygous, gene: "X", consequence: "intron_variant"})

	hits, err := CompoundHets(child, parentA, parentB, Options{Logger: zap.New(core)})
	require.NoError(t, err)
	assert.Empty(t, hits)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "X", logs.All()[0].ContextMap()["gene"])
}

func TestCompoundHets_SortedByGene(t *testing.T) {
	child := pool(t, het(100, "ZZZ"), het(200, "ZZZ"), het(300, "AAA"), het(400, "AAA"))
	parentA := pool(t, het(100, "ZZZ"), het(300, "AAA"))
	parentB := pool(t, het(200, "ZZZ"), het(400, "AAA"))

	hits, err := CompoundHets(child, parentA, parentB, Options{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "AAA", hits[0].Gene)
	assert.Equal(t, "ZZZ", hits[1].Gene)
}

func TestRecessive_ExcludesHomInParent(t *testing.T) {
	child := pool(t, hom(100, "X"), hom(200, "Y"))
	parentA := pool(t, hom(100, "X"))

	hits := Recessive(child, parentA, pool(t), nil)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(200), hits[0].Pos)

	// Also with parent B unavailable.
	hits = Recessive(child, parentA, nil, nil)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(200), hits[0].Pos)
}

func TestRecessive_Filters(t *testing.T) {
	child := pool(t,
		hom(100, "X"),
		het(200, "X"),
		call{pos: 300, alt: "G", zyg: variant.Homozygous, gene: "X", consequence: "synonymous_variant"},
		call{pos: 400, alt: "G", zyg: variant.Homozygous, gene: "X"}, // no consequence
	)
	parentA := pool(t, het(100, "X"))
	parentB := pool(t, het(100, "X"))

	hits := Recessive(child, parentA, parentB, nil)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(100), hits[0].Pos, "het-in-parents carrier variant stays a candidate")
}

func TestRecessive_SortedByScore(t *testing.T) {
	child := pool(t, hom(100, "X"), hom(200, "Y"), hom(300, "Z"))
	scores := map[int64]float64{100: 0.1, 200: 0.9, 300: 0.1}

	hits := Recessive(child, pool(t), pool(t), func(v *variant.Variant) float64 { return scores[v.Pos] })
	require.Len(t, hits, 3)
	assert.Equal(t, []int64{200, 100, 300}, []int64{hits[0].Pos, hits[1].Pos, hits[2].Pos})
}

func TestDefaultScore(t *testing.T) {
	v, err := variant.New("1", 100, "A", "G")
	require.NoError(t, err)
	assert.Equal(t, 0.0, DefaultScore(v))

	v.SetProperty(variant.Conservation, 0.7)
	assert.Equal(t, 0.7, DefaultScore(v))

	v.SetProperty(variant.Relevance, 3)
	assert.Equal(t, 3.0, DefaultScore(v))
}
