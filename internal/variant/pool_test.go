package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustVariant(t *testing.T, chrom string, pos int64, ref, alt string) *Variant {
	t.Helper()
	v, err := New(chrom, pos, ref, alt)
	require.NoError(t, err)
	return v
}

func TestPool_AddOrdersByNormalizedStart(t *testing.T) {
	p := NewPool()
	require.NoError(t, p.Add(mustVariant(t, "1", 300, "A", "G")))
	require.NoError(t, p.Add(mustVariant(t, "1", 100, "C", "T")))
	require.NoError(t, p.Add(mustVariant(t, "1", 198, "ATG", "AT"))) // normalizes to 200
	require.NoError(t, p.Add(mustVariant(t, "2", 50, "G", "A")))

	assert.Equal(t, 4, p.Len())
	assert.Equal(t, []string{"1", "2"}, p.Contigs())

	var got []int64
	for _, v := range p.Variants("1") {
		got = append(got, v.Key().Pos)
	}
	assert.Equal(t, []int64{100, 200, 300}, got)
}

func TestPool_TiesDoNotCollapse(t *testing.T) {
	p := NewPool()
	g := mustVariant(t, "1", 100, "A", "G")
	c := mustVariant(t, "1", 100, "A", "C")
	require.NoError(t, p.Add(g))
	require.NoError(t, p.Add(c))

	at := p.At("1", 100)
	require.Len(t, at, 2)
	assert.Same(t, g, at[0], "insertion order kept for ties")
	assert.Same(t, c, at[1])

	assert.Same(t, c, p.Find("1", 100, "A", "C"))
	assert.Nil(t, p.Find("1", 100, "A", "T"))
	assert.Nil(t, p.Find("3", 100, "A", "C"))
}

func TestPool_FindNormalizesQuery(t *testing.T) {
	p := NewPool()
	v := mustVariant(t, "1", 102, "G", "-")
	require.NoError(t, p.Add(v))

	assert.Same(t, v, p.Find("1", 100, "ATG", "AT"))
	assert.True(t, p.Contains(mustVariant(t, "1", 101, "TG", "T")))
}

func TestPool_RejectsMultiAllelic(t *testing.T) {
	p := NewPool()
	err := p.Add(&Variant{Chrom: "1", Pos: 100, End: 100, Ref: "A", Alt: "G,C"})
	require.ErrorIs(t, err, ErrMultiAllelic)
	assert.Zero(t, p.Len())
}

func TestPool_SetAlgebra(t *testing.T) {
	a, err := PoolOf(
		mustVariant(t, "1", 100, "A", "G"),
		mustVariant(t, "1", 200, "C", "T"),
		mustVariant(t, "2", 300, "G", "A"),
		mustVariant(t, "2", 400, "T", "-"),
	)
	require.NoError(t, err)
	b, err := PoolOf(
		mustVariant(t, "1", 200, "C", "T"),
		mustVariant(t, "2", 399, "CT", "C"), // same deletion as 2:400 T>-
		mustVariant(t, "3", 10, "A", "T"),
	)
	require.NoError(t, err)

	inter := a.Intersect(b)
	sub := a.Subtract(b)
	assert.Equal(t, 2, inter.Len())
	assert.Equal(t, 2, sub.Len())
	assert.Equal(t, a.Len(), inter.Len()+sub.Len())
	assert.NotNil(t, inter.Find("2", 400, "T", "-"))
	assert.NotNil(t, sub.Find("1", 100, "A", "G"))

	assert.Zero(t, a.Subtract(a).Len())
	assert.Equal(t, a.Len(), a.Intersect(a).Len())
	assert.Equal(t, 4, a.Len(), "source pool untouched")
}

func TestPool_Filter(t *testing.T) {
	het := mustVariant(t, "1", 100, "A", "G")
	het.Zygosity = Heterozygous
	hom := mustVariant(t, "1", 200, "A", "G")
	hom.Zygosity = Homozygous

	p, err := PoolOf(het, hom)
	require.NoError(t, err)

	homs := p.Filter(func(v *Variant) bool { return v.Zygosity == Homozygous })
	require.Equal(t, 1, homs.Len())
	assert.Same(t, hom, homs.All()[0])
}

func TestPool_Stats(t *testing.T) {
	a := mustVariant(t, "1", 100, "A", "G") // transition
	a.Zygosity = Heterozygous
	b := mustVariant(t, "1", 200, "A", "C") // transversion
	b.Zygosity = Homozygous
	c := mustVariant(t, "2", 300, "A", "AT")
	d := mustVariant(t, "2", 400, "AT", "A")
	e := mustVariant(t, "2", 500, "AC", "GT")

	p, err := PoolOf(a, b, c, d, e)
	require.NoError(t, err)

	s := p.Stats()
	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.SNV)
	assert.Equal(t, 1, s.Insertion)
	assert.Equal(t, 1, s.Deletion)
	assert.Equal(t, 1, s.MNV)
	assert.Equal(t, 1, s.ByZygosity[Heterozygous])
	assert.Equal(t, 3, s.ByZygosity[ZygosityUnknown])
	assert.Equal(t, 3, s.ByContig["2"])
	assert.InDelta(t, 1.0, s.TiTv(), 1e-9)
}
