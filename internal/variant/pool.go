package variant

import (
	"sort"
)

// Pool holds variants bucketed by contig and ordered by normalized start.
// Records sharing a start coexist in insertion order.
type Pool struct {
	contigs map[string]*bucket
	size    int
}

type bucket struct {
	keys     []Key
	variants []*Variant
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{contigs: make(map[string]*bucket)}
}

// PoolOf builds a pool from already validated variants.
func PoolOf(variants ...*Variant) (*Pool, error) {
	p := NewPool()
	for _, v := range variants {
		if err := p.Add(v); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Add inserts a variant, keeping the contig ordered by normalized start.
func (p *Pool) Add(v *Variant) error {
	if err := v.Validate(); err != nil {
		return err
	}
	p.insert(v.Key(), v)
	return nil
}

func (p *Pool) insert(k Key, v *Variant) {
	b := p.contigs[v.Chrom]
	if b == nil {
		b = &bucket{}
		p.contigs[v.Chrom] = b
	}
	// Upper bound keeps ties in insertion order; appends stay O(1) for
	// position-sorted input.
	i := len(b.keys)
	if i > 0 && b.keys[i-1].Pos > k.Pos {
		i = sort.Search(len(b.keys), func(j int) bool { return b.keys[j].Pos > k.Pos })
	}
	b.keys = append(b.keys, Key{})
	b.variants = append(b.variants, nil)
	copy(b.keys[i+1:], b.keys[i:])
	copy(b.variants[i+1:], b.variants[i:])
	b.keys[i] = k
	b.variants[i] = v
	p.size++
}

// Len returns the number of variants in the pool.
func (p *Pool) Len() int {
	return p.size
}

// Contigs returns a sorted list of contigs holding at least one variant.
func (p *Pool) Contigs() []string {
	chroms := make([]string, 0, len(p.contigs))
	for chrom, b := range p.contigs {
		if len(b.variants) > 0 {
			chroms = append(chroms, chrom)
		}
	}
	sort.Strings(chroms)
	return chroms
}

// Variants returns the variants of one contig in stored order. The slice
// must not be modified.
func (p *Pool) Variants(chrom string) []*Variant {
	if b := p.contigs[chrom]; b != nil {
		return b.variants
	}
	return nil
}

// All returns every variant, contig by contig in sorted contig order.
func (p *Pool) All() []*Variant {
	all := make([]*Variant, 0, p.size)
	for _, chrom := range p.Contigs() {
		all = append(all, p.contigs[chrom].variants...)
	}
	return all
}

// At returns every variant whose normalized start is pos.
func (p *Pool) At(chrom string, pos int64) []*Variant {
	b := p.contigs[chrom]
	if b == nil {
		return nil
	}
	lo := sort.Search(len(b.keys), func(i int) bool { return b.keys[i].Pos >= pos })
	hi := lo
	for hi < len(b.keys) && b.keys[hi].Pos == pos {
		hi++
	}
	return b.variants[lo:hi]
}

// Find returns the first variant equal to (chrom, pos, ref, alt) after
// normalization, or nil.
func (p *Pool) Find(chrom string, pos int64, ref, alt string) *Variant {
	probe := &Variant{Chrom: chrom, Pos: pos, Ref: ref, Alt: alt, End: endOf(pos, ref)}
	return p.FindKey(probe.Key())
}

// FindKey returns the first variant with the given normalized key, or nil.
func (p *Pool) FindKey(k Key) *Variant {
	b := p.contigs[k.Chrom]
	if b == nil {
		return nil
	}
	i := sort.Search(len(b.keys), func(i int) bool { return b.keys[i].Pos >= k.Pos })
	for ; i < len(b.keys) && b.keys[i].Pos == k.Pos; i++ {
		if b.keys[i] == k {
			return b.variants[i]
		}
	}
	return nil
}

// Contains reports whether a variant with the same normalized key is pooled.
func (p *Pool) Contains(v *Variant) bool {
	return p.FindKey(v.Key()) != nil
}

// Filter returns a new pool with the variants satisfying keep.
func (p *Pool) Filter(keep func(*Variant) bool) *Pool {
	out := NewPool()
	for chrom, b := range p.contigs {
		for i, v := range b.variants {
			if keep(v) {
				out.appendSorted(chrom, b.keys[i], v)
			}
		}
	}
	return out
}

// Intersect returns a new pool with the variants of p also present in other.
func (p *Pool) Intersect(other *Pool) *Pool {
	return p.Filter(func(v *Variant) bool { return other.Contains(v) })
}

// Subtract returns a new pool with the variants of p absent from other.
func (p *Pool) Subtract(other *Pool) *Pool {
	return p.Filter(func(v *Variant) bool { return !other.Contains(v) })
}

// appendSorted appends to a contig whose input is already in stored order.
func (p *Pool) appendSorted(chrom string, k Key, v *Variant) {
	b := p.contigs[chrom]
	if b == nil {
		b = &bucket{}
		p.contigs[chrom] = b
	}
	b.keys = append(b.keys, k)
	b.variants = append(b.variants, v)
	p.size++
}
