// Package interval provides per-contig sets of half-open genomic ranges.
package interval

import "sort"

// Interval is a half-open range [Begin, End) on a contig with an optional
// payload (e.g. a gene name from a BED name column).
type Interval struct {
	Contig  string
	Begin   int64
	End     int64
	Payload any
}

// Empty reports whether the interval covers no positions. Reversed ranges
// are empty.
func (iv Interval) Empty() bool {
	return iv.Begin >= iv.End
}

// Contains reports whether pos lies in [Begin, End).
func (iv Interval) Contains(pos int64) bool {
	return iv.Begin <= pos && pos < iv.End
}

// Overlaps reports whether the interval shares a position with [begin, end).
func (iv Interval) Overlaps(begin, end int64) bool {
	return !iv.Empty() && begin < end && iv.Begin < end && begin < iv.End
}

// Set is an immutable collection of intervals answering overlap queries in
// O(log n + k) per contig. Safe for concurrent readers.
type Set struct {
	contigs map[string]*tree
	size    int
}

// tree is a begin-sorted slice with a suffix-max of ends for pruning.
type tree struct {
	intervals []Interval
	maxEnd    []int64 // maxEnd[i] = max(End) for intervals[:i+1]
}

// Build creates a set from intervals. Reversed ranges are kept but never
// match a query.
func Build(intervals []Interval) *Set {
	byContig := make(map[string][]Interval)
	for _, iv := range intervals {
		byContig[iv.Contig] = append(byContig[iv.Contig], iv)
	}

	s := &Set{contigs: make(map[string]*tree, len(byContig)), size: len(intervals)}
	for contig, ivs := range byContig {
		s.contigs[contig] = buildTree(ivs)
	}
	return s
}

func buildTree(ivs []Interval) *tree {
	sort.SliceStable(ivs, func(i, j int) bool {
		return ivs[i].Begin < ivs[j].Begin
	})

	// Prefix-max array: maxEnd[i] = max(end) for intervals[:i+1]. Empty
	// intervals do not raise the bound.
	maxEnd := make([]int64, len(ivs))
	var running int64
	for i, iv := range ivs {
		if !iv.Empty() && iv.End > running {
			running = iv.End
		}
		maxEnd[i] = running
	}
	return &tree{intervals: ivs, maxEnd: maxEnd}
}

// visit calls fn for every non-empty interval overlapping [begin, end),
// scanning right to left; fn returns false to stop.
func (t *tree) visit(begin, end int64, fn func(Interval) bool) {
	if t == nil || begin >= end {
		return
	}
	// Candidates must start before end.
	hi := sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].Begin >= end
	})
	for i := hi - 1; i >= 0; i-- {
		// No interval in [0, i] reaches past begin.
		if t.maxEnd[i] <= begin {
			break
		}
		if t.intervals[i].Overlaps(begin, end) && !fn(t.intervals[i]) {
			return
		}
	}
}

// Contains reports whether any interval on contig contains pos.
func (s *Set) Contains(contig string, pos int64) bool {
	return s.Intersects(contig, pos, pos+1)
}

// Intersects reports whether any interval on contig overlaps [begin, end).
func (s *Set) Intersects(contig string, begin, end int64) bool {
	found := false
	s.contigs[contig].visit(begin, end, func(Interval) bool {
		found = true
		return false
	})
	return found
}

// Overlapping returns the intervals on contig overlapping [begin, end) in
// ascending begin order.
func (s *Set) Overlapping(contig string, begin, end int64) []Interval {
	var result []Interval
	s.contigs[contig].visit(begin, end, func(iv Interval) bool {
		result = append(result, iv)
		return true
	})
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// Merge returns a new set in which overlapping intervals of each contig are
// coalesced. An interval is folded into the current one while its Begin is
// before the current End. Payloads are dropped and empty ranges removed.
func (s *Set) Merge() *Set {
	var merged []Interval
	for _, contig := range s.Contigs() {
		var cur *Interval
		for _, iv := range s.contigs[contig].intervals {
			if iv.Empty() {
				continue
			}
			if cur != nil && iv.Begin < cur.End {
				cur.End = max(cur.End, iv.End)
				continue
			}
			merged = append(merged, Interval{Contig: contig, Begin: iv.Begin, End: iv.End})
			cur = &merged[len(merged)-1]
		}
	}
	return Build(merged)
}

// Intervals returns the intervals of a contig sorted by begin.
func (s *Set) Intervals(contig string) []Interval {
	if t := s.contigs[contig]; t != nil {
		return t.intervals
	}
	return nil
}

// Len returns the number of intervals in the set.
func (s *Set) Len() int {
	return s.size
}

// Contigs returns the sorted contig names of the set.
func (s *Set) Contigs() []string {
	contigs := make([]string, 0, len(s.contigs))
	for c := range s.contigs {
		contigs = append(contigs, c)
	}
	sort.Strings(contigs)
	return contigs
}

// TotalLength returns the number of positions covered by the set.
func (s *Set) TotalLength() int64 {
	var n int64
	m := s.Merge()
	for _, t := range m.contigs {
		for _, iv := range t.intervals {
			n += iv.End - iv.Begin
		}
	}
	return n
}
