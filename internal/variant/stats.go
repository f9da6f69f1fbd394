package variant

// Stats summarizes the composition of a pool.
type Stats struct {
	Total        int
	SNV          int
	MNV          int
	Insertion    int
	Deletion     int
	Symbolic     int
	Transitions  int
	Transversion int
	ByZygosity   map[Zygosity]int
	ByContig     map[string]int
}

// TiTv returns the transition/transversion ratio of the SNVs, or 0 when the
// pool holds no transversions.
func (s Stats) TiTv() float64 {
	if s.Transversion == 0 {
		return 0
	}
	return float64(s.Transitions) / float64(s.Transversion)
}

// Stats computes aggregate counts over the pool.
func (p *Pool) Stats() Stats {
	s := Stats{
		ByZygosity: make(map[Zygosity]int),
		ByContig:   make(map[string]int),
	}
	for chrom, b := range p.contigs {
		s.ByContig[chrom] += len(b.variants)
		for i, v := range b.variants {
			s.Total++
			s.ByZygosity[v.Zygosity]++

			k := b.keys[i]
			switch {
			case k.Symbolic:
				s.Symbolic++
			case k.Ref == Gap:
				s.Insertion++
			case k.Alt == Gap:
				s.Deletion++
			case len(k.Ref) == 1 && len(k.Alt) == 1:
				s.SNV++
				if isTransition(k.Ref[0], k.Alt[0]) {
					s.Transitions++
				} else {
					s.Transversion++
				}
			default:
				s.MNV++
			}
		}
	}
	return s
}

func isTransition(ref, alt byte) bool {
	purine := func(b byte) bool { return b == 'A' || b == 'G' || b == 'a' || b == 'g' }
	return purine(ref) == purine(alt)
}
