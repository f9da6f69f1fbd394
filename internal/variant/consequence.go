package variant

import "strings"

// Impact levels for variant consequences.
const (
	ImpactHigh     = "HIGH"
	ImpactModerate = "MODERATE"
	ImpactLow      = "LOW"
	ImpactModifier = "MODIFIER"
)

// Consequence types (Sequence Ontology terms).
const (
	// HIGH impact
	ConsequenceStopGained        = "stop_gained"
	ConsequenceFrameshiftVariant = "frameshift_variant"
	ConsequenceStopLost          = "stop_lost"
	ConsequenceStartLost         = "start_lost"
	ConsequenceSpliceAcceptor    = "splice_acceptor_variant"
	ConsequenceSpliceDonor       = "splice_donor_variant"

	// MODERATE impact
	ConsequenceMissenseVariant  = "missense_variant"
	ConsequenceInframeInsertion = "inframe_insertion"
	ConsequenceInframeDeletion  = "inframe_deletion"

	// LOW impact
	ConsequenceSynonymousVariant = "synonymous_variant"
	ConsequenceSpliceRegion      = "splice_region_variant"
	ConsequenceStopRetained      = "stop_retained_variant"
	ConsequenceStartRetained     = "start_retained_variant"

	// MODIFIER impact
	ConsequenceIntronVariant     = "intron_variant"
	Consequence5PrimeUTR         = "5_prime_UTR_variant"
	Consequence3PrimeUTR         = "3_prime_UTR_variant"
	ConsequenceIntergenicVariant = "intergenic_variant"
)

// GetImpact returns the impact level for a given consequence type.
// For comma-separated consequences, returns the highest impact among all terms.
func GetImpact(consequence string) string {
	best := ImpactModifier
	for _, term := range splitTerms(consequence) {
		var impact string
		switch term {
		case ConsequenceStopGained, ConsequenceFrameshiftVariant,
			ConsequenceStopLost, ConsequenceStartLost,
			ConsequenceSpliceAcceptor, ConsequenceSpliceDonor:
			impact = ImpactHigh
		case ConsequenceMissenseVariant, ConsequenceInframeInsertion,
			ConsequenceInframeDeletion:
			impact = ImpactModerate
		case ConsequenceSynonymousVariant, ConsequenceSpliceRegion,
			ConsequenceStopRetained, ConsequenceStartRetained:
			impact = ImpactLow
		default:
			impact = ImpactModifier
		}
		if ImpactRank(impact) > ImpactRank(best) {
			best = impact
		}
	}
	return best
}

// ImpactRank returns numeric rank for impact comparison (higher = more severe).
func ImpactRank(impact string) int {
	switch impact {
	case ImpactHigh:
		return 3
	case ImpactModerate:
		return 2
	case ImpactLow:
		return 1
	default:
		return 0
	}
}

// IsDamaging reports whether any term of the consequence alters the protein
// or splicing: non-synonymous, splice, frameshift and stop/start changes.
// An empty (unknown) consequence is not damaging.
func IsDamaging(consequence string) bool {
	for _, term := range splitTerms(consequence) {
		switch term {
		case ConsequenceMissenseVariant, ConsequenceStopGained, ConsequenceStopLost,
			ConsequenceStartLost, ConsequenceFrameshiftVariant,
			ConsequenceSpliceAcceptor, ConsequenceSpliceDonor, ConsequenceSpliceRegion,
			ConsequenceInframeInsertion, ConsequenceInframeDeletion:
			return true
		}
	}
	return false
}

// HasDamagingConsequence applies IsDamaging to the variant's consequence.
func HasDamagingConsequence(v *Variant) bool {
	c, ok := v.Annotation(Consequence)
	return ok && IsDamaging(c)
}

func splitTerms(consequence string) []string {
	if consequence == "" {
		return nil
	}
	return strings.FieldsFunc(consequence, func(r rune) bool { return r == ',' || r == '&' })
}
