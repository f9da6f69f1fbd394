package variant

import "strings"

// Zygosity is the genotype state of a sample at a variant site.
type Zygosity uint8

const (
	ZygosityUnknown Zygosity = iota
	Heterozygous
	Homozygous
	Hemizygous
)

func (z Zygosity) String() string {
	switch z {
	case Heterozygous:
		return "het"
	case Homozygous:
		return "hom"
	case Hemizygous:
		return "hemi"
	default:
		return "unknown"
	}
}

// ParseZygosity accepts the short names produced by String as well as the
// spelled-out forms used in tabular inputs.
func ParseZygosity(s string) Zygosity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "het", "heterozygous", "heterozygote":
		return Heterozygous
	case "hom", "homozygous", "homozygote", "hom_alt", "homozygous_alternate":
		return Homozygous
	case "hemi", "hemizygous", "hemizygote":
		return Hemizygous
	default:
		return ZygosityUnknown
	}
}

// Property names a numeric value attached to a variant by an annotator.
type Property uint8

const (
	PopFreq         Property = iota // population allele frequency
	PopAlleleCount                  // population alternate allele count
	PopAlleleNumber                 // population total allele number
	ClinPathogenic                  // 1 if clinically (likely) pathogenic
	Conservation                    // per-allele conservation/pathogenicity score
	Relevance                       // caller-assigned ranking score
	numProperties
)

var propertyNames = [numProperties]string{
	"pop_freq",
	"pop_allele_count",
	"pop_allele_number",
	"clin_pathogenic",
	"conservation",
	"relevance",
}

func (p Property) String() string {
	if p < numProperties {
		return propertyNames[p]
	}
	return "unknown_property"
}

// AllProperties lists every property in column order.
func AllProperties() []Property {
	ps := make([]Property, numProperties)
	for i := range ps {
		ps[i] = Property(i)
	}
	return ps
}

// Field names a text annotation attached to a variant by an annotator.
type Field uint8

const (
	Gene        Field = iota // gene symbol
	Consequence              // SO consequence term(s), comma-separated
	ClinSig                  // clinical significance
	ClinDisease              // clinical disease name
	DatabaseID               // identifier of the matched database record
	RegionFlag               // bad-region / low-complexity flags
	numFields
)

var fieldNames = [numFields]string{
	"gene",
	"consequence",
	"clin_sig",
	"clin_disease",
	"database_id",
	"region_flag",
}

func (f Field) String() string {
	if f < numFields {
		return fieldNames[f]
	}
	return "unknown_field"
}

// AllFields lists every annotation field in column order.
func AllFields() []Field {
	fs := make([]Field, numFields)
	for i := range fs {
		fs[i] = Field(i)
	}
	return fs
}

// SetProperty stores a numeric property, replacing any previous value.
func (v *Variant) SetProperty(p Property, value float64) {
	if p >= numProperties {
		return
	}
	v.props[p] = value
	v.propSet |= 1 << p
}

// Property returns a numeric property and whether it has been set.
func (v *Variant) Property(p Property) (float64, bool) {
	if p >= numProperties || v.propSet&(1<<p) == 0 {
		return 0, false
	}
	return v.props[p], true
}

// SetAnnotation stores a text annotation, replacing any previous value.
func (v *Variant) SetAnnotation(f Field, value string) {
	if f >= numFields {
		return
	}
	v.annotations[f] = value
	v.annSet |= 1 << f
}

// AddAnnotation appends value to a comma-separated annotation.
func (v *Variant) AddAnnotation(f Field, value string) {
	if cur, ok := v.Annotation(f); ok && cur != "" {
		for _, term := range strings.Split(cur, ",") {
			if term == value {
				return
			}
		}
		v.SetAnnotation(f, cur+","+value)
		return
	}
	v.SetAnnotation(f, value)
}

// Annotation returns a text annotation and whether it has been set.
func (v *Variant) Annotation(f Field) (string, bool) {
	if f >= numFields || v.annSet&(1<<f) == 0 {
		return "", false
	}
	return v.annotations[f], true
}

// GeneName returns the gene annotation, or "" if none is attached.
func (v *Variant) GeneName() string {
	g, _ := v.Annotation(Gene)
	return g
}
