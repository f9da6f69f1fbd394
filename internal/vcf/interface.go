// Package vcf reads variant calls from VCF files into variant records.
package vcf

import (
	"fmt"

	"github.com/inodb/vibe-trio/internal/variant"
)

// VariantParser is the interface for parsers that read variants.
// Both VCF and MAF parsers implement this interface.
type VariantParser interface {
	// Next reads the next variant.
	// Returns nil, nil when there are no more variants.
	Next() (*variant.Variant, error)

	// Close closes the parser and releases resources.
	Close() error

	// LineNumber returns the current line number being processed.
	LineNumber() int
}

// ReadPool drains a parser into a new pool.
func ReadPool(p VariantParser) (*variant.Pool, error) {
	pool := variant.NewPool()
	for {
		v, err := p.Next()
		if err != nil {
			return nil, err
		}
		if v == nil {
			return pool, nil
		}
		if err := pool.Add(v); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.LineNumber(), err)
		}
	}
}
