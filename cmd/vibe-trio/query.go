package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-trio/internal/duckdb"
	"github.com/inodb/vibe-trio/internal/output"
	"github.com/inodb/vibe-trio/internal/variant"
)

func newQueryCmd() *cobra.Command {
	var (
		genes      []string
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "query [chrom:pos:ref:alt ...]",
		Short: "Read annotated variants back from the DuckDB database",
		Long: `Print variants stored by "annotate --persist", selected by gene symbol or
by exact coordinates, in the same tab-separated layout annotate writes.`,
		Example: `  vibe-trio query --db results.duckdb --gene KRAS
  vibe-trio query --db results.duckdb 12:25245350:C:A`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			logger, err := newLogger(s.Verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runQuery(s, logger, genes, args, outputFile)
		},
	}

	cmd.Flags().StringSliceVar(&genes, "gene", nil, "Gene symbol to select (repeatable)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// parseLocus parses chrom:pos:ref:alt.
func parseLocus(s string) (chrom string, pos int64, ref, alt string, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return "", 0, "", "", fmt.Errorf("invalid variant %q: expected chrom:pos:ref:alt", s)
	}
	pos, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil || pos < 1 {
		return "", 0, "", "", fmt.Errorf("invalid position in %q", s)
	}
	return parts[0], pos, parts[2], parts[3], nil
}

func runQuery(s settings, logger *zap.Logger, genes, loci []string, outputFile string) error {
	if s.DB == "" {
		return errors.New("query needs a database file: pass --db or set db in the config")
	}
	if len(genes) == 0 && len(loci) == 0 {
		return errors.New("nothing to query: pass --gene or at least one chrom:pos:ref:alt")
	}

	store, err := duckdb.Open(s.DB)
	if err != nil {
		return err
	}
	defer store.Close()

	var found []*variant.Variant
	for _, g := range genes {
		vs, err := store.VariantsByGene(g)
		if err != nil {
			return err
		}
		found = append(found, vs...)
	}
	for _, l := range loci {
		chrom, pos, ref, alt, err := parseLocus(l)
		if err != nil {
			return err
		}
		v, err := store.LookupVariant(chrom, pos, ref, alt)
		if err != nil {
			return err
		}
		if v == nil {
			logger.Warn("variant not stored", zap.String("variant", l))
			continue
		}
		found = append(found, v)
	}

	// A variant selected both ways is printed once.
	pool := variant.NewPool()
	seen := make(map[variant.Key]bool, len(found))
	for _, v := range found {
		if seen[v.Key()] {
			continue
		}
		seen[v.Key()] = true
		if err := pool.Add(v); err != nil {
			return err
		}
	}
	logger.Debug("query results", zap.Int("variants", pool.Len()))

	out, closeOut, err := createOutput(outputFile)
	if err != nil {
		return err
	}
	if err := output.NewPoolWriter(out).WritePool(pool); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}
