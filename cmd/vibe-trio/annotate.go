package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-trio/internal/output"
)

func newAnnotateCmd() *cobra.Command {
	var (
		inputFormat string
		sample      string
		outputFile  string
		persist     bool
	)

	cmd := &cobra.Command{
		Use:   "annotate <input-file>",
		Short: "Annotate variants in a VCF or MAF file",
		Long: `Annotate the variants of one sample with every configured reference source,
gene regions and region flags, and write them as a tab-delimited table.`,
		Example: `  vibe-trio annotate calls.vcf.gz
  vibe-trio annotate --sample proband -o proband.tsv trio.vcf.gz
  vibe-trio annotate --db trio.duckdb --persist data_mutations.txt`,
		Args: cobra.ExactArgs(1),
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
			return runAnnotate(s, logger, args[0], inputFormat, sample, outputFile, persist)
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format: vcf, maf (auto-detected if not specified)")
	cmd.Flags().StringVar(&sample, "sample", "", "Sample to read (default: first VCF sample, every MAF row)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&persist, "persist", false, "Replace the variants stored in the --db file with the annotated ones")
	return cmd
}

func runAnnotate(s settings, logger *zap.Logger, input, format, sample, outputFile string, persist bool) error {
	pool, err := readPool(input, format, sample)
	if err != nil {
		return err
	}
	logPoolStats(logger, input, pool)

	p, err := newPipeline(s, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.annotate(pool); err != nil {
		return err
	}

	if persist {
		if p.store == nil {
			logger.Warn("--persist ignored: no --db configured")
		} else {
			if err := p.store.ClearVariants(); err != nil {
				return err
			}
			n, err := p.store.WriteVariants(pool)
			if err != nil {
				return err
			}
			logger.Info("stored variants", zap.String("db", s.DB), zap.Int("variants", n))
		}
	}

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
