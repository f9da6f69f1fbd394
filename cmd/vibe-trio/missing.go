package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-trio/internal/annotate"
	"github.com/inodb/vibe-trio/internal/datasource/popfreq"
	"github.com/inodb/vibe-trio/internal/output"
	"github.com/inodb/vibe-trio/internal/tabix"
	"github.com/inodb/vibe-trio/internal/variant"
)

// DefaultMinFreq is the population frequency above which an uncalled site
// inside the capture is reported.
const DefaultMinFreq = 0.05

func newMissingCmd() *cobra.Command {
	var (
		sourceName  string
		minFreq     float64
		inputFormat string
		sample      string
		outputFile  string
	)

	cmd := &cobra.Command{
		Use:   "missing <input-file>",
		Short: "List common population variants inside the capture that were not called",
		Long: `Scan a population-frequency source over the merged capture intervals and
report sites at or above --min-freq that are absent from the input calls.
Many such sites point at coverage gaps or a mismatched capture kit.`,
		Example: `  vibe-trio missing --capture exome.bed --source gnomad child.vcf.gz
  vibe-trio missing --capture exome.bed --source gnomad --min-freq 0.2 -o missing.tsv child.vcf.gz`,
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
			return runMissing(s, logger, sourceName, minFreq, args[0], inputFormat, sample, outputFile)
		},
	}

	cmd.Flags().StringVar(&sourceName, "source", "", "Name of a configured popfreq source (default: the first one)")
	cmd.Flags().Float64Var(&minFreq, "min-freq", DefaultMinFreq, "Minimum population allele frequency")
	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format: vcf, maf (auto-detected if not specified)")
	cmd.Flags().StringVar(&sample, "sample", "", "Sample to read (default: first VCF sample, every MAF row)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	return cmd
}

// popfreqSource returns the named popfreq source config, or the first one.
func popfreqSource(sources []sourceConfig, name string) (sourceConfig, error) {
	for _, cfg := range sources {
		if cfg.Family != "popfreq" {
			continue
		}
		if name == "" || cfg.Name == name {
			return cfg, nil
		}
	}
	if name == "" {
		return sourceConfig{}, errors.New("no popfreq source configured")
	}
	return sourceConfig{}, fmt.Errorf("no popfreq source named %q", name)
}

func runMissing(s settings, logger *zap.Logger, sourceName string, minFreq float64, input, format, sample, outputFile string) error {
	if s.Capture == "" {
		return errors.New("missing needs a capture BED: pass --capture or set capture in the config")
	}
	cfg, err := popfreqSource(s.Sources, sourceName)
	if err != nil {
		return err
	}

	pool, err := readPool(input, format, sample)
	if err != nil {
		return err
	}

	// Only the capture and the chosen source are needed here.
	p, err := newPipeline(settings{Capture: s.Capture, DB: s.DB}, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	is, err := p.buildSource(cfg)
	if err != nil {
		return err
	}
	opener := is.opener
	if opener == nil {
		opener = tabix.NewOpener(is.src.Layout())
	}
	idx, err := opener(is.src.IndexPath())
	if err != nil {
		return fmt.Errorf("open %s: %w", is.src.Name(), err)
	}
	defer idx.Close()

	missing, err := annotate.MissingCommon(idx, is.src.Layout(), p.capture, pool, minFreq, popfreq.Frequency)
	if err != nil {
		return err
	}
	logger.Info("common variants missing from calls",
		zap.String("source", is.src.Name()),
		zap.Float64("min_freq", minFreq),
		zap.Int("variants", len(missing)))

	found, err := variant.PoolOf(missing...)
	if err != nil {
		return err
	}
	out, closeOut, err := createOutput(outputFile)
	if err != nil {
		return err
	}
	if err := output.NewPoolWriter(out).WritePool(found); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}
