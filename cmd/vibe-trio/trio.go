package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-trio/internal/inherit"
	"github.com/inodb/vibe-trio/internal/output"
	"github.com/inodb/vibe-trio/internal/variant"
)

// member names one trio member: a file and, for multi-sample VCFs, a sample.
type member struct {
	role   string
	path   string
	sample string
}

type trioOptions struct {
	child      member
	parentA    member
	parentB    member
	format     string
	outputFile string
}

func newTrioCmd() *cobra.Command {
	opts := trioOptions{
		child:   member{role: "child"},
		parentA: member{role: "parent A"},
		parentB: member{role: "parent B"},
	}

	cmd := &cobra.Command{
		Use:   "trio",
		Short: "Find recessive and compound-heterozygous candidates in a trio",
		Long: `Annotate the child and parent call sets, then report damaging variants
homozygous in the child only (recessive) and pairs of damaging child
heterozygous variants in one gene inherited from different parents
(compound heterozygous). Parent B is optional.

Parents default to the child file, so a multi-sample VCF needs only sample
names.`,
		Example: `  vibe-trio trio --child child.vcf --parent-a mother.vcf --parent-b father.vcf
  vibe-trio trio --child trio.vcf.gz --child-sample P1 --parent-a-sample M1 --parent-b-sample F1
  vibe-trio trio --child child.vcf --parent-a mother.vcf -o hits.tsv`,
		Args: cobra.NoArgs,
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
			return runTrio(s, logger, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.child.path, "child", "", "Child VCF or MAF file")
	f.StringVar(&opts.child.sample, "child-sample", "", "Child sample name")
	f.StringVar(&opts.parentA.path, "parent-a", "", "Parent A file (default: the child file)")
	f.StringVar(&opts.parentA.sample, "parent-a-sample", "", "Parent A sample name")
	f.StringVar(&opts.parentB.path, "parent-b", "", "Parent B file (default: the child file when --parent-b-sample is set)")
	f.StringVar(&opts.parentB.sample, "parent-b-sample", "", "Parent B sample name")
	f.StringVar(&opts.format, "input-format", "", "Input format: vcf, maf (auto-detected if not specified)")
	f.StringVarP(&opts.outputFile, "output", "o", "", "Output file (default: stdout)")
	_ = cmd.MarkFlagRequired("child")
	return cmd
}

// resolveMembers fills parent paths from the child file and reports
// whether parent B takes part.
func (o *trioOptions) resolveMembers() (bool, error) {
	if o.parentA.path == "" {
		if o.parentA.sample == "" {
			return false, errors.New("parent A needs --parent-a or --parent-a-sample")
		}
		o.parentA.path = o.child.path
	}
	if o.parentB.path == "" && o.parentB.sample != "" {
		o.parentB.path = o.child.path
	}
	return o.parentB.path != "", nil
}

func runTrio(s settings, logger *zap.Logger, opts trioOptions) error {
	hasParentB, err := opts.resolveMembers()
	if err != nil {
		return err
	}

	p, err := newPipeline(s, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	members := []member{opts.child, opts.parentA}
	if hasParentB {
		members = append(members, opts.parentB)
	}
	pools := make([]*variant.Pool, len(members))
	for i, m := range members {
		pool, err := readPool(m.path, opts.format, m.sample)
		if err != nil {
			return fmt.Errorf("%s: %w", m.role, err)
		}
		logPoolStats(logger, m.path, pool)
		if err := p.annotate(pool); err != nil {
			return fmt.Errorf("%s: %w", m.role, err)
		}
		logger.Info("annotated trio member", zap.String("role", m.role),
			zap.String("path", m.path), zap.Int("variants", pool.Len()))
		pools[i] = pool
	}

	child, parentA := pools[0], pools[1]
	var parentB *variant.Pool
	if hasParentB {
		parentB = pools[2]
	}

	recessive := inherit.Recessive(child, parentA, parentB, inherit.DefaultScore)

	var resolver inherit.Resolver
	if p.synonyms != nil {
		resolver = p.synonyms
	}
	compHets, err := inherit.CompoundHets(child, parentA, parentB, inherit.Options{
		Resolver: resolver,
		Logger:   logger,
	})
	if errors.Is(err, inherit.ErrNoCandidates) {
		return fmt.Errorf("child %s: %w: check that the input carries consequences (INFO GENE/CONSEQUENCE, ANN or CSQ, or MAF Variant_Classification)", opts.child.path, err)
	}
	if err != nil {
		return err
	}
	logger.Info("inheritance analysis finished",
		zap.Int("recessive", len(recessive)), zap.Int("compound_het", len(compHets)))

	out, closeOut, err := createOutput(opts.outputFile)
	if err != nil {
		return err
	}
	if err := writeHits(output.NewHitWriter(out, inherit.DefaultScore), recessive, compHets); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func writeHits(w *output.HitWriter, recessive []*variant.Variant, compHets []inherit.CompoundHet) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if err := w.WriteRecessive(recessive); err != nil {
		return err
	}
	if err := w.WriteCompoundHets(compHets); err != nil {
		return err
	}
	return w.Flush()
}
