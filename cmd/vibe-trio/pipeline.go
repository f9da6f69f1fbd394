package main

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-trio/internal/annotate"
	"github.com/inodb/vibe-trio/internal/datasource/clinvar"
	"github.com/inodb/vibe-trio/internal/datasource/conservation"
	"github.com/inodb/vibe-trio/internal/datasource/popfreq"
	"github.com/inodb/vibe-trio/internal/datasource/region"
	"github.com/inodb/vibe-trio/internal/duckdb"
	"github.com/inodb/vibe-trio/internal/genes"
	"github.com/inodb/vibe-trio/internal/interval"
	"github.com/inodb/vibe-trio/internal/maf"
	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/variant"
	"github.com/inodb/vibe-trio/internal/vcf"
)

// Source backends.
const (
	backendTabix  = "tabix"
	backendDuckDB = "duckdb"
)

// indexedSource is a configured source with the opener for its backend.
// A nil opener reads the tabix-indexed file at the source path.
type indexedSource struct {
	src    annotate.Source
	opener match.Opener
}

// pipeline holds everything loaded once per run and applied to each pool.
type pipeline struct {
	logger      *zap.Logger
	threads     int
	capture     *interval.Set
	sources     []indexedSource
	regions     []*region.Source
	geneRegions *genes.Regions
	synonyms    *genes.Synonyms
	store       *duckdb.Store
}

// newPipeline loads the capture set, gene tables, region flags and sources
// named in s. The DuckDB store is opened when s.DB is set.
func newPipeline(s settings, logger *zap.Logger) (*pipeline, error) {
	p := &pipeline{logger: logger, threads: s.Threads}

	if s.DB != "" {
		store, err := duckdb.Open(s.DB)
		if err != nil {
			return nil, err
		}
		p.store = store
	}

	if s.Capture != "" {
		capture, err := interval.LoadBED(s.Capture)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("load capture: %w", err)
		}
		logger.Info("loaded capture", zap.String("path", s.Capture),
			zap.Int("intervals", capture.Len()), zap.Int64("bases", capture.Merge().TotalLength()))
		p.capture = capture
	}

	if s.Synonyms != "" {
		syn, err := genes.LoadSynonyms(s.Synonyms)
		if err != nil {
			p.Close()
			return nil, err
		}
		logger.Info("loaded gene synonyms", zap.Int("genes", syn.Len()))
		p.synonyms = syn
	}

	if s.GeneRegions != "" {
		regions, err := genes.LoadRegions(s.GeneRegions)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.geneRegions = regions
	}

	for _, r := range []struct{ flag, path string }{
		{region.BadRegion, s.BadRegions},
		{region.LowComplexity, s.LowComplexity},
	} {
		if r.path == "" {
			continue
		}
		src, err := region.Load(r.flag, r.path)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.regions = append(p.regions, src)
	}

	for _, cfg := range s.Sources {
		is, err := p.buildSource(cfg)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.sources = append(p.sources, is)
	}
	return p, nil
}

// buildSource maps a config entry to its datasource family and backend.
func (p *pipeline) buildSource(cfg sourceConfig) (indexedSource, error) {
	var src annotate.Source
	switch strings.ToLower(cfg.Family) {
	case "popfreq":
		src = popfreq.NewSource(cfg.Name, cfg.Path)
	case "clinvar":
		src = clinvar.NewSource(cfg.Name, cfg.Path)
	case "conservation":
		src = conservation.NewSource(cfg.Name, cfg.Path, cfg.ScoreColumn)
	default:
		return indexedSource{}, fmt.Errorf("source %q: unknown family %q (want popfreq, clinvar or conservation)", cfg.Name, cfg.Family)
	}

	switch strings.ToLower(cfg.Backend) {
	case "", backendTabix:
		if cfg.Path == "" {
			return indexedSource{}, fmt.Errorf("source %q: path is required for the tabix backend", src.Name())
		}
		return indexedSource{src: src}, nil
	case backendDuckDB:
		if p.store == nil {
			return indexedSource{}, fmt.Errorf("source %q: duckdb backend needs --db", src.Name())
		}
		table := cfg.Table
		if table == "" {
			table = src.Name()
		}
		if stale, err := p.store.Stale(table); err != nil {
			return indexedSource{}, fmt.Errorf("source %q: %w", src.Name(), err)
		} else if stale {
			p.logger.Warn("reference table is stale or was never loaded",
				zap.String("source", src.Name()), zap.String("table", table))
		}
		return indexedSource{src: src, opener: p.store.Opener(table)}, nil
	default:
		return indexedSource{}, fmt.Errorf("source %q: unknown backend %q (want tabix or duckdb)", src.Name(), cfg.Backend)
	}
}

// annotate runs every source, then the gene regions and region flags, over pool.
func (p *pipeline) annotate(pool *variant.Pool) error {
	for _, is := range p.sources {
		d := annotate.NewDriver(
			annotate.WithThreads(p.threads),
			annotate.WithCapture(p.capture),
			annotate.WithOpener(is.opener),
			annotate.WithLogger(p.logger),
		)
		if _, err := d.AnnotateAll(pool, is.src); err != nil {
			return err
		}
	}

	if p.geneRegions != nil {
		n := p.geneRegions.Annotate(pool, p.synonyms)
		p.logger.Debug("assigned genes from regions", zap.Int("variants", n))
	}
	for _, r := range p.regions {
		n := r.Annotate(pool)
		p.logger.Info("flagged variants", zap.String("flag", r.Name()), zap.Int("variants", n))
	}
	return nil
}

// Close releases the DuckDB store, if any.
func (p *pipeline) Close() error {
	if p.store == nil {
		return nil
	}
	err := p.store.Close()
	p.store = nil
	return err
}

// readPool reads the variants of one sample from a VCF or MAF file. An
// empty format is detected from the path.
func readPool(path, format, sample string) (*variant.Pool, error) {
	if format == "" {
		format = detectInputFormat(path)
	}

	var parser vcf.VariantParser
	switch format {
	case "vcf":
		p, err := vcf.NewParser(path)
		if err != nil {
			return nil, err
		}
		if sample != "" {
			if err := p.SelectSample(sample); err != nil {
				p.Close()
				return nil, err
			}
		}
		parser = p
	case "maf":
		p, err := maf.NewParser(path)
		if err != nil {
			return nil, err
		}
		if sample != "" {
			if err := p.SelectSample(sample); err != nil {
				p.Close()
				return nil, err
			}
		}
		parser = p
	default:
		return nil, fmt.Errorf("unknown input format %q (want vcf or maf)", format)
	}
	defer parser.Close()

	pool, err := vcf.ReadPool(parser)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return pool, nil
}

// logPoolStats reports the composition of a freshly read pool.
func logPoolStats(logger *zap.Logger, path string, pool *variant.Pool) {
	st := pool.Stats()
	logger.Info("read variants",
		zap.String("path", path),
		zap.Int("variants", st.Total),
		zap.Int("snv", st.SNV),
		zap.Int("insertions", st.Insertion),
		zap.Int("deletions", st.Deletion),
		zap.Int("het", st.ByZygosity[variant.Heterozygous]),
		zap.Int("hom", st.ByZygosity[variant.Homozygous]),
		zap.Float64("titv", st.TiTv()))
}
