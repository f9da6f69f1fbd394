package annotate

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-trio/internal/interval"
	"github.com/inodb/vibe-trio/internal/match"
	"github.com/inodb/vibe-trio/internal/tabix"
	"github.com/inodb/vibe-trio/internal/variant"
)

const (
	// DefaultThreads is the worker count used when none is configured.
	DefaultThreads = 4
	// MaxThreads caps the number of contigs annotated at once.
	MaxThreads = 24
)

// Driver annotates a pool against one source at a time, one task per
// contig. Each task opens its own index handle, so handles are never shared
// between goroutines.
type Driver struct {
	Threads int
	// Capture restricts lookups to variants overlapping the set. Nil
	// annotates everything.
	Capture *interval.Set
	// Opener produces index handles. Nil opens tabix files with the
	// source's layout.
	Opener match.Opener
	Logger *zap.Logger
}

// Option configures a Driver.
type Option func(*Driver)

// WithThreads sets the number of concurrent contig tasks.
func WithThreads(n int) Option {
	return func(d *Driver) { d.Threads = n }
}

// WithCapture restricts annotation to the capture set.
func WithCapture(s *interval.Set) Option {
	return func(d *Driver) { d.Capture = s }
}

// WithOpener replaces the default tabix opener.
func WithOpener(o match.Opener) Option {
	return func(d *Driver) { d.Opener = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) { d.Logger = l }
}

// NewDriver creates a driver with DefaultThreads workers and a no-op logger.
func NewDriver(opts ...Option) *Driver {
	d := &Driver{Threads: DefaultThreads, Logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) threads() int {
	switch {
	case d.Threads < 1:
		return 1
	case d.Threads > MaxThreads:
		return MaxThreads
	}
	return d.Threads
}

func (d *Driver) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// AnnotateAll looks up every pooled variant in src and returns the number of
// variants that received a match. Tasks do not cancel each other: when tasks
// fail, the first error is returned after all of them have finished, along
// with the matches made by the tasks that succeeded.
func (d *Driver) AnnotateAll(pool *variant.Pool, src Source) (int, error) {
	opener := d.Opener
	if opener == nil {
		opener = tabix.NewOpener(src.Layout())
	}

	contigs := pool.Contigs()
	counts := make([]int, len(contigs))
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(d.threads())
	for i, chrom := range contigs {
		i, chrom := i, chrom
		g.Go(func() error {
			n, err := d.annotateContig(chrom, pool.Variants(chrom), src, opener)
			counts[i] = n
			if err != nil {
				return fmt.Errorf("annotate %s with %s: %w", chrom, src.Name(), err)
			}
			return nil
		})
	}
	err := g.Wait()

	total := 0
	for _, n := range counts {
		total += n
	}
	d.logger().Info("annotated pool",
		zap.String("source", src.Name()),
		zap.Int("variants", pool.Len()),
		zap.Int("matched", total),
		zap.Int("contigs", len(contigs)),
		zap.Duration("elapsed", time.Since(start)))
	return total, err
}

func (d *Driver) annotateContig(chrom string, variants []*variant.Variant, src Source, opener match.Opener) (int, error) {
	idx, err := opener(src.IndexPath())
	if err != nil {
		return 0, err
	}
	defer idx.Close()

	m := match.NewMatcher(src.Layout())
	m.SetLogger(d.logger())
	defaulter, _ := src.(Defaulter)

	matched, offTarget := 0, 0
	for _, v := range variants {
		if !d.onTarget(v) {
			offTarget++
			continue
		}
		_, ok, err := m.Match(v, idx, src.Extract)
		if err != nil {
			return matched, err
		}
		if ok {
			matched++
		} else if defaulter != nil {
			defaulter.ApplyDefault(v)
		}
	}

	stats := m.Stats()
	d.logger().Debug("annotated contig",
		zap.String("source", src.Name()),
		zap.String("chrom", chrom),
		zap.Int("matched", matched),
		zap.Int("off_target", offTarget),
		zap.Int("query_errors", stats.QueryErrors),
		zap.Int("skipped_lines", stats.SkippedLines))
	return matched, nil
}

// onTarget reports whether v overlaps the capture set, trying the contig
// with and without the "chr" prefix.
func (d *Driver) onTarget(v *variant.Variant) bool {
	if d.Capture == nil {
		return true
	}
	return InCapture(d.Capture, v)
}

// InCapture reports whether any base of v lies inside the capture set.
func InCapture(capture *interval.Set, v *variant.Variant) bool {
	end := max(v.End, v.Pos)
	_, ok := match.ResolveContig(v.Chrom, func(name string) bool {
		return capture.Intersects(name, v.Pos-1, end)
	})
	return ok
}

// AnnotateWith annotates pool from the tabix-indexed file at path using
// extract on matching lines.
func AnnotateWith(pool *variant.Pool, path string, layout match.Layout, extract match.ExtractFunc, threads int) (int, error) {
	d := NewDriver(WithThreads(threads))
	return d.AnnotateAll(pool, &FuncSource{Path: path, LineLayout: layout, ExtractFn: extract})
}
