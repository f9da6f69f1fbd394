// Package tabix reads block-compressed, tabix-indexed reference databases.
package tabix

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"
	"github.com/biogo/hts/tabix"
	"github.com/klauspost/compress/gzip"

	"github.com/inodb/vibe-trio/internal/match"
)

// Reader is a single handle on a bgzf file and its .tbi index. A Reader is
// not safe for concurrent queries: the bgzf stream is repositioned by every
// query.
type Reader struct {
	path   string
	file   *os.File
	bgzf   *bgzf.Reader
	index  *tabix.Index
	layout match.Layout
}

// Open opens path and path.tbi. Every failure here is a setup error.
func Open(path string, layout match.Layout) (*Reader, error) {
	idx, err := readIndex(path + ".tbi")
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open indexed file: %w", err)
	}
	bg, err := bgzf.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create bgzf reader for %s: %w", path, err)
	}

	return &Reader{path: path, file: f, bgzf: bg, index: idx, layout: layout}, nil
}

func readIndex(path string) (*tabix.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tabix index: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read tabix index %s: %w", path, err)
	}
	defer gz.Close()

	idx, err := tabix.ReadFrom(gz)
	if err != nil {
		return nil, fmt.Errorf("parse tabix index %s: %w", path, err)
	}
	return idx, nil
}

// NewOpener returns a match.Opener producing one independent Reader per call.
func NewOpener(layout match.Layout) match.Opener {
	return func(path string) (match.Index, error) {
		return Open(path, layout)
	}
}

// Query returns the lines overlapping the 1-based inclusive window
// [start, end]. The contig is tried as given and with the "chr" prefix
// toggled; a contig unknown under both names is an error.
func (r *Reader) Query(contig string, start, end int64) (match.Lines, error) {
	var chunks []bgzf.Chunk
	var queryErr error
	name, ok := match.ResolveContig(contig, func(name string) bool {
		c, err := r.index.Chunks(name, int(start-1), int(end))
		if err != nil {
			queryErr = err
			return false
		}
		chunks = c
		return true
	})
	if !ok {
		return nil, fmt.Errorf("query %s:%d-%d in %s: %w", contig, start, end, r.path,
			errors.Join(&match.UnknownContigError{Contig: contig}, queryErr))
	}
	if len(chunks) == 0 {
		return match.NewSliceLines(nil), nil
	}

	cr, err := index.NewChunkReader(r.bgzf, chunks)
	if err != nil {
		return nil, fmt.Errorf("read chunks for %s:%d-%d: %w", contig, start, end, err)
	}
	return &lines{
		reader: bufio.NewReader(cr),
		layout: r.layout,
		contig: name,
		start:  start,
		end:    end,
	}, nil
}

// Close releases the bgzf stream and the underlying file.
func (r *Reader) Close() error {
	err := r.bgzf.Close()
	if cerr := r.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// lines streams chunk data, dropping meta lines and records that only share
// a bin with the window.
type lines struct {
	reader *bufio.Reader
	layout match.Layout
	contig string
	start  int64
	end    int64
}

func (l *lines) Next() (string, error) {
	for {
		line, err := l.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" || line[0] == '#' {
			if err != nil {
				return "", err
			}
			continue
		}
		if !overlaps(l.layout, line, l.contig, l.start, l.end) {
			if err != nil {
				return "", err
			}
			continue
		}
		return line, nil
	}
}

func (l *lines) Close() error {
	l.reader = nil
	return nil
}

// overlaps reports whether the record on line lies on contig and covers any
// base of the 1-based inclusive window [start, end]. Lines that cannot be
// parsed are passed through so the matcher can count them as skipped.
func overlaps(layout match.Layout, line, contig string, start, end int64) bool {
	rec, err := layout.Parse(line)
	if err != nil {
		return true
	}
	return rec.Chrom == contig && rec.Pos <= end && rec.End() >= start
}
