package vcf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/inodb/vibe-trio/internal/variant"
)

// Parser reads variants from a VCF file. Multi-allelic records are split
// into one variant per alternate allele, and alleles the selected sample
// was not called with are dropped.
type Parser struct {
	reader      *bufio.Reader
	file        *os.File
	gzipReader  *gzip.Reader
	lineNumber  int
	header      []string
	sampleNames []string // sample names from #CHROM header line
	sample      int      // index into sampleNames, -1 for sites-only files
	csq         *csqFormat
	pending     []*variant.Variant
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p := &Parser{file: file}
	br := bufio.NewReader(file)

	// Check for gzip magic number (0x1f, 0x8b)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		p.gzipReader, err = gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		p.reader = bufio.NewReader(p.gzipReader)
	} else {
		p.reader = br
	}

	if err := p.parseHeader(); err != nil {
		p.Close()
		return nil, err
	}

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader (e.g., stdin).
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// parseHeader reads and stores VCF header lines.
func (p *Parser) parseHeader() error {
	p.sample = -1
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read header: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")

		if strings.HasPrefix(line, "##") {
			p.header = append(p.header, line)
			if f, ok := parseCSQHeader(line); ok {
				p.csq = &f
			}
			continue
		}

		if strings.HasPrefix(line, "#CHROM") {
			p.header = append(p.header, line)
			// Extract sample names from columns after FORMAT (index 9+)
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				p.sampleNames = fields[9:]
				p.sample = 0
			}
			return nil
		}

		// Non-header line encountered without #CHROM
		return &ParseError{
			Line:    p.lineNumber,
			Message: "expected #CHROM header line",
		}
	}

	return &ParseError{
		Line:    p.lineNumber,
		Message: "no #CHROM header line found",
	}
}

// SelectSample chooses the sample whose genotypes set zygosity. The first
// sample is selected by default.
func (p *Parser) SelectSample(name string) error {
	for i, s := range p.sampleNames {
		if s == name {
			p.sample = i
			return nil
		}
	}
	return fmt.Errorf("sample %q not in vcf (have %s)", name, strings.Join(p.sampleNames, ", "))
}

// Next reads the next variant from the VCF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*variant.Variant, error) {
	for len(p.pending) == 0 {
		line, err := p.reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue // Skip empty lines
		}

		p.pending, err = p.parseLine(line)
		if err != nil {
			return nil, err
		}
	}

	v := p.pending[0]
	p.pending = p.pending[1:]
	return v, nil
}

// parseLine parses a single VCF data line into one variant per carried
// alternate allele.
func (p *Parser) parseLine(line string) ([]*variant.Variant, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least 8 columns, found %d", len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[1]),
		}
	}

	qual := variant.UnknownQual
	if fields[5] != "." {
		if qual, err = strconv.ParseFloat(fields[5], 64); err != nil {
			return nil, &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("invalid quality: %s", fields[5]),
			}
		}
	}

	info := parseInfo(fields[7])
	gt, hasGT := p.genotype(fields)

	var (
		alts []string
		zygs []variant.Zygosity
	)
	for i, alt := range strings.Split(fields[4], ",") {
		if alt == "." || alt == "*" {
			continue
		}
		zyg := variant.ZygosityUnknown
		if hasGT {
			var carried bool
			if zyg, carried = gt.Zygosity(i + 1); !carried {
				continue
			}
		}
		alts = append(alts, alt)
		zygs = append(zygs, zyg)
	}

	out, err := variant.SplitAlleles(fields[0], pos, fields[3], alts)
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: err.Error()}
	}
	for i, v := range out {
		v.ID = fields[2]
		v.Qual = qual
		v.Zygosity = zygs[i]
		if end, ok := info["END"]; ok && v.IsSymbolic() {
			if e, err := strconv.ParseInt(end, 10, 64); err == nil && e >= pos {
				v.End = e
			}
		}
		annotateFromInfo(v, info, fields[3], alts[i], p.csq)
	}
	return out, nil
}

// genotype returns the GT of the selected sample, if the line has one.
func (p *Parser) genotype(fields []string) (Genotype, bool) {
	col := 9 + p.sample
	if p.sample < 0 || len(fields) <= col {
		return Genotype{}, false
	}
	keys := strings.Split(fields[8], ":")
	values := strings.Split(fields[col], ":")
	for i, k := range keys {
		if k == "GT" && i < len(values) {
			return ParseGenotype(values[i]), true
		}
	}
	return Genotype{}, false
}

// Header returns the VCF header lines.
func (p *Parser) Header() []string {
	return p.header
}

// SampleNames returns sample names from the #CHROM header line.
// Returns nil if no sample columns are present.
func (p *Parser) SampleNames() []string {
	return p.sampleNames
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.gzipReader != nil {
		p.gzipReader.Close()
	}
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}

// ReadFile reads every variant of a VCF file for the named sample ("" for
// the first sample) into a pool.
func ReadFile(path, sample string) (*variant.Pool, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	if sample != "" {
		if err := p.SelectSample(sample); err != nil {
			return nil, err
		}
	}
	return ReadPool(p)
}
