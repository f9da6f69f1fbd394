// Package maf reads variant calls from MAF (Mutation Annotation Format)
// files into variant records.
package maf

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

// Standard MAF column names
const (
	ColChromosome         = "Chromosome"
	ColStartPosition      = "Start_Position"
	ColEndPosition        = "End_Position"
	ColReferenceAllele    = "Reference_Allele"
	ColTumorSeqAllele1    = "Tumor_Seq_Allele1"
	ColTumorSeqAllele2    = "Tumor_Seq_Allele2"
	ColHugoSymbol         = "Hugo_Symbol"
	ColConsequence        = "Consequence"
	ColTumorSampleBarcode = "Tumor_Sample_Barcode"
	ColDbSNPRS            = "dbSNP_RS"
)

// ColumnIndices holds the indices of important MAF columns.
type ColumnIndices struct {
	Chromosome         int
	StartPosition      int
	EndPosition        int
	ReferenceAllele    int
	TumorSeqAllele1    int
	TumorSeqAllele2    int
	HugoSymbol         int
	Consequence        int
	TumorSampleBarcode int
	DbSNPRS            int
}

// Parser reads variants from a MAF file. MAF alleles already use "-" for
// the empty side of an indel.
type Parser struct {
	reader     *bufio.Reader
	file       *os.File
	gzipReader *gzip.Reader
	lineNumber int
	columns    ColumnIndices
	headerLine string
	sample     string // only rows of this Tumor_Sample_Barcode when set
}

// NewParser creates a new MAF parser for the given file.
// Supports both plain MAF and gzipped MAF (.maf.gz) files.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open maf file: %w", err)
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

// readLine returns the next line without its terminator, or io.EOF.
func (p *Parser) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	p.lineNumber++
	return strings.TrimRight(line, "\r\n"), nil
}

// parseHeader reads and parses the MAF header line to find column indices.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &ParseError{
					Line:    p.lineNumber,
					Message: "no header line found",
				}
			}
			return fmt.Errorf("read header: %w", err)
		}

		// Skip comment and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		p.headerLine = line
		return p.parseColumnIndices(line)
	}
}

// parseColumnIndices parses the header line to find column indices.
func (p *Parser) parseColumnIndices(headerLine string) error {
	// Initialize all indices to -1 (not found)
	p.columns = ColumnIndices{
		Chromosome:         -1,
		StartPosition:      -1,
		EndPosition:        -1,
		ReferenceAllele:    -1,
		TumorSeqAllele1:    -1,
		TumorSeqAllele2:    -1,
		HugoSymbol:         -1,
		Consequence:        -1,
		TumorSampleBarcode: -1,
		DbSNPRS:            -1,
	}

	for i, col := range strings.Split(headerLine, "\t") {
		switch col {
		case ColChromosome:
			p.columns.Chromosome = i
		case ColStartPosition:
			p.columns.StartPosition = i
		case ColEndPosition:
			p.columns.EndPosition = i
		case ColReferenceAllele:
			p.columns.ReferenceAllele = i
		case ColTumorSeqAllele1:
			p.columns.TumorSeqAllele1 = i
		case ColTumorSeqAllele2:
			p.columns.TumorSeqAllele2 = i
		case ColHugoSymbol:
			p.columns.HugoSymbol = i
		case ColConsequence:
			p.columns.Consequence = i
		case ColTumorSampleBarcode:
			p.columns.TumorSampleBarcode = i
		case ColDbSNPRS:
			p.columns.DbSNPRS = i
		}
	}

	// Validate required columns
	for _, req := range []struct {
		idx  int
		name string
	}{
		{p.columns.Chromosome, ColChromosome},
		{p.columns.StartPosition, ColStartPosition},
		{p.columns.ReferenceAllele, ColReferenceAllele},
		{p.columns.TumorSeqAllele2, ColTumorSeqAllele2},
	} {
		if req.idx == -1 {
			return &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("required column '%s' not found in header", req.name),
			}
		}
	}

	return nil
}

// SelectSample restricts Next to rows of one Tumor_Sample_Barcode.
func (p *Parser) SelectSample(barcode string) error {
	if p.columns.TumorSampleBarcode == -1 {
		return fmt.Errorf("maf has no %s column", ColTumorSampleBarcode)
	}
	p.sample = barcode
	return nil
}

// Next reads the next variant from the MAF file.
// Returns nil, nil when there are no more variants.
func (p *Parser) Next() (*variant.Variant, error) {
	for {
		line, err := p.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, nil
			}
			return nil, fmt.Errorf("read variant line: %w", err)
		}

		// Skip comment and empty lines
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if p.sample != "" && p.field(fields, p.columns.TumorSampleBarcode) != p.sample {
			continue
		}
		return p.parseLine(fields)
	}
}

func (p *Parser) field(fields []string, idx int) string {
	if idx >= 0 && idx < len(fields) {
		return strings.TrimSpace(fields[idx])
	}
	return ""
}

// parseLine converts one MAF row into a variant. Insertions are anchored in
// MAF on the base before the inserted sequence; the record starts at the
// first inserted base instead.
func (p *Parser) parseLine(fields []string) (*variant.Variant, error) {
	// Ensure we have enough columns
	minCols := max(p.columns.Chromosome, p.columns.StartPosition, p.columns.ReferenceAllele, p.columns.TumorSeqAllele2)
	if len(fields) <= minCols {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minCols+1, len(fields)),
		}
	}

	pos, err := strconv.ParseInt(fields[p.columns.StartPosition], 10, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid position: %s", fields[p.columns.StartPosition]),
		}
	}

	ref := p.field(fields, p.columns.ReferenceAllele)
	allele1 := p.field(fields, p.columns.TumorSeqAllele1)
	allele2 := p.field(fields, p.columns.TumorSeqAllele2)

	alt := allele2
	if alt == ref && allele1 != "" {
		alt = allele1
	}
	if ref == variant.Gap {
		pos++
	}

	v, err := variant.New(p.field(fields, p.columns.Chromosome), pos, ref, alt)
	if err != nil {
		return nil, &ParseError{Line: p.lineNumber, Message: err.Error()}
	}
	v.Zygosity = zygosity(ref, allele1, allele2)

	if id := p.field(fields, p.columns.DbSNPRS); id != "" && id != "novel" {
		v.ID = id
	}
	if g := p.field(fields, p.columns.HugoSymbol); g != "" && g != "Unknown" {
		v.SetAnnotation(variant.Gene, g)
	}
	if c := p.field(fields, p.columns.Consequence); c != "" {
		for _, term := range strings.FieldsFunc(c, func(r rune) bool { return r == ',' || r == '&' }) {
			v.AddAnnotation(variant.Consequence, term)
		}
	}

	return v, nil
}

// zygosity derives the genotype state from the two tumor alleles.
func zygosity(ref, allele1, allele2 string) variant.Zygosity {
	switch {
	case allele1 == "" || allele2 == "":
		return variant.ZygosityUnknown
	case allele1 == allele2 && allele1 != ref:
		return variant.Homozygous
	case allele1 != allele2 && (allele1 == ref || allele2 == ref):
		return variant.Heterozygous
	}
	return variant.ZygosityUnknown
}

// Header returns the MAF header line.
func (p *Parser) Header() string {
	return p.headerLine
}

// Columns returns the parsed column indices.
func (p *Parser) Columns() ColumnIndices {
	return p.columns
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

// ParseError represents an error during MAF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("maf parse error at line %d: %s", e.Line, e.Message)
}
