package interval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// ParseError represents an error during BED parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("bed parse error at line %d: %s", e.Line, e.Message)
}

// LoadBED reads a BED file (plain or gzipped) into a Set.
func LoadBED(path string) (*Set, error) {
	ivs, err := ReadBED(path)
	if err != nil {
		return nil, err
	}
	return Build(ivs), nil
}

// ReadBED reads the intervals of a BED file (plain or gzipped). BED
// coordinates are already 0-based half-open.
func ReadBED(path string) ([]Interval, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bed file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	var r io.Reader = br
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		r = gz
	}
	return ParseBED(r)
}

// ParseBED parses BED records from r. Comment, track and browser lines are
// skipped; a fourth column becomes the interval payload.
func ParseBED(r io.Reader) ([]Interval, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var ivs []Interval
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") ||
			strings.HasPrefix(line, "track") || strings.HasPrefix(line, "browser") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, &ParseError{
				Line:    lineNumber,
				Message: fmt.Sprintf("expected at least 3 columns, found %d", len(fields)),
			}
		}
		begin, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, &ParseError{Line: lineNumber, Message: fmt.Sprintf("invalid start: %s", fields[1])}
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, &ParseError{Line: lineNumber, Message: fmt.Sprintf("invalid end: %s", fields[2])}
		}

		iv := Interval{Contig: fields[0], Begin: begin, End: end}
		if len(fields) > 3 && fields[3] != "" {
			iv.Payload = fields[3]
		}
		ivs = append(ivs, iv)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading bed: %w", err)
	}
	return ivs, nil
}
