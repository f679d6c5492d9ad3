package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVParser parses CSV uploads with transparent charset detection.
// UTF-8 (with or without BOM), UTF-16 (both byte orders) and
// Windows-1252 input all come out as UTF-8 rows.
type CSVParser struct {
	reader    *csv.Reader
	headers   []string
	headerIdx map[string]int
	line      int
}

// ParserOption configures a CSVParser.
type ParserOption func(*csv.Reader)

// WithDelimiter sets the field delimiter, comma by default.
func WithDelimiter(d rune) ParserOption {
	return func(r *csv.Reader) {
		r.Comma = d
	}
}

// NewCSVParser wraps r in a charset-detecting CSV reader. Quoting is
// lenient and rows may have a variable field count, spreadsheet
// exports are rarely strict.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	decoded, err := decodeCharset(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = ','
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	for _, opt := range opts {
		opt(reader)
	}

	return &CSVParser{
		reader:    reader,
		headerIdx: make(map[string]int),
	}, nil
}

// decodeCharset sniffs the input encoding and wraps the reader so the
// CSV layer only ever sees UTF-8.
func decodeCharset(r *bufio.Reader) (io.Reader, error) {
	const sniffSize = 4096
	head, err := r.Peek(sniffSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}

	switch {
	// UTF-16 BOMs: FF FE (little endian), FE FF (big endian).
	case len(head) >= 2 && ((head[0] == 0xFF && head[1] == 0xFE) || (head[0] == 0xFE && head[1] == 0xFF)):
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()), nil

	// UTF-8 BOM: EF BB BF.
	case len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF:
		_, _ = r.Discard(3)
		return r, nil

	case utf8.Valid(head):
		return r, nil

	default:
		// Anything else is treated as Windows-1252, the usual suspect
		// for spreadsheet exports on Windows. Every byte sequence is
		// valid Windows-1252, so this decode cannot fail.
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	}
}

// ParseHeader reads the header row and indexes its column names.
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		name := strings.TrimSpace(h)
		p.headers[i] = name
		p.headerIdx[name] = i
	}
	p.line = 1

	if len(p.headers) == 0 {
		return ErrMissingHeader
	}
	return nil
}

// Headers returns the parsed header names.
func (p *CSVParser) Headers() []string {
	return p.headers
}

// HasHeader reports whether a column exists.
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.headerIdx[name]
	return ok
}

// ValidateHeaders returns the required columns that are absent.
func (p *CSVParser) ValidateHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one parsed CSV row. LineNumber is 1-indexed and counts the
// header, matching what a user sees in their spreadsheet.
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value of a column by header name.
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty reports whether every field in the row is blank.
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row. Short rows get empty strings for their
// missing trailing columns.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.line, err)
	}

	row := &Row{
		LineNumber: p.line,
		Data:       make(map[string]string, len(p.headers)),
	}
	for i, header := range p.headers {
		if i < len(record) {
			row.Data[header] = strings.TrimSpace(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row, nil
}

// ReadAllRows reads the remaining rows, skipping fully blank ones.
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if !row.IsEmpty() {
			rows = append(rows, row)
		}
	}
}
