// Package ingest parses the bronze extracts and the translation reference
// files into domain records.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var (
	// ErrEmptyFile is returned when an extract has no content
	ErrEmptyFile = errors.New("extract is empty")
	// ErrInvalidEncoding is returned when an extract is not UTF-8
	ErrInvalidEncoding = errors.New("extract is not valid UTF-8")
	// ErrMissingHeader is returned when a CSV extract has no header row
	ErrMissingHeader = errors.New("CSV extract missing header row")
)

// CSVParser reads a headed CSV extract row by row. Header names are
// whitespace-collapsed and resolved through an alias table so that
// spreadsheet exports such as "ORDER_TIME  (PST)" match their column.
type CSVParser struct {
	reader     *csv.Reader
	headers    []string
	headerMap  map[string]int
	aliases    map[string]string
	currentRow int
}

// ParserOption configures a CSVParser
type ParserOption func(*CSVParser)

// WithHeaderAliases maps alternative header spellings onto column names
func WithHeaderAliases(aliases map[string]string) ParserOption {
	return func(p *CSVParser) {
		for k, v := range aliases {
			p.aliases[collapseSpaces(k)] = v
		}
	}
}

// NewCSVParser strips a UTF-8 BOM, checks the encoding and reads the header row.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	br := bufio.NewReader(r)

	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	head, err := br.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read extract: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(trimPartialRune(head)) {
		return nil, ErrInvalidEncoding
	}

	p := &CSVParser{
		reader:    csv.NewReader(br),
		headerMap: make(map[string]int),
		aliases:   make(map[string]string),
	}
	p.reader.LazyQuotes = true
	p.reader.FieldsPerRecord = -1
	for _, opt := range opts {
		opt(p)
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}
	return p, nil
}

// trimPartialRune drops a trailing rune cut off by the peek window
func trimPartialRune(b []byte) []byte {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i]
			}
			break
		}
	}
	return b
}

func (p *CSVParser) parseHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		name := collapseSpaces(h)
		if alias, ok := p.aliases[name]; ok {
			name = alias
		}
		p.headers[i] = name
		p.headerMap[name] = i
	}
	p.currentRow = 1
	return nil
}

// Headers returns the resolved header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// MissingHeaders returns the required columns absent from the header row
func (p *CSVParser) MissingHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if _, ok := p.headerMap[h]; !ok {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data row keyed by resolved header name
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the trimmed value of column, or "" when absent
func (r *Row) Get(column string) string {
	return r.Data[column]
}

// IsEmpty reports whether every cell is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow returns the next row or io.EOF
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}

	row := &Row{LineNumber: p.currentRow, Data: make(map[string]string, len(p.headers))}
	for i, header := range p.headers {
		if i < len(record) {
			row.Data[header] = strings.TrimSpace(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row, nil
}

// ReadAllRows reads the remaining rows, skipping blank ones
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for {
		row, err := p.ReadRow()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, err
		}
		if row.IsEmpty() {
			continue
		}
		rows = append(rows, row)
	}
}

// collapseSpaces trims s and folds inner whitespace runs to one space
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
