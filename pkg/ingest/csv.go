package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/aretw0/stepsheet/pkg/coerce"
	"github.com/aretw0/stepsheet/pkg/domain"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("ingest: input has no header row")

type config struct {
	comma     rune
	trimSpace bool
	encoding  encoding.Encoding
	maxRows   int
}

// Option configures ReadCSV.
type Option func(*config)

// WithComma sets the field delimiter. The default is ','.
func WithComma(r rune) Option {
	return func(c *config) { c.comma = r }
}

// WithTrimSpace trims leading and trailing spaces from every header.
// Cells are always trimmed during inference.
func WithTrimSpace(trim bool) Option {
	return func(c *config) { c.trimSpace = trim }
}

// WithEncoding decodes the input from enc instead of UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(c *config) { c.encoding = enc }
}

// WithMaxRows stops reading after n data rows. Zero reads everything.
func WithMaxRows(n int) Option {
	return func(c *config) { c.maxRows = n }
}

// ReadCSV reads a header row followed by data rows. Short rows are padded
// with missing cells; long rows are an error.
func ReadCSV(r io.Reader, opts ...Option) (domain.Dataset, error) {
	cfg := config{comma: ',', trimSpace: true, encoding: unicode.UTF8}
	for _, opt := range opts {
		opt(&cfg)
	}

	decoded := transform.NewReader(r, unicode.BOMOverride(cfg.encoding.NewDecoder()))
	cr := csv.NewReader(decoded)
	cr.Comma = cfg.comma
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Dataset{}, ErrNoHeader
	}
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("read header: %w", err)
	}
	headers, err := normalizeHeaders(header, cfg.trimSpace)
	if err != nil {
		return domain.Dataset{}, err
	}

	cells := make([][]string, len(headers))
	rows := 0
	for cfg.maxRows == 0 || rows < cfg.maxRows {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Dataset{}, fmt.Errorf("read row %d: %w", rows+1, err)
		}
		if len(record) > len(headers) {
			line, _ := cr.FieldPos(0)
			return domain.Dataset{}, fmt.Errorf("line %d: %d fields, header has %d", line, len(record), len(headers))
		}
		for i := range headers {
			var cell string
			if i < len(record) {
				cell = record[i]
			}
			cells[i] = append(cells[i], cell)
		}
		rows++
	}

	columns := make([]domain.Column, len(headers))
	for i, h := range headers {
		if cells[i] == nil {
			cells[i] = []string{}
		}
		columns[i] = coerce.Infer(h, cells[i])
	}
	ds := domain.Dataset{Columns: columns, Index: domain.RangeIndex(rows)}
	return ds, ds.Validate()
}

// ReadCSVFile reads the file at path. The second return value is a dataset
// name derived from the file name, usable with domain.NewState.
func ReadCSVFile(path string, opts ...Option) (domain.Dataset, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Dataset{}, "", err
	}
	defer f.Close()

	ds, err := ReadCSV(f, opts...)
	if err != nil {
		return domain.Dataset{}, "", fmt.Errorf("%s: %w", path, err)
	}
	return ds, DatasetName(path), nil
}

// DatasetName turns a file path into a valid identifier: the base name
// without extension, with every other character replaced by '_'.
func DatasetName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	for i, r := range base {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "df"
	}
	return b.String()
}

func normalizeHeaders(raw []string, trim bool) ([]domain.ColumnHeader, error) {
	headers := make([]domain.ColumnHeader, len(raw))
	seen := make(map[domain.ColumnHeader]bool, len(raw))
	for i, h := range raw {
		if trim {
			h = strings.TrimSpace(h)
		}
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		header := domain.ColumnHeader(h)
		if seen[header] {
			return nil, fmt.Errorf("duplicate column header %q", h)
		}
		seen[header] = true
		headers[i] = header
	}
	return headers, nil
}
