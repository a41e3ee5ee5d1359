package parsing

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/turtacn/patreg-insight/pkg/errors"
)

// DefaultChunkSize bounds memory use on multi-gigabyte exports.
const DefaultChunkSize = 1000

// Row is one raw input row, keyed by column name. Values are untyped text
// exactly as present in the source file.
type Row map[string]string

// Get returns the value of a column, or "" when the column is absent.
func (r Row) Get(column string) string {
	return r[column]
}

// Source is a lazy, forward-only sequence of fixed-size row chunks over an
// open export file. It is not restartable mid-stream; the consumer must
// fully drain it or call Close to release the underlying file.
type Source interface {
	// Columns returns the header of the source, available before any row is
	// read. Decoders validate their required columns against it.
	Columns() []string

	// Next returns the next chunk of up to the configured number of rows.
	// It returns io.EOF once the source is exhausted.
	Next() ([]Row, error)

	Close() error
}

// SourceOption configures Open.
type SourceOption func(*sourceOptions)

type sourceOptions struct {
	chunkSize int
	delimiter rune
}

// WithChunkSize overrides the default chunk size.
func WithChunkSize(n int) SourceOption {
	return func(o *sourceOptions) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithDelimiter sets the field delimiter for delimited-text sources. The
// entity registry ships semicolon-delimited files; patents and ownership use
// commas.
func WithDelimiter(d rune) SourceOption {
	return func(o *sourceOptions) {
		if d != 0 {
			o.delimiter = d
		}
	}
}

// Open opens an export file as a chunked Source, choosing the reader by
// file extension: .xlsx is read as a single-active-sheet spreadsheet,
// anything else as delimited text with a header row.
func Open(path string, opts ...SourceOption) (Source, error) {
	o := sourceOptions{chunkSize: DefaultChunkSize, delimiter: ','}
	for _, opt := range opts {
		opt(&o)
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return openXLSX(path, o)
	}
	return openCSV(path, o)
}

// ─────────────────────────────────────────────────────────────────────────────
// Delimited text
// ─────────────────────────────────────────────────────────────────────────────

type csvSource struct {
	f         *os.File
	r         *csv.Reader
	columns   []string
	chunkSize int
	done      bool
}

func openCSV(path string, o sourceOptions) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceRead, "failed to open source file")
	}

	r := csv.NewReader(f)
	r.Comma = o.delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrCodeSourceRead, "failed to read header row")
	}
	columns := make([]string, len(header))
	for i, c := range header {
		columns[i] = strings.TrimSpace(c)
	}

	return &csvSource{f: f, r: r, columns: columns, chunkSize: o.chunkSize}, nil
}

func (s *csvSource) Columns() []string { return s.columns }

func (s *csvSource) Next() ([]Row, error) {
	if s.done {
		return nil, io.EOF
	}
	chunk := make([]Row, 0, s.chunkSize)
	for len(chunk) < s.chunkSize {
		rec, err := s.r.Read()
		if err == io.EOF {
			s.done = true
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSourceRead, "failed to read source row")
		}
		chunk = append(chunk, s.toRow(rec))
	}
	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}

func (s *csvSource) toRow(rec []string) Row {
	row := make(Row, len(s.columns))
	for i, col := range s.columns {
		if i < len(rec) {
			row[col] = rec[i]
		}
	}
	return row
}

func (s *csvSource) Close() error { return s.f.Close() }

// ─────────────────────────────────────────────────────────────────────────────
// Spreadsheet
// ─────────────────────────────────────────────────────────────────────────────

type xlsxSource struct {
	f         *excelize.File
	rows      *excelize.Rows
	columns   []string
	chunkSize int
	done      bool
}

func openXLSX(path string, o sourceOptions) (Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSourceFormat, "failed to open spreadsheet")
	}

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, errors.ErrCodeSourceRead, "failed to open sheet rows")
	}

	if !rows.Next() {
		rows.Close()
		f.Close()
		return nil, errors.New(errors.ErrCodeSourceRead, "spreadsheet has no header row")
	}
	header, err := rows.Columns()
	if err != nil {
		rows.Close()
		f.Close()
		return nil, errors.Wrap(err, errors.ErrCodeSourceRead, "failed to read header row")
	}
	columns := make([]string, len(header))
	for i, c := range header {
		columns[i] = strings.TrimSpace(c)
	}

	return &xlsxSource{f: f, rows: rows, columns: columns, chunkSize: o.chunkSize}, nil
}

func (s *xlsxSource) Columns() []string { return s.columns }

func (s *xlsxSource) Next() ([]Row, error) {
	if s.done {
		return nil, io.EOF
	}
	chunk := make([]Row, 0, s.chunkSize)
	for len(chunk) < s.chunkSize {
		if !s.rows.Next() {
			s.done = true
			break
		}
		rec, err := s.rows.Columns()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSourceRead, "failed to read source row")
		}
		row := make(Row, len(s.columns))
		for i, col := range s.columns {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		chunk = append(chunk, row)
	}
	if len(chunk) == 0 {
		return nil, io.EOF
	}
	return chunk, nil
}

func (s *xlsxSource) Close() error {
	s.rows.Close()
	return s.f.Close()
}
