// Package export writes domain records as CSV for admin downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ContentType is the media type of every export
const ContentType = "text/csv; charset=utf-8"

// Column renders one field of T
type Column[T any] struct {
	Header string
	Value  func(T) string
}

// Writer streams records of type T as RFC 4180 CSV. The header row is
// written before the first record, or by Flush when there are none.
type Writer[T any] struct {
	csv     *csv.Writer
	out     io.Writer
	columns []Column[T]
	bom     bool
	started bool
	rows    int
}

// Option configures a Writer
type Option func(*options)

type options struct {
	bom bool
}

// WithBOM prefixes the output with a UTF-8 byte order mark so spreadsheet
// tools detect the encoding.
func WithBOM() Option {
	return func(o *options) {
		o.bom = true
	}
}

// NewWriter creates a Writer for columns
func NewWriter[T any](w io.Writer, columns []Column[T], opts ...Option) *Writer[T] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Writer[T]{
		csv:     csv.NewWriter(w),
		out:     w,
		columns: columns,
		bom:     o.bom,
	}
}

// Write appends records
func (w *Writer[T]) Write(records ...T) error {
	if err := w.start(); err != nil {
		return err
	}
	row := make([]string, len(w.columns))
	for _, rec := range records {
		for i, col := range w.columns {
			row[i] = sanitize(col.Value(rec))
		}
		if err := w.csv.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
		w.rows++
	}
	return nil
}

// Flush writes buffered data and reports any write error
func (w *Writer[T]) Flush() error {
	if err := w.start(); err != nil {
		return err
	}
	w.csv.Flush()
	return w.csv.Error()
}

// Rows returns the number of records written
func (w *Writer[T]) Rows() int {
	return w.rows
}

func (w *Writer[T]) start() error {
	if w.started {
		return nil
	}
	w.started = true
	if w.bom {
		if _, err := w.out.Write([]byte("\xEF\xBB\xBF")); err != nil {
			return fmt.Errorf("failed to write bom: %w", err)
		}
	}
	header := make([]string, len(w.columns))
	for i, col := range w.columns {
		header[i] = col.Header
	}
	if err := w.csv.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	return nil
}

// sanitize neutralises cells a spreadsheet would evaluate as a formula.
// Plain numbers such as "-12.50" pass through.
func sanitize(v string) string {
	if v == "" {
		return v
	}
	switch v[0] {
	case '=', '+', '-', '@', '\t', '\r':
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			return v
		}
		return "'" + v
	}
	return v
}

// Filename returns "<prefix>-<UTC timestamp>.csv"
func Filename(prefix string, at time.Time) string {
	return fmt.Sprintf("%s-%s.csv", prefix, at.UTC().Format("20060102-150405"))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatUUIDPtr(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
