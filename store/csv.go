// Package store persists extracted articles, as a CSV table for each run and
// optionally in a SQLite archive shared by all runs.
package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pevans/newsgrab/article"
)

// ErrNoRecords is returned when there is nothing to write.
var ErrNoRecords = errors.New("no records to save")

// Header is the first row of every CSV file.
var Header = []string{"_id", "title", "article"}

// WriteError describes a failure to write the output file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Dedupe returns records with repeated IDs removed. The first record for an
// ID wins and the relative order is kept.
func Dedupe(records []article.Record) []article.Record {
	seen := make(map[string]bool, len(records))
	out := make([]article.Record, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

// SaveCSV deduplicates records and writes them to path, creating missing
// parent directories. It returns the number of data rows written, or
// ErrNoRecords without touching the file system when records is empty.
// The table is written to a temporary file next to path and renamed into
// place, so a failed write leaves any previous file intact.
func SaveCSV(records []article.Record, path string) (int, error) {
	if len(records) == 0 {
		return 0, ErrNoRecords
	}

	rows := Dedupe(records)

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, &WriteError{Path: path, Err: err}
		}
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return 0, &WriteError{Path: path, Err: err}
	}
	tmpPath := f.Name()

	if err := writeRows(f, rows); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return 0, &WriteError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return 0, &WriteError{Path: path, Err: err}
	}

	// CreateTemp uses 0600; match what os.Create would give
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return 0, &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return 0, &WriteError{Path: path, Err: err}
	}

	return len(rows), nil
}

// writeRows writes the header and one row per record.
func writeRows(out io.Writer, rows []article.Record) error {
	w := csv.NewWriter(out)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.ID, r.Title, ListLiteral(r.Paragraphs)}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// ListLiteral renders paragraphs as a bracketed, comma-separated list of
// quoted strings, e.g. ['first', 'second'], the form existing consumers of
// news.csv parse.
func ListLiteral(paragraphs []string) string {
	quoted := make([]string, len(paragraphs))
	for i, p := range paragraphs {
		quoted[i] = quoteItem(p)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// quoteItem uses single quotes unless the text contains a single quote and
// no double quote.
func quoteItem(s string) string {
	quote := byte('\'')
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}
