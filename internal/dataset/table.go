package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// Table is an upload parsed into rows of strings, before normalization.
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// Load parses an uploaded file and normalizes it into a Dataset.
// Files ending in .xlsx are read as workbooks; anything else is read as CSV/TSV.
func Load(name string, data []byte) (*Dataset, error) {
	var (
		t   *Table
		err error
	)
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		t, err = ReadXLSX(data)
	} else {
		t, err = ReadCSV(bytes.NewReader(data), 0)
	}
	if err != nil {
		var ie *IngestError
		if errors.As(err, &ie) {
			ie.Source = filepath.Base(name)
		}
		return nil, err
	}
	t.Source = filepath.Base(name)
	return Normalize(t), nil
}

// ReadCSV parses delimited text. If delim is 0 it is sniffed from the header line among ',', ';' and tab.
func ReadCSV(r io.Reader, delim rune) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &IngestError{Err: fmt.Errorf("read upload: %w", err)}
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if delim == 0 {
		delim = sniffDelimiter(data)
	}
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &IngestError{Err: errors.New("no columns to parse")}
		}
		return nil, &IngestError{Err: fmt.Errorf("read header: %w", err)}
	}
	t := &Table{Header: cleanHeader(header)}
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &IngestError{Err: fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)}
		}
		t.Rows = append(t.Rows, fitRow(rec, len(t.Header)))
	}
	return t, nil
}

// ReadXLSX parses the first sheet of a workbook; its first row is the header.
func ReadXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &IngestError{Err: fmt.Errorf("open xlsx: %w", err)}
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &IngestError{Err: errors.New("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &IngestError{Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &IngestError{Err: errors.New("no columns to parse")}
	}
	t := &Table{Header: cleanHeader(rows[0])}
	for _, rec := range rows[1:] {
		t.Rows = append(t.Rows, fitRow(rec, len(t.Header)))
	}
	return t, nil
}

func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestN := ',', bytes.Count(line, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(line, []byte(string(d))); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

// cleanHeader trims whitespace, strips stray quotes and applies NFC so lookups are stable.
func cleanHeader(h []string) []string {
	out := make([]string, len(h))
	for i, name := range h {
		name = strings.ReplaceAll(strings.TrimSpace(name), `"`, "")
		out[i] = norm.NFC.String(name)
	}
	return out
}

// fitRow pads or truncates rec to n fields. The result never aliases rec.
func fitRow(rec []string, n int) []string {
	row := make([]string, n)
	copy(row, rec)
	return row
}
