package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrNoData is returned when a CSV input holds no usable rows.
var ErrNoData = errors.New("timeseries: no valid data found in CSV")

// CSVOptions holds options for CSV loading.
type CSVOptions struct {
	DateColumn string // Column name for dates (default: first of ds, date, Date, timestamp)
	DateFormat string // Preferred date layout, tried before the built-in ones
	Delimiter  rune   // Field delimiter (default: ',')
	SkipRows   int    // Number of rows to skip before the header
}

// DefaultCSVOptions returns default options for CSV loading.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateFormat: "2006-01-02",
		Delimiter:  ',',
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"2006",
}

// ParseTime parses s with layout first, then with the common date layouts.
func ParseTime(s, layout string) (time.Time, error) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	if layout != "" {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	for _, l := range dateLayouts {
		if ts, err := time.Parse(l, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("timeseries: unrecognized date %q", s)
}

// LoadCSV loads a price table from a CSV file.
func LoadCSV(filename string, opts *CSVOptions) (*Table, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadCSVFromReader(file, opts)
}

// LoadCSVFromReader reads a header row followed by data rows. The date column
// becomes the time index; every other column becomes a numeric column. Cells
// that do not parse as numbers are stored as NaN. Rows are sorted by date.
func LoadCSVFromReader(r io.Reader, opts *CSVOptions) (*Table, error) {
	if opts == nil {
		opts = DefaultCSVOptions()
	}

	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for i := 0; i < opts.SkipRows; i++ {
		if _, err := reader.Read(); err != nil {
			return nil, err
		}
	}

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrNoData
		}
		return nil, err
	}

	dateIdx := -1
	for i, h := range header {
		h = strings.TrimSpace(strings.Trim(h, "\""))
		header[i] = h
		switch {
		case opts.DateColumn != "" && h == opts.DateColumn:
			dateIdx = i
		case opts.DateColumn == "" && dateIdx == -1:
			switch h {
			case "ds", "date", "Date", "timestamp":
				dateIdx = i
			}
		}
	}
	if dateIdx == -1 {
		return nil, fmt.Errorf("%w: date column", ErrColumnNotFound)
	}

	type row struct {
		ts     time.Time
		values []float64
	}
	var rows []row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if dateIdx >= len(record) {
			continue
		}
		ts, err := ParseTime(record[dateIdx], opts.DateFormat)
		if err != nil {
			continue
		}

		values := make([]float64, len(header))
		for i := range header {
			values[i] = math.NaN()
			if i == dateIdx || i >= len(record) {
				continue
			}
			if v, err := parseCell(record[i]); err == nil {
				values[i] = v
			}
		}
		rows = append(rows, row{ts: ts, values: values})
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	// Price exports are frequently newest-first.
	if rows[0].ts.After(rows[len(rows)-1].ts) {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	index := make([]time.Time, len(rows))
	for i, r := range rows {
		index[i] = r.ts
	}
	table := NewTable(index)
	for c, name := range header {
		if c == dateIdx {
			continue
		}
		col := make([]float64, len(rows))
		for i, r := range rows {
			col[i] = r.values[c]
		}
		if err := table.Set(name, col); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(strings.Trim(s, "\""))
	switch s {
	case "", "NA", "NaN", "null":
		return 0, fmt.Errorf("missing value")
	}
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// WriteCSV writes table as CSV with a leading ds column.
func WriteCSV(w io.Writer, table *Table) error {
	writer := csv.NewWriter(w)

	header := append([]string{"ds"}, table.Columns...)
	if err := writer.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for i, ts := range table.Time {
		record[0] = ts.Format(time.RFC3339)
		for j, col := range table.Columns {
			values, _ := table.Column(col)
			record[j+1] = strconv.FormatFloat(values[i], 'f', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
