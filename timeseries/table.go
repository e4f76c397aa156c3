package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrColumnNotFound is returned when a table has no column with the requested name.
	ErrColumnNotFound = errors.New("timeseries: column not found")
	// ErrMissingValues is returned when a target column contains NaN observations.
	ErrMissingValues = errors.New("timeseries: column has missing values")
	// ErrDuplicateColumn is returned when a rename maps two columns to one name.
	ErrDuplicateColumn = errors.New("timeseries: duplicate column")
)

// Table is a column-oriented frame indexed by time.
//
// Unlike Series, the time index of a Table may repeat; cross-validation
// output carries one row per (window, timestamp) pair.
type Table struct {
	Time    []time.Time
	Columns []string
	data    map[string][]float64
}

// NewTable creates an empty table over the given time index.
func NewTable(index []time.Time) *Table {
	return &Table{
		Time: index,
		data: make(map[string][]float64),
	}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Time)
}

// Set adds or replaces a column. Values must have one entry per row.
func (t *Table) Set(name string, values []float64) error {
	if len(values) != len(t.Time) {
		return fmt.Errorf("%w: column %q has %d values for %d rows", ErrLengthMismatch, name, len(values), len(t.Time))
	}
	if _, ok := t.data[name]; !ok {
		t.Columns = append(t.Columns, name)
	}
	t.data[name] = values
	return nil
}

// Column returns the values stored under name.
func (t *Table) Column(name string) ([]float64, bool) {
	v, ok := t.data[name]
	return v, ok
}

// Has reports whether the table has a column called name.
func (t *Table) Has(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Rename returns a copy with columns renamed according to names.
// Columns not present in names keep their name. Renames that leave two
// columns under the same name fail with ErrDuplicateColumn.
func (t *Table) Rename(names map[string]string) (*Table, error) {
	out := NewTable(append([]time.Time(nil), t.Time...))
	for _, col := range t.Columns {
		name := col
		if alias, ok := names[col]; ok {
			name = alias
		}
		if _, dup := out.data[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		out.Columns = append(out.Columns, name)
		out.data[name] = append([]float64(nil), t.data[col]...)
	}
	return out, nil
}

// Select returns a copy holding only the named columns, in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	out := NewTable(append([]time.Time(nil), t.Time...))
	for _, col := range columns {
		v, ok := t.data[col]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, col)
		}
		if err := out.Set(col, append([]float64(nil), v...)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DedupeFirst returns a copy keeping only the first row for each timestamp.
func (t *Table) DedupeFirst() *Table {
	seen := make(map[time.Time]bool, len(t.Time))
	keep := make([]int, 0, len(t.Time))
	for i, ts := range t.Time {
		key := ts.UTC()
		if seen[key] {
			continue
		}
		seen[key] = true
		keep = append(keep, i)
	}

	index := make([]time.Time, len(keep))
	for j, i := range keep {
		index[j] = t.Time[i]
	}
	out := NewTable(index)
	for _, col := range t.Columns {
		src := t.data[col]
		values := make([]float64, len(keep))
		for j, i := range keep {
			values[j] = src[i]
		}
		out.Columns = append(out.Columns, col)
		out.data[col] = values
	}
	return out
}

// GetSeries extracts target from table as a series on the table's time index
// and infers its sampling frequency. When isScaler is set, a min-max scaler is
// fitted on the values and the returned series is scaled.
func GetSeries(table *Table, target string, isScaler bool) (*Scaler, *Series, error) {
	values, ok := table.Column(target)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrColumnNotFound, target)
	}
	if len(values) == 0 {
		return nil, nil, ErrEmptySeries
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, nil, fmt.Errorf("%w: %q at row %d", ErrMissingValues, target, i)
		}
	}

	series, err := NewWithTimestamps(target, append([]time.Time(nil), table.Time...), append([]float64(nil), values...))
	if err != nil {
		return nil, nil, err
	}
	if _, err := series.WithFrequency(); err != nil {
		return nil, nil, err
	}

	if !isScaler {
		return nil, series, nil
	}
	scaler := &Scaler{}
	scaler.Fit(series.Values)
	series.Values = scaler.Transform(series.Values)
	return scaler, series, nil
}
