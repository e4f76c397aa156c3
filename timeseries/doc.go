// Package timeseries provides time series data structures and utilities.
//
// This package includes the Series type for a single observed variable, the
// Table type for multi-column price data indexed by time, frequency
// inference, and CSV loading.
//
// # Creating a Series
//
// Create a time series from a slice on a synthetic daily index:
//
//	values := []float64{100, 102, 105, 103, 108, 110}
//	series := timeseries.New(values)
//
// or from explicit timestamps:
//
//	series, err := timeseries.NewWithTimestamps("close", stamps, values)
//
// # Loading from CSV
//
// Load a price table and pick a target column:
//
//	table, err := timeseries.LoadCSV("prices.csv", nil)
//	_, close, err := timeseries.GetSeries(table, "close", false)
//
// GetSeries infers the sampling frequency from the time index and fails with
// ErrNoFrequency when the spacing is irregular.
//
// # Frequencies
//
// Supported frequencies are fixed steps (seconds to weeks), business days,
// and calendar months, quarters and years anchored at the start or end of
// the month:
//
//	freq, err := timeseries.InferFrequency(stamps)
//	future := freq.Range(last, 5)
//
// # Long Format
//
// The ensemble engine consumes a Frame, with one row per observation:
//
//	frame := timeseries.ToFrame(series, "close")
package timeseries
