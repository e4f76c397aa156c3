package timeseries

import "time"

// Frame is the long format consumed by the ensemble engine: one row per
// observation, tagged with the identifier of the series it belongs to.
type Frame struct {
	UniqueID []string
	DS       []time.Time
	Y        []float64
}

// ToFrame converts a series into a single-id frame.
func ToFrame(s *Series, uniqueID string) *Frame {
	f := &Frame{
		UniqueID: make([]string, s.Len()),
		DS:       make([]time.Time, s.Len()),
		Y:        make([]float64, s.Len()),
	}
	for i := range f.Y {
		f.UniqueID[i] = uniqueID
		f.DS[i] = s.Timestamps[i]
		f.Y[i] = s.Values[i]
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Y)
}

// Series converts the frame back into a series named after its first id.
func (f *Frame) Series() (*Series, error) {
	name := ""
	if len(f.UniqueID) > 0 {
		name = f.UniqueID[0]
	}
	return NewWithTimestamps(name, append([]time.Time(nil), f.DS...), append([]float64(nil), f.Y...))
}
