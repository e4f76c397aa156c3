package timeseries

import "gonum.org/v1/gonum/floats"

// Scaler maps values into [0, 1] using the minimum and range seen by Fit.
type Scaler struct {
	Min   float64
	Range float64
}

// Fit records the minimum and range of values. A constant input gets a unit range.
func (s *Scaler) Fit(values []float64) {
	if len(values) == 0 {
		s.Min, s.Range = 0, 1
		return
	}
	s.Min = floats.Min(values)
	s.Range = floats.Max(values) - s.Min
	if s.Range == 0 {
		s.Range = 1
	}
}

// Transform returns scaled copies of values.
func (s *Scaler) Transform(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	floats.AddConst(-s.Min, out)
	floats.Scale(1/s.Range, out)
	return out
}

// Inverse maps scaled values back to the original units.
func (s *Scaler) Inverse(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	floats.Scale(s.Range, out)
	floats.AddConst(s.Min, out)
	return out
}
