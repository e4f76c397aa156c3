package models

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

// penalty is the objective value for parameters outside the admissible region.
const penalty = 1e100

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func logit(p float64) float64 { return math.Log(p / (1 - p)) }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func allFinite(values []float64) bool {
	for _, v := range values {
		if !finite(v) {
			return false
		}
	}
	return true
}

// minimize runs Nelder-Mead on f from x0 and returns the best point found.
// Non-finite objective values are mapped to the penalty.
func minimize(f func(x []float64) float64, x0 []float64) []float64 {
	if len(x0) == 0 {
		return x0
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			v := f(x)
			if !finite(v) {
				return penalty
			}
			return v
		},
	}
	settings := &optimize.Settings{
		MajorIterations: 300,
		FuncEvaluations: 2000,
	}

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if result == nil || (err != nil && result.F >= problem.Func(x0)) {
		return x0
	}
	return result.X
}
