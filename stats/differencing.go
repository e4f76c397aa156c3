package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/autoforecast/timeseries"
)

// NDiffs determines the number of first differences required for stationarity.
// With testType "adf" the ADF test decides alone. Otherwise a level counts as
// stationary when KPSS and ADF agree, or when the KPSS p-value exceeds 0.1.
// maxD is the maximum number of differences to consider (default 2).
func NDiffs(series *timeseries.Series, maxD int, testType string) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := series
	for d := 0; d < maxD; d++ {
		adf := ADF(current, 0)
		adfStationary := adf != nil && adf.IsStationary
		stationary := adfStationary
		if testType != "adf" {
			kpss := KPSS(current, "c", 0)
			kpssStationary := kpss != nil && kpss.IsStationary
			stationary = kpssStationary && (adfStationary || kpss.PValue > 0.1)
		}
		if stationary {
			return d
		}

		current = current.Diff()
		if current.Len() < 10 {
			return d
		}
	}
	return maxD
}

// NSDiffs determines the number of seasonal differences required.
// One seasonal difference is suggested while the seasonal strength F_S >= 0.64.
func NSDiffs(series *timeseries.Series, period int, maxD int) int {
	if maxD <= 0 {
		maxD = 1
	}
	if period <= 1 || series.Len() < 2*period {
		return 0
	}

	current := series
	for d := 0; d < maxD; d++ {
		if SeasonalStrength(current, period) < 0.64 {
			return d
		}
		current = current.SeasonalDiff(period)
		if current.Len() < 2*period {
			return d
		}
	}
	return maxD
}

// SeasonalStrength returns F_S = max(0, 1 - Var(R) / Var(S+R)) from a
// classical additive decomposition.
func SeasonalStrength(series *timeseries.Series, period int) float64 {
	decomp := Decompose(series, period)
	if decomp == nil {
		return 0
	}

	var resid, seasonalResid []float64
	for i, r := range decomp.Residual.Values {
		if math.IsNaN(r) {
			continue
		}
		resid = append(resid, r)
		seasonalResid = append(seasonalResid, decomp.Seasonal.Values[i]+r)
	}
	if len(resid) < 2 {
		return 0
	}

	varSR := stat.Variance(seasonalResid, nil)
	if varSR == 0 {
		return 0
	}
	return math.Max(0, 1-stat.Variance(resid, nil)/varSR)
}

// InformationCriteria holds AIC, AICc and BIC for a fitted model.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC calculates all information criteria.
// logLik is the log-likelihood, nObs the number of observations and
// nParams the number of estimated parameters.
func CalculateIC(logLik float64, nObs int, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	return &InformationCriteria{
		AIC:    aic,
		AICc:   aicc,
		BIC:    -2*logLik + k*math.Log(n),
		LogLik: logLik,
	}
}

// GaussianLogLik is the concentrated Gaussian log-likelihood for n residuals
// with sum of squares sse. A perfect fit has infinite likelihood.
func GaussianLogLik(sse float64, n int) float64 {
	if n <= 0 {
		return math.Inf(-1)
	}
	if sse <= 0 {
		return math.Inf(1)
	}
	nf := float64(n)
	return -0.5 * nf * (math.Log(2*math.Pi*sse/nf) + 1)
}
