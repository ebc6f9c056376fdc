package chain

import (
	"math"

	"github.com/gonum/mathext"
	"github.com/gonum/stat"
	"github.com/pkg/errors"
)

// ParameterSummary holds posterior summaries for one parameter.
type ParameterSummary struct {
	Name string  `json:"name"`
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	// Lower and Upper bound a normal-approximation credible
	// interval for the posterior mean, corrected for chain
	// autocorrelation through the effective sample size.
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	ESS   float64 `json:"ess"`
}

// Summarize computes per-parameter summaries, with credible
// intervals at the given level (e.g. 0.95).
func (c *Chain) Summarize(level float64) ([]ParameterSummary, error) {
	if level <= 0 || level >= 1 {
		return nil, errors.Errorf("interval level must be in (0, 1), got %v", level)
	}
	if c.Len() < 2 {
		return nil, errors.New("not enough samples to summarize")
	}
	z := mathext.NormalQuantile((1 + level) / 2)
	res := make([]ParameterSummary, c.Dim())
	for j := range res {
		col := c.Column(j)
		mean := stat.Mean(col, nil)
		sd := math.Sqrt(stat.Variance(col, nil))
		min, max := c.Range(j)
		ess := EffectiveSampleSize(col)
		se := sd / math.Sqrt(ess)
		res[j] = ParameterSummary{
			Name:  c.names[j],
			Mean:  mean,
			SD:    sd,
			Min:   min,
			Max:   max,
			Lower: mean - z*se,
			Upper: mean + z*se,
			ESS:   ess,
		}
	}
	return res, nil
}

// EffectiveSampleSize estimates the effective number of independent
// samples in an autocorrelated sequence, using the initial positive
// sequence estimator: autocorrelations are summed until they first
// turn negative.
func EffectiveSampleSize(x []float64) float64 {
	n := len(x)
	if n < 2 {
		return float64(n)
	}
	mean := stat.Mean(x, nil)
	c0 := 0.0
	for _, v := range x {
		d := v - mean
		c0 += d * d
	}
	if c0 == 0 {
		// constant chain, e.g. everything rejected
		return 1
	}
	sum := 0.0
	for lag := 1; lag < n; lag++ {
		ck := 0.0
		for i := 0; i < n-lag; i++ {
			ck += (x[i] - mean) * (x[i+lag] - mean)
		}
		rho := ck / c0
		if rho <= 0 {
			break
		}
		sum += rho
	}
	ess := float64(n) / (1 + 2*sum)
	if ess < 1 {
		ess = 1
	}
	return ess
}
