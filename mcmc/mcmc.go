// Package mcmc implements single-chain adaptive covariance
// random-walk Metropolis samplers driven through an ask/tell
// protocol. The caller asks for a candidate point, evaluates the
// target log-density externally, and tells the result back; the
// sampler performs the accept/reject decision and adapts its
// proposal distribution online.
package mcmc

import (
	"math"

	"github.com/op/go-logging"
)

// log is a global logging variable.
var log = logging.MustGetLogger("mcmc")

// LogPDF is an unnormalized target log-density over a continuous
// parameter space. It may return -Inf for zero-probability regions.
type LogPDF func(x []float64) float64

// Diagnostic is a single named value reported by a sampler.
type Diagnostic struct {
	Name  string
	Value float64
}

// isFinite returns true if x is neither infinite nor NaN.
func isFinite(x float64) bool {
	return !math.IsInf(x, 0) && !math.IsNaN(x)
}
