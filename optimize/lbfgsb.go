// Package optimize finds a high-density starting point for a chain
// by maximizing the target log-density with LBFGS-B.
package optimize

import (
	"math"

	lbfgsb "github.com/idavydov/go-lbfgsb"
	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"bitbucket.org/Davydov/acmc/mcmc"
)

// log is the global logging variable.
var log = logging.MustGetLogger("optimize")

// MAPSearch maximizes a log-density. Gradients are estimated with
// central finite differences, so the target only needs to be a
// black-box function.
type MAPSearch struct {
	f      mcmc.LogPDF
	bounds [][2]float64
	dH     float64
	grad   []float64

	maxL  float64
	maxX  []float64
	calls int
}

// NewMAPSearch creates a search for the given target.
func NewMAPSearch(f mcmc.LogPDF) *MAPSearch {
	return &MAPSearch{
		f:    f,
		dH:   1e-6,
		maxL: math.Inf(-1),
	}
}

// SetBounds sets box constraints for the search, one [min, max]
// pair per parameter.
func (m *MAPSearch) SetBounds(bounds [][2]float64) {
	m.bounds = bounds
}

// EvaluateFunction returns the negated log-density at x; it is part
// of the minimizer callback interface.
func (m *MAPSearch) EvaluateFunction(x []float64) float64 {
	l := m.f(x)
	m.calls++
	if !math.IsInf(l, 0) && !math.IsNaN(l) && l > m.maxL {
		m.maxL = l
		m.maxX = append(m.maxX[:0], x...)
	}
	if math.IsNaN(l) {
		return math.Inf(+1)
	}
	return -l
}

// EvaluateGradient estimates the gradient of the negated log-density
// at x with central differences; it is part of the minimizer
// callback interface.
func (m *MAPSearch) EvaluateGradient(x []float64) (grad []float64) {
	if m.grad == nil {
		m.grad = make([]float64, len(x))
	}
	grad = m.grad
	point := append([]float64(nil), x...)
	for i := range x {
		point[i] = x[i] - m.dH
		l1 := m.EvaluateFunction(point)
		point[i] = x[i] + m.dH
		l2 := m.EvaluateFunction(point)
		point[i] = x[i]
		grad[i] = (l2 - l1) / 2 / m.dH
	}
	return
}

// Run searches from x0 and returns the best point found. If the
// minimizer fails, the best point seen so far is still returned
// together with the error.
func (m *MAPSearch) Run(x0 []float64) ([]float64, error) {
	opt := new(lbfgsb.Lbfgsb)
	opt.SetApproximationSize(10)
	opt.SetFTolerance(1e-9)
	opt.SetGTolerance(1e-9)
	if m.bounds != nil {
		opt.SetBounds(m.bounds)
	}
	opt.SetLogger(m.logIteration)

	minimum, exitStatus := opt.Minimize(m, x0)
	log.Infof("MAP search exit status: %v", exitStatus)
	log.Infof("Log-density calls: %v", m.calls)

	best := m.maxX
	if best == nil {
		best = append([]float64(nil), x0...)
	}
	switch exitStatus.Code {
	case lbfgsb.SUCCESS, lbfgsb.APPROXIMATE:
		if len(minimum.X) == len(x0) {
			best = minimum.X
		}
		return best, nil
	}
	return best, errors.Errorf("MAP search failed: %v", exitStatus)
}

// MaxLogPDF returns the largest log-density seen during the search.
func (m *MAPSearch) MaxLogPDF() float64 {
	return m.maxL
}

func (m *MAPSearch) logIteration(info *lbfgsb.OptimizationIterationInformation) {
	log.Debugf("%d: L=%f", info.Iteration, -info.F)
}
