package mcmc

import (
	"math"

	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

// Adaptation adjusts the proposal distribution of a Sampler between
// iterations. Implementations own the covariance estimate; the
// sampler state machine stays fixed and strategies are injected at
// construction.
type Adaptation interface {
	// Name is the sampler name used in logs and reports.
	Name() string
	// Covariance returns the current proposal covariance estimate.
	// Callers must not modify the returned matrix.
	Covariance() *mat64.SymDense
	// Scale returns the scalar multiplier applied to the covariance
	// when proposing.
	Scale() float64
	// Update performs one adaptation step after an accept/reject
	// decision, using the post-decision chain state x. Note that x
	// equals the previous state after a rejection.
	Update(accepted bool, x []float64)
}

// RateTargeted is implemented by adaptations steering the empirical
// acceptance rate towards a target value.
type RateTargeted interface {
	TargetAcceptanceRate() float64
	SetTargetAcceptanceRate(r float64) error
}

// HyperParametered is implemented by adaptations with tunable
// hyperparameters.
type HyperParametered interface {
	NHyperParameters() int
	SetHyperParameters(p []float64) error
}

// Stateful is implemented by adaptations supporting checkpointing.
type Stateful interface {
	AdaptationState() *AdaptationState
	SetAdaptationState(st *AdaptationState) error
}

const (
	// DefaultEta is the default adaptation decay exponent.
	DefaultEta = 0.6
	// DefaultTargetAcceptanceRate is the asymptotically optimal
	// acceptance rate for high-dimensional random-walk Metropolis.
	DefaultTargetAcceptanceRate = 0.234
)

// RemiAdaptation implements the adaptive covariance scheme of
// Johnstone et al. (2015): the covariance estimate follows the
// exponential recursion while a log-scale multiplier is nudged
// towards a target acceptance rate,
//
//	count++
//	gamma = count^-eta
//	logA += gamma * (accepted - target)
//
// The same gamma drives both the covariance recursion and the scale
// update within one step.
type RemiAdaptation struct {
	est    *CovarianceEstimator
	logA   float64
	count  int
	eta    float64
	target float64
}

// NewRemiAdaptation creates a new adaptation seeded with mean x0 and
// covariance sigma0 (identity if nil).
func NewRemiAdaptation(x0 []float64, sigma0 *mat64.SymDense) *RemiAdaptation {
	return &RemiAdaptation{
		est:    NewCovarianceEstimator(x0, sigma0),
		eta:    DefaultEta,
		target: DefaultTargetAcceptanceRate,
	}
}

// Name returns the sampler name.
func (a *RemiAdaptation) Name() string {
	return "Remi adaptive covariance MCMC"
}

// Covariance returns the covariance estimate. Callers must not
// modify the returned matrix.
func (a *RemiAdaptation) Covariance() *mat64.SymDense {
	return a.est.Covariance()
}

// Scale returns exp(logA).
func (a *RemiAdaptation) Scale() float64 {
	return math.Exp(a.logA)
}

// Update performs one adaptive step.
func (a *RemiAdaptation) Update(accepted bool, x []float64) {
	a.count++
	gamma := math.Pow(float64(a.count), -a.eta)
	a.est.Update(gamma, x)
	indicator := 0.0
	if accepted {
		indicator = 1
	}
	a.logA += gamma * (indicator - a.target)
}

// AdaptationCount returns the number of completed adaptive steps.
func (a *RemiAdaptation) AdaptationCount() int {
	return a.count
}

// LogA returns the log of the proposal scale multiplier.
func (a *RemiAdaptation) LogA() float64 {
	return a.logA
}

// Eta returns the adaptation decay exponent.
func (a *RemiAdaptation) Eta() float64 {
	return a.eta
}

// TargetAcceptanceRate returns the target acceptance rate.
func (a *RemiAdaptation) TargetAcceptanceRate() float64 {
	return a.target
}

// SetTargetAcceptanceRate sets the target acceptance rate; r must be
// in (0, 1].
func (a *RemiAdaptation) SetTargetAcceptanceRate(r float64) error {
	if r <= 0 || r > 1 {
		return errors.Errorf("target acceptance rate must be in (0, 1], got %v", r)
	}
	a.target = r
	return nil
}

// NHyperParameters returns the number of hyperparameters (eta).
func (a *RemiAdaptation) NHyperParameters() int {
	return 1
}

// SetHyperParameters sets [eta]; eta must be positive.
func (a *RemiAdaptation) SetHyperParameters(p []float64) error {
	if len(p) != a.NHyperParameters() {
		return errors.Errorf("expected %d hyperparameter(s), got %d", a.NHyperParameters(), len(p))
	}
	if p[0] <= 0 {
		return errors.Errorf("eta must be positive, got %v", p[0])
	}
	a.eta = p[0]
	return nil
}

// AdaptationState exports the state for checkpointing.
func (a *RemiAdaptation) AdaptationState() *AdaptationState {
	return &AdaptationState{
		Mu:    append([]float64(nil), a.est.Mean()...),
		Sigma: symToRows(a.est.Covariance()),
		LogA:  a.logA,
		Count: a.count,
	}
}

// SetAdaptationState restores a previously exported state.
func (a *RemiAdaptation) SetAdaptationState(st *AdaptationState) error {
	sigma, err := rowsToSym(st.Sigma)
	if err != nil {
		return errors.Wrap(err, "restoring covariance")
	}
	if len(st.Mu) != sigma.Symmetric() {
		return errors.New("mu and sigma dimensions do not match")
	}
	a.est = NewCovarianceEstimator(st.Mu, sigma)
	a.logA = st.LogA
	a.count = st.Count
	return nil
}

// FullMatrixAdaptation is the covariance-only variant: the estimate
// follows the same exponential recursion, while the proposal scale
// stays fixed at the classical 2.38^2/d.
type FullMatrixAdaptation struct {
	est   *CovarianceEstimator
	scale float64
	count int
	eta   float64
}

// NewFullMatrixAdaptation creates a new covariance-only adaptation.
func NewFullMatrixAdaptation(x0 []float64, sigma0 *mat64.SymDense) *FullMatrixAdaptation {
	return &FullMatrixAdaptation{
		est:   NewCovarianceEstimator(x0, sigma0),
		scale: 2.38 * 2.38 / float64(len(x0)),
		eta:   DefaultEta,
	}
}

// Name returns the sampler name.
func (a *FullMatrixAdaptation) Name() string {
	return "Adaptive covariance MCMC"
}

// Covariance returns the covariance estimate. Callers must not
// modify the returned matrix.
func (a *FullMatrixAdaptation) Covariance() *mat64.SymDense {
	return a.est.Covariance()
}

// Scale returns the fixed 2.38^2/d multiplier.
func (a *FullMatrixAdaptation) Scale() float64 {
	return a.scale
}

// Update performs one adaptive step.
func (a *FullMatrixAdaptation) Update(accepted bool, x []float64) {
	a.count++
	gamma := math.Pow(float64(a.count), -a.eta)
	a.est.Update(gamma, x)
}

// NHyperParameters returns the number of hyperparameters (eta).
func (a *FullMatrixAdaptation) NHyperParameters() int {
	return 1
}

// SetHyperParameters sets [eta]; eta must be positive.
func (a *FullMatrixAdaptation) SetHyperParameters(p []float64) error {
	if len(p) != a.NHyperParameters() {
		return errors.Errorf("expected %d hyperparameter(s), got %d", a.NHyperParameters(), len(p))
	}
	if p[0] <= 0 {
		return errors.Errorf("eta must be positive, got %v", p[0])
	}
	a.eta = p[0]
	return nil
}

// symToRows converts a symmetric matrix to a row-major slice of
// slices for JSON serialization.
func symToRows(m *mat64.SymDense) [][]float64 {
	n := m.Symmetric()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}

// rowsToSym converts a row-major slice of slices back to a symmetric
// matrix, averaging the two triangles.
func rowsToSym(rows [][]float64) (*mat64.SymDense, error) {
	n := len(rows)
	if n == 0 {
		return nil, errors.New("empty matrix")
	}
	m := mat64.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(rows[i]) != n {
			return nil, errors.Errorf("row %d has %d elements, expected %d", i, len(rows[i]), n)
		}
		for j := i; j < n; j++ {
			m.SetSym(i, j, (rows[i][j]+rows[j][i])/2)
		}
	}
	return m, nil
}
