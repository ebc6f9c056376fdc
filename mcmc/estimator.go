package mcmc

import (
	"github.com/gonum/blas/blas64"
	"github.com/gonum/matrix/mat64"
)

// CovarianceEstimator maintains exponentially-weighted running mean
// and covariance estimates over the chain state sequence using the
// stochastic-approximation recursion
//
//	sigma <- (1 - gamma) * sigma + gamma * (x - mu) (x - mu)^T
//	mu    <- (1 - gamma) * mu + gamma * x
//
// The covariance update uses the deviation from the mean before the
// mean itself is updated. Swapping the two updates is a subtle bug:
// centering on the new mean underestimates the spread.
type CovarianceEstimator struct {
	mu    []float64
	sigma *mat64.SymDense
	d     []float64
}

// NewCovarianceEstimator creates an estimator seeded with mean x0
// and covariance sigma0. A nil sigma0 seeds the identity matrix.
func NewCovarianceEstimator(x0 []float64, sigma0 *mat64.SymDense) *CovarianceEstimator {
	dim := len(x0)
	mu := make([]float64, dim)
	copy(mu, x0)
	sigma := mat64.NewSymDense(dim, nil)
	if sigma0 != nil {
		if sigma0.Symmetric() != dim {
			panic("sigma0 dimension does not match x0")
		}
		sigma.CopySym(sigma0)
	} else {
		for i := 0; i < dim; i++ {
			sigma.SetSym(i, i, 1)
		}
	}
	return &CovarianceEstimator{
		mu:    mu,
		sigma: sigma,
		d:     make([]float64, dim),
	}
}

// Update performs one recursion step with weight gamma and point x.
// The estimate stays symmetric by construction: the covariance part
// is a scaling followed by a symmetric rank-1 update.
func (e *CovarianceEstimator) Update(gamma float64, x []float64) {
	for i, m := range e.mu {
		e.d[i] = x[i] - m
	}

	raw := e.sigma.RawSymmetric()
	for i := range raw.Data {
		raw.Data[i] *= 1 - gamma
	}
	blas64.Syr(gamma, blas64.Vector{Inc: 1, Data: e.d}, raw)

	for i, m := range e.mu {
		e.mu[i] = (1-gamma)*m + gamma*x[i]
	}
}

// Mean returns the running mean. The slice is owned by the
// estimator and must not be modified.
func (e *CovarianceEstimator) Mean() []float64 {
	return e.mu
}

// Covariance returns the running covariance estimate. The matrix is
// owned by the estimator and must not be modified.
func (e *CovarianceEstimator) Covariance() *mat64.SymDense {
	return e.sigma
}
