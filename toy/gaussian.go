package toy

import (
	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
	"github.com/pkg/errors"
)

// Gaussian is a multivariate normal target.
type Gaussian struct {
	mean []float64
	n    *distmv.Normal
}

// NewGaussian creates a multivariate normal target with the given
// mean and covariance (identity if nil).
func NewGaussian(mean []float64, sigma *mat64.SymDense) (*Gaussian, error) {
	dim := len(mean)
	if dim == 0 {
		return nil, errors.New("empty mean")
	}
	if sigma == nil {
		sigma = mat64.NewSymDense(dim, nil)
		for i := 0; i < dim; i++ {
			sigma.SetSym(i, i, 1)
		}
	}
	if sigma.Symmetric() != dim {
		return nil, errors.New("mean and covariance dimensions do not match")
	}
	n, ok := distmv.NewNormal(mean, sigma, nil)
	if !ok {
		return nil, errors.New("covariance is not positive definite")
	}
	return &Gaussian{
		mean: append([]float64(nil), mean...),
		n:    n,
	}, nil
}

// Dim returns the number of parameters.
func (g *Gaussian) Dim() int {
	return len(g.mean)
}

// Mean returns the mode of the target.
func (g *Gaussian) Mean() []float64 {
	return g.mean
}

// LogPDF returns the log-density at x.
func (g *Gaussian) LogPDF(x []float64) float64 {
	return g.n.LogProb(x)
}
