package mcmc

import (
	"math"
	"math/rand"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
)

// normalProposal draws multivariate normal candidate points around
// the current chain state. The normal kernel is symmetric, so the
// Hastings correction term drops out of the acceptance ratio.
type normalProposal struct {
	src    *rand.Rand
	scaled *mat64.SymDense
}

func newNormalProposal(dim int, src *rand.Rand) *normalProposal {
	return &normalProposal{
		src:    src,
		scaled: mat64.NewSymDense(dim, nil),
	}
}

// draw samples a point from N(mean, scale * sigma).
func (p *normalProposal) draw(mean []float64, scale float64, sigma *mat64.SymDense) []float64 {
	dim := len(mean)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			p.scaled.SetSym(i, j, scale*sigma.At(i, j))
		}
	}

	x := make([]float64, dim)
	n, ok := distmv.NewNormal(mean, p.scaled, p.src)
	if !ok {
		// The running estimate can lose positive definiteness to
		// floating-point drift or a degenerate chain. Retry with
		// growing diagonal jitter before giving up on the full
		// matrix.
		jitter := 1e-10 * (1 + maxDiag(p.scaled))
		for try := 0; try < 3 && !ok; try++ {
			for i := 0; i < dim; i++ {
				p.scaled.SetSym(i, i, p.scaled.At(i, i)+jitter)
			}
			jitter *= 1e3
			n, ok = distmv.NewNormal(mean, p.scaled, p.src)
		}
	}
	if !ok {
		log.Warning("proposal covariance is not positive definite, falling back to diagonal")
		for i := 0; i < dim; i++ {
			sd := math.Sqrt(math.Max(p.scaled.At(i, i), 1e-300))
			x[i] = mean[i] + p.normFloat64()*sd
		}
		return x
	}
	return n.Rand(x)
}

func (p *normalProposal) normFloat64() float64 {
	if p.src != nil {
		return p.src.NormFloat64()
	}
	return rand.NormFloat64()
}

func maxDiag(m *mat64.SymDense) (max float64) {
	for i := 0; i < m.Symmetric(); i++ {
		if v := math.Abs(m.At(i, i)); v > max {
			max = v
		}
	}
	return
}
