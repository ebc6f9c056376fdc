package toy

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Logistic is a posterior for a logistic population growth curve
//
//	p(t) = k / (1 + (k/p0 - 1) exp(-r t))
//
// observed under iid gaussian noise, with a uniform prior box over
// the parameters [r, k, sigma]. It is the classical three-parameter
// inference problem used to exercise adaptive samplers on strongly
// differently-scaled parameters.
type Logistic struct {
	p0     float64
	times  []float64
	values []float64
	lower  []float64
	upper  []float64
}

// NewLogistic creates a logistic growth posterior. Synthetic
// observations are simulated at n evenly spaced times in [0, tMax]
// from the true parameters r and k, with gaussian noise of standard
// deviation noise. A nil src uses the global random generator.
func NewLogistic(r, k, noise float64, n int, tMax float64, src *rand.Rand) (*Logistic, error) {
	if r <= 0 || k <= 0 || noise <= 0 {
		return nil, errors.New("growth rate, carrying capacity and noise must be positive")
	}
	if n < 2 {
		return nil, errors.Errorf("need at least 2 observations, got %d", n)
	}
	m := &Logistic{
		p0:     2,
		times:  make([]float64, n),
		values: make([]float64, n),
		lower:  []float64{r * 2 / 3, k * 0.8, noise * 0.1},
		upper:  []float64{r * 4 / 3, k * 1.2, noise * 100},
	}
	for i := range m.times {
		m.times[i] = tMax * float64(i) / float64(n-1)
	}
	m.Simulate(r, k, m.values)
	for i := range m.values {
		if src != nil {
			m.values[i] += src.NormFloat64() * noise
		} else {
			m.values[i] += rand.NormFloat64() * noise
		}
	}
	return m, nil
}

// Dim returns the number of parameters.
func (m *Logistic) Dim() int {
	return 3
}

// Simulate evaluates the noise-free growth curve for rate r and
// carrying capacity k into out, one value per observation time.
func (m *Logistic) Simulate(r, k float64, out []float64) {
	c := k/m.p0 - 1
	for i, t := range m.times {
		out[i] = k / (1 + c*math.Exp(-r*t))
	}
}

// LogPDF returns the unnormalized log-posterior at x = [r, k, sigma].
// Points outside the prior box have zero probability.
func (m *Logistic) LogPDF(x []float64) float64 {
	for i, v := range x {
		if v < m.lower[i] || v > m.upper[i] {
			return math.Inf(-1)
		}
	}
	r, k, sigma := x[0], x[1], x[2]
	c := k/m.p0 - 1
	rss := 0.0
	for i, t := range m.times {
		d := m.values[i] - k/(1+c*math.Exp(-r*t))
		rss += d * d
	}
	n := float64(len(m.times))
	return -n*math.Log(sigma) - rss/(2*sigma*sigma)
}
