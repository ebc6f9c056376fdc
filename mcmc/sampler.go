package mcmc

import (
	"math"
	"math/rand"

	"github.com/gonum/matrix/mat64"
	"github.com/pkg/errors"
)

// Sampler is a single-chain random-walk Metropolis sampler with a
// pluggable adaptation strategy. It is driven through strictly
// alternating Ask/Tell calls: Ask emits a candidate point, the
// caller evaluates the target log-density, and Tell feeds the value
// back and returns the next chain sample.
//
// A Sampler is not safe for concurrent use. Run independent chains
// with independent Sampler instances.
type Sampler struct {
	x0  []float64
	dim int

	current       []float64
	currentLogPDF float64
	started       bool

	// pending candidate; nil while awaiting Ask
	proposed []float64

	adapt        Adaptation
	initialPhase bool

	iterations int
	accepted   int

	prop *normalProposal
	src  *rand.Rand
}

// NewSampler creates a sampler starting at x0 with the given
// adaptation strategy. A nil src uses the global random generator;
// pass a seeded *rand.Rand for reproducible chains. x0 must be
// non-empty and finite.
func NewSampler(x0 []float64, adapt Adaptation, src *rand.Rand) (*Sampler, error) {
	if len(x0) == 0 {
		return nil, errors.New("empty initial point")
	}
	for i, v := range x0 {
		if !isFinite(v) {
			return nil, errors.Errorf("initial point has non-finite element at index %d", i)
		}
	}
	if adapt == nil {
		return nil, errors.New("nil adaptation strategy")
	}
	if adapt.Covariance().Symmetric() != len(x0) {
		return nil, errors.New("adaptation dimension does not match initial point")
	}
	start := make([]float64, len(x0))
	copy(start, x0)
	return &Sampler{
		x0:           start,
		dim:          len(x0),
		adapt:        adapt,
		initialPhase: true,
		prop:         newNormalProposal(len(x0), src),
		src:          src,
	}, nil
}

// NewRemi creates a sampler with the Remi adaptive covariance
// strategy, starting at x0 with proposal covariance seed sigma0
// (identity if nil).
func NewRemi(x0 []float64, sigma0 *mat64.SymDense, src *rand.Rand) (*Sampler, error) {
	if sigma0 != nil && sigma0.Symmetric() != len(x0) {
		return nil, errors.New("sigma0 dimension does not match initial point")
	}
	return NewSampler(x0, NewRemiAdaptation(x0, sigma0), src)
}

// Ask returns the candidate point to evaluate the log-density at.
// The very first call returns the initial point. Repeated calls
// without an intervening Tell return the same cached candidate.
// Callers must not modify the returned slice.
func (s *Sampler) Ask() []float64 {
	if s.proposed != nil {
		return s.proposed
	}
	if !s.started {
		s.proposed = s.x0
		return s.proposed
	}
	s.proposed = s.prop.draw(s.current, s.adapt.Scale(), s.adapt.Covariance())
	return s.proposed
}

// Tell feeds back the log-density of the last Ask'ed candidate and
// returns the next chain sample (the accepted candidate, or the
// retained previous state on rejection). Callers must not modify
// the returned slice.
//
// The first Tell accepts the initial point unconditionally and fails
// if its log-density is non-finite: the chain cannot start from a
// zero-probability point. On later calls a non-finite value is an
// automatic rejection, never an error.
func (s *Sampler) Tell(fx float64) ([]float64, error) {
	if s.proposed == nil {
		return nil, errors.New("tell called before ask")
	}

	if !s.started {
		if !isFinite(fx) {
			return nil, errors.Errorf("initial point has non-finite log-density (%v)", fx)
		}
		s.current = s.proposed
		s.currentLogPDF = fx
		s.proposed = nil
		s.started = true
		s.iterations++
		s.accepted++
		if !s.initialPhase {
			s.adapt.Update(true, s.current)
		}
		return s.current, nil
	}

	// currentLogPDF is always finite, so the ratio below never
	// degenerates to Inf-Inf; a NaN or infinite fx is guarded
	// before the comparison.
	accepted := false
	if isFinite(fx) {
		accepted = math.Log(s.uniform()) < fx-s.currentLogPDF
	}
	if accepted {
		s.current = s.proposed
		s.currentLogPDF = fx
		s.accepted++
	}
	s.proposed = nil
	s.iterations++

	if !s.initialPhase {
		s.adapt.Update(accepted, s.current)
	}
	return s.current, nil
}

// Name returns the sampler name.
func (s *Sampler) Name() string {
	return s.adapt.Name()
}

// AcceptanceRate returns the fraction of accepted points so far, or
// 0 before the first Tell.
func (s *Sampler) AcceptanceRate() float64 {
	if s.iterations == 0 {
		return 0
	}
	return float64(s.accepted) / float64(s.iterations)
}

// Iterations returns the number of completed Tell calls.
func (s *Sampler) Iterations() int {
	return s.iterations
}

// CurrentLogPDF returns the log-density at the current chain state.
// It is only meaningful after at least one Tell.
func (s *Sampler) CurrentLogPDF() float64 {
	if !s.started {
		return math.NaN()
	}
	return s.currentLogPDF
}

// InitialPhase reports whether adaptation is currently suppressed.
func (s *Sampler) InitialPhase() bool {
	return s.initialPhase
}

// SetInitialPhase toggles adaptation suppression. Counters are not
// reset.
func (s *Sampler) SetInitialPhase(phase bool) {
	s.initialPhase = phase
}

// SetTargetAcceptanceRate sets the target acceptance rate of the
// adaptation strategy; fails if the strategy does not steer towards
// an acceptance rate or if r is outside (0, 1].
func (s *Sampler) SetTargetAcceptanceRate(r float64) error {
	t, ok := s.adapt.(RateTargeted)
	if !ok {
		return errors.Errorf("%s has no target acceptance rate", s.Name())
	}
	return t.SetTargetAcceptanceRate(r)
}

// NHyperParameters returns the number of hyperparameters of the
// adaptation strategy.
func (s *Sampler) NHyperParameters() int {
	h, ok := s.adapt.(HyperParametered)
	if !ok {
		return 0
	}
	return h.NHyperParameters()
}

// SetHyperParameters passes hyperparameters to the adaptation
// strategy.
func (s *Sampler) SetHyperParameters(p []float64) error {
	h, ok := s.adapt.(HyperParametered)
	if !ok {
		return errors.Errorf("%s has no hyperparameters", s.Name())
	}
	return h.SetHyperParameters(p)
}

// Adaptation returns the injected adaptation strategy.
func (s *Sampler) Adaptation() Adaptation {
	return s.adapt
}

// Diagnostics returns name/value pairs for logging and reporting.
func (s *Sampler) Diagnostics() []Diagnostic {
	return []Diagnostic{
		{"Accept.", s.AcceptanceRate()},
		{"LogPDF", s.CurrentLogPDF()},
		{"Scale", s.adapt.Scale()},
	}
}

func (s *Sampler) uniform() float64 {
	if s.src != nil {
		return s.src.Float64()
	}
	return rand.Float64()
}
