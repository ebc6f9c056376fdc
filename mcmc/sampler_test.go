package mcmc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/gonum/matrix/mat64"
)

// gaussianLogPDF returns a spherical gaussian log-density centered
// at mean with the given standard deviation.
func gaussianLogPDF(mean []float64, sd float64) LogPDF {
	return func(x []float64) float64 {
		s := 0.0
		for i, m := range mean {
			d := x[i] - m
			s += d * d
		}
		return -s / (2 * sd * sd)
	}
}

func TestFirstAskReturnsX0(tst *testing.T) {
	x0 := []float64{0.015, 500, 10}
	s, err := NewRemi(x0, nil, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	x := s.Ask()
	if len(x) != len(x0) {
		tst.Fatalf("Incorrect proposal length: %d", len(x))
	}
	for i := range x0 {
		if x[i] != x0[i] {
			tst.Errorf("First proposal %v differs from x0 %v", x, x0)
			break
		}
	}
}

func TestAskIdempotent(tst *testing.T) {
	s, err := NewRemi([]float64{1, 2}, nil, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	f := gaussianLogPDF([]float64{0, 0}, 1)
	// get past the initial point
	for i := 0; i < 10; i++ {
		if _, err = s.Tell(f(s.Ask())); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	x := s.Ask()
	for i := 0; i < 10; i++ {
		y := s.Ask()
		if &x[0] != &y[0] {
			tst.Error("Repeated ask returned a different point")
		}
	}
}

func TestTellBeforeAsk(tst *testing.T) {
	s, err := NewRemi([]float64{0}, nil, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if _, err = s.Tell(0); err == nil {
		tst.Error("Expected error for tell before ask")
	}
}

func TestDoubleTell(tst *testing.T) {
	s, err := NewRemi([]float64{0}, nil, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	s.Ask()
	if _, err = s.Tell(0); err != nil {
		tst.Fatal("Error: ", err)
	}
	if _, err = s.Tell(0); err == nil {
		tst.Error("Expected error for second tell without ask")
	}
}

func TestBadStartingPoint(tst *testing.T) {
	for _, fx := range []float64{math.Inf(-1), math.Inf(+1), math.NaN()} {
		s, err := NewRemi([]float64{0}, nil, nil)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		s.Ask()
		if _, err = s.Tell(fx); err == nil {
			tst.Errorf("Expected error for initial log-density %v", fx)
		}
	}
}

func TestNonFiniteRejects(tst *testing.T) {
	s, err := NewRemi([]float64{1, 2}, nil, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	s.Ask()
	if _, err = s.Tell(-1); err != nil {
		tst.Fatal("Error: ", err)
	}
	accepted := s.accepted
	for _, fx := range []float64{math.Inf(-1), math.NaN(), math.Inf(+1)} {
		s.Ask()
		x, err := s.Tell(fx)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		if x[0] != 1 || x[1] != 2 {
			tst.Errorf("Rejection changed current state: %v", x)
		}
		if s.CurrentLogPDF() != -1 {
			tst.Errorf("Rejection changed current log-density: %v", s.CurrentLogPDF())
		}
		if s.accepted != accepted {
			tst.Error("Rejection changed accepted count")
		}
	}
}

func TestAdaptationCount(tst *testing.T) {
	x0 := []float64{1, 2}
	a := NewRemiAdaptation(x0, nil)
	s, err := NewSampler(x0, a, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	s.SetInitialPhase(false)
	f := gaussianLogPDF([]float64{0, 0}, 1)
	n := 50
	for i := 0; i < n; i++ {
		if _, err = s.Tell(f(s.Ask())); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	if a.AdaptationCount() != n {
		tst.Errorf("Expected %d adaptive steps, got %d", n, a.AdaptationCount())
	}

	// rounds spent in the initial phase do not adapt
	a = NewRemiAdaptation(x0, nil)
	s, err = NewSampler(x0, a, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	skip := 20
	for i := 0; i < n; i++ {
		if i == skip {
			s.SetInitialPhase(false)
		}
		if _, err = s.Tell(f(s.Ask())); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	if a.AdaptationCount() != n-skip {
		tst.Errorf("Expected %d adaptive steps, got %d", n-skip, a.AdaptationCount())
	}
}

func TestAcceptanceRate(tst *testing.T) {
	s, err := NewRemi([]float64{0, 0}, nil, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if s.AcceptanceRate() != 0 {
		tst.Errorf("Expected zero acceptance rate before sampling, got %v", s.AcceptanceRate())
	}
	// constant log-density: every proposal is accepted
	n := 40
	for i := 0; i < n; i++ {
		s.Ask()
		if _, err = s.Tell(0); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	if s.AcceptanceRate() != 1 {
		tst.Errorf("Expected acceptance rate 1, got %v", s.AcceptanceRate())
	}
	// reject everything from now on
	for i := 0; i < n; i++ {
		s.Ask()
		if _, err = s.Tell(math.Inf(-1)); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	want := float64(n) / float64(2*n)
	if s.AcceptanceRate() != want {
		tst.Errorf("Expected acceptance rate %v, got %v", want, s.AcceptanceRate())
	}
}

func TestHyperParameters(tst *testing.T) {
	s, err := NewRemi([]float64{0}, nil, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	for _, r := range []float64{0, -1e-6, 1.00001} {
		if err = s.SetTargetAcceptanceRate(r); err == nil {
			tst.Errorf("Expected error for target acceptance rate %v", r)
		}
	}
	for _, r := range []float64{1, 0.5, 1e-6} {
		if err = s.SetTargetAcceptanceRate(r); err != nil {
			tst.Errorf("Unexpected error for target acceptance rate %v: %v", r, err)
		}
	}
	if s.NHyperParameters() != 1 {
		tst.Errorf("Expected 1 hyperparameter, got %d", s.NHyperParameters())
	}
	if err = s.SetHyperParameters([]float64{-0.1}); err == nil {
		tst.Error("Expected error for negative eta")
	}
	if err = s.SetHyperParameters([]float64{0.3, 0.1}); err == nil {
		tst.Error("Expected error for wrong hyperparameter count")
	}
	if err = s.SetHyperParameters([]float64{0.3}); err != nil {
		tst.Error("Error: ", err)
	}
	remi := s.Adaptation().(*RemiAdaptation)
	if remi.Eta() != 0.3 {
		tst.Errorf("Expected eta=0.3, got %v", remi.Eta())
	}
	if s.Name() != "Remi adaptive covariance MCMC" {
		tst.Errorf("Unexpected sampler name: %s", s.Name())
	}
}

func TestEndToEnd(tst *testing.T) {
	x0 := []float64{0.015, 500, 10}
	src := rand.New(rand.NewSource(42))
	s, err := NewRemi(x0, nil, src)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if err = s.SetTargetAcceptanceRate(0.3); err != nil {
		tst.Fatal("Error: ", err)
	}
	f := gaussianLogPDF(x0, 10)

	var chain [][]float64
	var rate []float64
	for i := 0; i < 100; i++ {
		x := s.Ask()
		fx := f(x)
		sample, err := s.Tell(fx)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		if i == 20 {
			s.SetInitialPhase(false)
		}
		if i >= 50 {
			chain = append(chain, sample)
		}
		rate = append(rate, s.AcceptanceRate())
		if &sample[0] == &x[0] && s.CurrentLogPDF() != fx {
			tst.Error("Accepted sample log-density mismatch")
		}
	}

	if len(chain) != 50 {
		tst.Errorf("Expected 50 chain samples, got %d", len(chain))
	}
	for _, sample := range chain {
		if len(sample) != len(x0) {
			tst.Errorf("Expected %d-dimensional samples, got %d", len(x0), len(sample))
		}
	}
	if len(rate) != 100 {
		tst.Errorf("Expected 100 acceptance rate values, got %d", len(rate))
	}
	for i, r := range rate {
		if r < 0 || r > 1 {
			tst.Errorf("Acceptance rate %v out of [0, 1] at iteration %d", r, i)
		}
	}
}

func TestDeterminism(tst *testing.T) {
	x0 := []float64{1, -1}
	f := gaussianLogPDF([]float64{0, 0}, 2)

	run := func(seed int64) [][]float64 {
		src := rand.New(rand.NewSource(seed))
		s, err := NewRemi(x0, nil, src)
		if err != nil {
			tst.Fatal("Error: ", err)
		}
		s.SetInitialPhase(false)
		var chain [][]float64
		for i := 0; i < 200; i++ {
			sample, err := s.Tell(f(s.Ask()))
			if err != nil {
				tst.Fatal("Error: ", err)
			}
			chain = append(chain, sample)
		}
		return chain
	}

	a := run(7)
	b := run(7)
	for i := range a {
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				tst.Fatalf("Chains diverge at iteration %d: %v != %v", i, a[i], b[i])
			}
		}
	}
}

func TestDegenerateCovariance(tst *testing.T) {
	// a zero covariance seed is not positive definite; the proposal
	// source must still produce finite candidates
	dim := 3
	sigma0 := make([]float64, dim*dim)
	x0 := []float64{1, 2, 3}
	s, err := NewRemi(x0, mat64.NewSymDense(dim, sigma0), nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	s.Ask()
	if _, err = s.Tell(0); err != nil {
		tst.Fatal("Error: ", err)
	}
	x := s.Ask()
	for _, v := range x {
		if !isFinite(v) {
			tst.Errorf("Non-finite proposal %v from degenerate covariance", x)
		}
	}
}

func TestStateRoundTrip(tst *testing.T) {
	x0 := []float64{1, 2}
	f := gaussianLogPDF([]float64{0, 0}, 1)
	s, err := NewRemi(x0, nil, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	s.SetInitialPhase(false)
	for i := 0; i < 30; i++ {
		if _, err = s.Tell(f(s.Ask())); err != nil {
			tst.Fatal("Error: ", err)
		}
	}
	st := s.State()
	if st == nil {
		tst.Fatal("Expected non-nil state after sampling")
	}

	r, err := NewRemi(x0, nil, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if err = r.SetState(st); err != nil {
		tst.Fatal("Error: ", err)
	}
	if r.Iterations() != s.Iterations() {
		tst.Errorf("Iterations not restored: %d != %d", r.Iterations(), s.Iterations())
	}
	if r.CurrentLogPDF() != s.CurrentLogPDF() {
		tst.Errorf("Log-density not restored: %v != %v", r.CurrentLogPDF(), s.CurrentLogPDF())
	}
	if r.AcceptanceRate() != s.AcceptanceRate() {
		tst.Errorf("Acceptance rate not restored: %v != %v", r.AcceptanceRate(), s.AcceptanceRate())
	}
	ra := r.Adaptation().(*RemiAdaptation)
	sa := s.Adaptation().(*RemiAdaptation)
	if ra.AdaptationCount() != sa.AdaptationCount() {
		tst.Errorf("Adaptation count not restored: %d != %d", ra.AdaptationCount(), sa.AdaptationCount())
	}
	if ra.LogA() != sa.LogA() {
		tst.Errorf("LogA not restored: %v != %v", ra.LogA(), sa.LogA())
	}
	// the restored sampler keeps following the protocol
	if _, err = r.Tell(f(r.Ask())); err != nil {
		tst.Error("Error: ", err)
	}
}
