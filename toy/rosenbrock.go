package toy

// Rosenbrock is the two-dimensional banana-shaped target
// log f(x, y) = -((a - x)^2 + b (y - x^2)^2), with the mode at
// (a, a^2). The narrow curved ridge makes it a standard stress test
// for covariance adaptation.
type Rosenbrock struct {
	A, B float64
}

// NewRosenbrock creates a Rosenbrock target with the classical
// a=1, b=100 parameterization.
func NewRosenbrock() *Rosenbrock {
	return &Rosenbrock{A: 1, B: 100}
}

// Dim returns the number of parameters.
func (r *Rosenbrock) Dim() int {
	return 2
}

// LogPDF returns the log-density at x.
func (r *Rosenbrock) LogPDF(x []float64) float64 {
	d1 := r.A - x[0]
	d2 := x[1] - x[0]*x[0]
	return -(d1*d1 + r.B*d2*d2)
}
