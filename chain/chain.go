// Package chain stores the sample sequence produced by a sampler
// and computes posterior summaries over it.
package chain

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/gonum/floats"
	"github.com/gonum/stat"
	"github.com/pkg/errors"
)

// Chain is an append-only store of chain samples together with the
// per-iteration log-density and acceptance rate traces.
type Chain struct {
	names   []string
	samples [][]float64
	logPDF  []float64
	rate    []float64
}

// New creates an empty chain with the given parameter names.
func New(names []string) *Chain {
	return &Chain{names: append([]string(nil), names...)}
}

// Append records one completed iteration. The sample is copied.
func (c *Chain) Append(sample []float64, logPDF, rate float64) {
	if len(sample) != len(c.names) {
		panic("sample dimension does not match chain")
	}
	c.samples = append(c.samples, append([]float64(nil), sample...))
	c.logPDF = append(c.logPDF, logPDF)
	c.rate = append(c.rate, rate)
}

// Len returns the number of stored samples.
func (c *Chain) Len() int {
	return len(c.samples)
}

// Dim returns the number of parameters.
func (c *Chain) Dim() int {
	return len(c.names)
}

// Names returns the parameter names.
func (c *Chain) Names() []string {
	return c.names
}

// Sample returns the i-th stored sample. Callers must not modify
// the returned slice.
func (c *Chain) Sample(i int) []float64 {
	return c.samples[i]
}

// AcceptanceRates returns the acceptance rate trace. Callers must
// not modify the returned slice.
func (c *Chain) AcceptanceRates() []float64 {
	return c.rate
}

// Column returns a copy of the values of parameter j across the
// chain.
func (c *Chain) Column(j int) []float64 {
	col := make([]float64, len(c.samples))
	for i, s := range c.samples {
		col[i] = s[j]
	}
	return col
}

// Discard returns a view of the chain with the first n samples
// (warm-up) removed. The underlying samples are shared.
func (c *Chain) Discard(n int) (*Chain, error) {
	if n < 0 || n > len(c.samples) {
		return nil, errors.Errorf("cannot discard %d of %d samples", n, len(c.samples))
	}
	return &Chain{
		names:   c.names,
		samples: c.samples[n:],
		logPDF:  c.logPDF[n:],
		rate:    c.rate[n:],
	}, nil
}

// WriteTrajectory writes the chain in the tab-separated trajectory
// format: a header line followed by one line per iteration with the
// iteration number, log-density and parameter values.
func (c *Chain) WriteTrajectory(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "iteration\tlogPDF")
	for _, name := range c.names {
		fmt.Fprintf(bw, "\t%s", name)
	}
	fmt.Fprintln(bw)
	for i, s := range c.samples {
		fmt.Fprintf(bw, "%d\t%f", i, c.logPDF[i])
		for _, v := range s {
			bw.WriteByte('\t')
			bw.WriteString(strconv.FormatFloat(v, 'f', 6, 64))
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// MeanLogPDF returns the average log-density across the chain.
func (c *Chain) MeanLogPDF() float64 {
	if len(c.logPDF) == 0 {
		return 0
	}
	return stat.Mean(c.logPDF, nil)
}

// FinalAcceptanceRate returns the acceptance rate after the last
// recorded iteration.
func (c *Chain) FinalAcceptanceRate() float64 {
	if len(c.rate) == 0 {
		return 0
	}
	return c.rate[len(c.rate)-1]
}

// Range returns the minimum and maximum of parameter j across the
// chain.
func (c *Chain) Range(j int) (min, max float64) {
	col := c.Column(j)
	return floats.Min(col), floats.Max(col)
}
