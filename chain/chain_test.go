package chain

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"
)

const smallDiff = 1e-9

func TestAppendAndColumns(tst *testing.T) {
	c := New([]string{"a", "b"})
	c.Append([]float64{1, 10}, -1, 1)
	c.Append([]float64{2, 20}, -2, 0.5)
	c.Append([]float64{3, 30}, -3, 1.0/3)
	if c.Len() != 3 || c.Dim() != 2 {
		tst.Fatalf("Unexpected chain shape: %d x %d", c.Len(), c.Dim())
	}
	col := c.Column(1)
	if col[0] != 10 || col[1] != 20 || col[2] != 30 {
		tst.Errorf("Unexpected column: %v", col)
	}
	if c.FinalAcceptanceRate() != 1.0/3 {
		tst.Errorf("Unexpected final acceptance rate: %v", c.FinalAcceptanceRate())
	}
	if math.Abs(c.MeanLogPDF()-(-2)) > smallDiff {
		tst.Errorf("Unexpected mean log-density: %v", c.MeanLogPDF())
	}

	// appended samples are copied
	s := []float64{4, 40}
	c.Append(s, -4, 0.5)
	s[0] = 99
	if c.Sample(3)[0] != 4 {
		tst.Error("Append did not copy the sample")
	}
}

func TestDiscard(tst *testing.T) {
	c := New([]string{"a"})
	for i := 0; i < 10; i++ {
		c.Append([]float64{float64(i)}, 0, 1)
	}
	d, err := c.Discard(4)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if d.Len() != 6 {
		tst.Errorf("Expected 6 samples after discard, got %d", d.Len())
	}
	if d.Sample(0)[0] != 4 {
		tst.Errorf("Unexpected first sample after discard: %v", d.Sample(0))
	}
	if _, err = c.Discard(11); err == nil {
		tst.Error("Expected error discarding more samples than stored")
	}
}

func TestTrajectoryFormat(tst *testing.T) {
	c := New([]string{"r", "k"})
	c.Append([]float64{0.015, 500}, -12.5, 1)
	var buf bytes.Buffer
	if err := c.WriteTrajectory(&buf); err != nil {
		tst.Fatal("Error: ", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		tst.Fatalf("Expected header and one line, got %d lines", len(lines))
	}
	if lines[0] != "iteration\tlogPDF\tr\tk" {
		tst.Errorf("Unexpected header: %q", lines[0])
	}
	if lines[1] != "0\t-12.500000\t0.015000\t500.000000" {
		tst.Errorf("Unexpected line: %q", lines[1])
	}
}

func TestSummarize(tst *testing.T) {
	src := rand.New(rand.NewSource(3))
	c := New([]string{"x"})
	for i := 0; i < 5000; i++ {
		c.Append([]float64{2 + src.NormFloat64()}, 0, 1)
	}
	sum, err := c.Summarize(0.95)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if len(sum) != 1 {
		tst.Fatalf("Expected one summary, got %d", len(sum))
	}
	s := sum[0]
	if math.Abs(s.Mean-2) > 0.1 {
		tst.Errorf("Mean estimate too far off: %v", s.Mean)
	}
	if math.Abs(s.SD-1) > 0.1 {
		tst.Errorf("SD estimate too far off: %v", s.SD)
	}
	if s.Lower >= s.Mean || s.Upper <= s.Mean {
		tst.Errorf("Interval [%v, %v] does not bracket the mean %v", s.Lower, s.Upper, s.Mean)
	}
	if s.Min > s.Mean || s.Max < s.Mean {
		tst.Error("Min/max do not bracket the mean")
	}
	if _, err = c.Summarize(1); err == nil {
		tst.Error("Expected error for interval level 1")
	}
}

func TestEffectiveSampleSize(tst *testing.T) {
	src := rand.New(rand.NewSource(5))
	n := 2000
	iid := make([]float64, n)
	for i := range iid {
		iid[i] = src.NormFloat64()
	}
	essIID := EffectiveSampleSize(iid)
	if essIID < float64(n)/3 {
		tst.Errorf("ESS of iid noise too small: %v", essIID)
	}

	// strongly autocorrelated AR(1) chain must have a much
	// smaller effective size
	ar := make([]float64, n)
	for i := 1; i < n; i++ {
		ar[i] = 0.95*ar[i-1] + src.NormFloat64()
	}
	essAR := EffectiveSampleSize(ar)
	if essAR >= essIID/2 {
		tst.Errorf("ESS did not shrink for autocorrelated chain: %v vs %v", essAR, essIID)
	}

	// a constant chain has one effective sample
	if ess := EffectiveSampleSize([]float64{1, 1, 1, 1}); ess != 1 {
		tst.Errorf("Expected ESS 1 for a constant chain, got %v", ess)
	}
}
