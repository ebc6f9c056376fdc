// plotchain creates trace plots from an acmc trajectory file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

func main() {
	out := flag.String("out", "trace", "output file name prefix")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: plotchain [-out prefix] trajectory.tsv")
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		panic(err)
	}
	defer f.Close()

	names, cols, err := readTrajectory(f)
	if err != nil {
		panic(err)
	}

	// first two columns are the iteration number and the
	// log-density; plot everything after the iteration column
	for j := 1; j < len(names); j++ {
		p := plot.New()
		p.Title.Text = names[j]
		p.X.Label.Text = "iteration"

		pts := make(plotter.XYs, len(cols[j]))
		for i, v := range cols[j] {
			pts[i].X = cols[0][i]
			pts[i].Y = v
		}
		if err = plotutil.AddLines(p, names[j], pts); err != nil {
			panic(err)
		}
		fn := fmt.Sprintf("%s-%s.png", *out, names[j])
		if err := p.Save(6*vg.Inch, 4*vg.Inch, fn); err != nil {
			panic(err)
		}
		fmt.Println(fn)
	}
}

// readTrajectory parses a tab-separated trajectory file into
// per-column value slices.
func readTrajectory(f *os.File) (names []string, cols [][]float64, err error) {
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if names == nil {
			names = fields
			cols = make([][]float64, len(fields))
			continue
		}
		if len(fields) != len(names) {
			return nil, nil, fmt.Errorf("expected %d fields, got %d", len(names), len(fields))
		}
		for j, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, err
			}
			cols[j] = append(cols[j], v)
		}
	}
	return names, cols, scanner.Err()
}
