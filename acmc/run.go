package main

import (
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/acmc/chain"
	"bitbucket.org/Davydov/acmc/checkpoint"
	"bitbucket.org/Davydov/acmc/mcmc"
	"bitbucket.org/Davydov/acmc/optimize"
	"bitbucket.org/Davydov/acmc/toy"
)

// newTarget creates the target log-density, its starting point and
// parameter names from the command line parameters.
func newTarget(src *rand.Rand) (f mcmc.LogPDF, x0 []float64, names []string, err error) {
	switch *target {
	case "normal":
		log.Infof("Using %d-dimensional normal target", *dim)
		mean := make([]float64, *dim)
		for i := range mean {
			mean[i] = float64(i + 1)
		}
		var g *toy.Gaussian
		g, err = toy.NewGaussian(mean, nil)
		if err != nil {
			return
		}
		f = g.LogPDF
		x0 = make([]float64, *dim)
		names = make([]string, *dim)
		for i := range x0 {
			x0[i] = mean[i] * 1.1
			names[i] = fmt.Sprintf("p%d", i)
		}
	case "rosenbrock":
		log.Info("Using rosenbrock target")
		r := toy.NewRosenbrock()
		f = r.LogPDF
		x0 = []float64{0, 0}
		names = []string{"x", "y"}
	case "logistic":
		log.Info("Using logistic growth posterior")
		var m *toy.Logistic
		m, err = toy.NewLogistic(0.015, 500, 10, 1000, 1000, src)
		if err != nil {
			return
		}
		f = m.LogPDF
		x0 = []float64{0.015 * 1.1, 500 * 1.1, 10 * 1.1}
		names = []string{"rate", "capacity", "sigma"}
	default:
		err = fmt.Errorf("unknown target: %s", *target)
	}
	return
}

// newSampler creates a sampler with the adaptation strategy from the
// command line parameters.
func newSampler(x0 []float64, src *rand.Rand) (*mcmc.Sampler, error) {
	var adapt mcmc.Adaptation
	switch *strategy {
	case "remi":
		adapt = mcmc.NewRemiAdaptation(x0, nil)
	case "fullmatrix":
		adapt = mcmc.NewFullMatrixAdaptation(x0, nil)
	default:
		return nil, fmt.Errorf("unknown adaptation strategy: %s", *strategy)
	}

	s, err := mcmc.NewSampler(x0, adapt, src)
	if err != nil {
		return nil, err
	}
	if *strategy == "remi" {
		if err = s.SetTargetAcceptanceRate(*rate); err != nil {
			return nil, err
		}
	}
	if err = s.SetHyperParameters([]float64{*eta}); err != nil {
		return nil, err
	}
	return s, nil
}

func run(src *rand.Rand) (summary *RunSummary) {
	summary = &RunSummary{}

	f, x0, names, err := newTarget(src)
	if err != nil {
		log.Fatal(err)
	}

	if *mapStart {
		search := optimize.NewMAPSearch(f)
		better, err := search.Run(x0)
		if err != nil {
			log.Warningf("MAP search did not converge: %v", err)
		}
		log.Infof("MAP start point: %v (logPDF=%v)", better, search.MaxLogPDF())
		x0 = better
	}

	s, err := newSampler(x0, src)
	if err != nil {
		log.Fatal(err)
	}
	summary.Sampler = s.Name()
	log.Infof("Using %s", s.Name())

	var cio *checkpoint.CheckpointIO
	if *checkpointFileName != "" {
		db, err := bolt.Open(*checkpointFileName, 0600, nil)
		if err != nil {
			log.Fatal("Error opening checkpoint file:", err)
		}
		defer db.Close()
		cio = checkpoint.NewCheckpointIO(db, []byte(*target), *checkpointSeconds)
		data, err := cio.Load()
		if err != nil {
			log.Fatal("Error loading checkpoint:", err)
		}
		if data != nil && !data.Final {
			if err = s.SetState(data.Sampler); err != nil {
				log.Fatal("Error restoring checkpoint:", err)
			}
			log.Noticef("Resuming from iteration %d", data.Iter)
		}
	}

	if *initial < 0 {
		*initial = *iterations / 20
	}
	if *discard < 0 {
		*discard = *iterations / 5
	}
	log.Infof("Initial phase: %d iterations, discarding %d warm-up samples", *initial, *discard)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	c := chain.New(names)
	done := sample(s, f, c, cio, sig)

	if cio != nil {
		err = cio.Save(&checkpoint.CheckpointData{
			Sampler: s.State(),
			Iter:    s.Iterations(),
			Final:   done,
		})
		if err != nil {
			log.Error("Error saving final checkpoint:", err)
		}
	}

	if *trajFn != "" {
		tf, err := os.Create(*trajFn)
		if err != nil {
			log.Fatal("Error creating trajectory file:", err)
		}
		defer tf.Close()
		if err = c.WriteTrajectory(tf); err != nil {
			log.Fatal("Error writing trajectory:", err)
		}
	}

	summary.Iterations = c.Len()
	summary.AcceptanceRate = s.AcceptanceRate()
	for _, d := range s.Diagnostics() {
		log.Noticef("%s=%v", d.Name, d.Value)
	}

	kept := c
	if *discard < c.Len() {
		kept, err = c.Discard(*discard)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		log.Warning("Chain shorter than the warm-up, summarizing everything")
	}
	pars, err := kept.Summarize(0.95)
	if err != nil {
		log.Error("Error summarizing chain:", err)
	} else {
		summary.Parameters = pars
		for _, p := range pars {
			log.Noticef("%s=%f (95%% CI %f..%f, ESS %.0f)", p.Name, p.Mean, p.Lower, p.Upper, p.ESS)
		}
	}
	return summary
}

// sample runs the ask/tell rounds, returning false if interrupted
// by a signal.
func sample(s *mcmc.Sampler, f mcmc.LogPDF, c *chain.Chain,
	cio *checkpoint.CheckpointIO, sig chan os.Signal) bool {
	resumed := s.Iterations()
	for i := resumed; i < *iterations; i++ {
		if i >= *initial {
			s.SetInitialPhase(false)
		}

		x := s.Ask()
		point, err := s.Tell(f(x))
		if err != nil {
			log.Fatal(err)
		}
		c.Append(point, s.CurrentLogPDF(), s.AcceptanceRate())

		if i > 0 && i%*accept == 0 {
			log.Infof("Acceptance rate %.2f%%", 100*s.AcceptanceRate())
		}
		if i%*report == 0 {
			log.Infof("%d: logPDF=%f", i, s.CurrentLogPDF())
		}
		if cio != nil && cio.Old() {
			err := cio.Save(&checkpoint.CheckpointData{
				Sampler: s.State(),
				Iter:    s.Iterations(),
			})
			if err != nil {
				log.Error("Error saving checkpoint:", err)
			}
		}

		select {
		case rs := <-sig:
			log.Warningf("Received signal %v, exiting.", rs)
			return false
		default:
		}
	}
	log.Info("Finished sampling")
	return true
}
