/*
Acmc samples from a target distribution using adaptive covariance
random-walk Metropolis MCMC. The proposal covariance is learned
online from the chain history and the overall step size is tuned
towards a target acceptance rate.

The basic usage looks like this:

	acmc normal

, this will sample from a multivariate normal target with the Remi
adaptive covariance sampler.

You can change the target and the adaptation strategy:

	acmc -strategy fullmatrix -iter 50000 logistic

To see all the options run:

	acmc -h
*/
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"runtime/pprof"
	"time"

	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("acmc")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("acmc", "adaptive covariance MCMC sampler").Version(version)

	// target
	target = app.Arg("target", "target distribution (normal, rosenbrock or logistic)").Required().
		Enum("normal", "rosenbrock", "logistic")
	dim = app.Flag("dim", "number of parameters of the normal target").Default("3").Int()

	// sampler parameters
	iterations = app.Flag("iter", "number of iterations").Default("10000").Int()
	strategy   = app.Flag("strategy", "adaptation strategy "+
		"(remi: log-scale adaptation towards a target acceptance rate, "+
		"fullmatrix: covariance-only with the fixed 2.38^2/d scale"+
		")").Default("remi").Enum("remi", "fullmatrix")
	initial = app.Flag("initial", "length of the initial phase without adaptation (5% by default)").
		Default("-1").Int()
	rate = app.Flag("rate", "target acceptance rate (remi strategy)").
		Default("0.234").Float64()
	eta     = app.Flag("eta", "adaptation decay exponent").Default("0.6").Float64()
	discard = app.Flag("discard", "number of warm-up samples to discard in summaries (20% by default)").
		Default("-1").Int()
	mapStart = app.Flag("mapstart", "maximize the log-density to find the starting point").Bool()

	// reporting
	report = app.Flag("report", "report progress every N iterations").Default("1000").Int()
	accept = app.Flag("accept", "report acceptance rate every N iterations").Default("1000").Int()

	// technical
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// checkpoints
	checkpointFileName = app.Flag("checkpoint", "checkpoint file name").String()
	checkpointSeconds  = app.Flag("checkpointseconds", "checkpoint every N seconds").
				Default("30").Float64()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	trajFn   = app.Flag("out", "write sampling trajectory to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	logging.SetLevel(level, "acmc")
	logging.SetLevel(level, "mcmc")
	logging.SetLevel(level, "checkpoint")
	logging.SetLevel(level, "optimize")

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)
	src := rand.New(rand.NewSource(*seed))

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	startTime := time.Now()
	summary := run(src)
	summary.Version = version
	summary.CommandLine = os.Args
	summary.Seed = *seed
	summary.TotalTime = time.Since(startTime).Seconds()

	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Fatal(err)
		}
		f, err := os.Create(*jsonF)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if _, err := f.Write(j); err != nil {
			log.Fatal(err)
		}
	}
	log.Infof("Total time in seconds: %v", summary.TotalTime)
}
