package main

import "bitbucket.org/Davydov/acmc/chain"

// RunSummary stores acmc run summary information.
type RunSummary struct {
	// Version stores acmc version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// TotalTime is the computation time in seconds.
	TotalTime float64 `json:"time"`
	// Sampler is the sampler name.
	Sampler string `json:"sampler"`
	// Iterations is the number of completed iterations.
	Iterations int `json:"iterations"`
	// AcceptanceRate is the final acceptance rate.
	AcceptanceRate float64 `json:"acceptanceRate"`
	// Parameters are the posterior summaries after warm-up removal.
	Parameters []chain.ParameterSummary `json:"parameters,omitempty"`
}
