// Package toy provides simple target log-densities for testing
// samplers and for the command line tool. All targets are pure
// functions from a parameter vector to an unnormalized log-density
// and are safe to share between chains.
package toy
