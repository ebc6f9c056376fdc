package mcmc

import (
	"github.com/pkg/errors"
)

// State is a serializable snapshot of a sampler, sufficient to
// resume a chain from a checkpoint.
type State struct {
	Current       []float64        `json:"current"`
	CurrentLogPDF float64          `json:"currentLogPDF"`
	Iterations    int              `json:"iterations"`
	Accepted      int              `json:"accepted"`
	InitialPhase  bool             `json:"initialPhase"`
	Adaptation    *AdaptationState `json:"adaptation,omitempty"`
}

// AdaptationState is the strategy part of a sampler snapshot.
type AdaptationState struct {
	Mu    []float64   `json:"mu"`
	Sigma [][]float64 `json:"sigma"`
	LogA  float64     `json:"logA"`
	Count int         `json:"count"`
}

// State exports the sampler state. It returns nil before the first
// Tell or while a proposal is pending, since a half-finished round
// cannot be resumed.
func (s *Sampler) State() *State {
	if !s.started || s.proposed != nil {
		return nil
	}
	st := &State{
		Current:       append([]float64(nil), s.current...),
		CurrentLogPDF: s.currentLogPDF,
		Iterations:    s.iterations,
		Accepted:      s.accepted,
		InitialPhase:  s.initialPhase,
	}
	if a, ok := s.adapt.(Stateful); ok {
		st.Adaptation = a.AdaptationState()
	}
	return st
}

// SetState restores a previously exported state, leaving the
// sampler awaiting Ask.
func (s *Sampler) SetState(st *State) error {
	if st == nil {
		return errors.New("nil state")
	}
	if len(st.Current) != s.dim {
		return errors.Errorf("state dimension %d does not match sampler dimension %d",
			len(st.Current), s.dim)
	}
	if !isFinite(st.CurrentLogPDF) {
		return errors.New("state has non-finite log-density")
	}
	if st.Adaptation != nil {
		a, ok := s.adapt.(Stateful)
		if !ok {
			return errors.Errorf("%s does not support state restore", s.Name())
		}
		if err := a.SetAdaptationState(st.Adaptation); err != nil {
			return err
		}
	}
	s.current = append([]float64(nil), st.Current...)
	s.currentLogPDF = st.CurrentLogPDF
	s.iterations = st.Iterations
	s.accepted = st.Accepted
	s.initialPhase = st.InitialPhase
	s.started = true
	s.proposed = nil
	return nil
}
