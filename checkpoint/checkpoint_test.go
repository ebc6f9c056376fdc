package checkpoint

import (
	"math/rand"
	"path"
	"testing"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/acmc/mcmc"
)

func TestSaveLoad(tst *testing.T) {
	db, err := bolt.Open(path.Join(tst.TempDir(), "acmc.db"), 0600, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	defer db.Close()

	// run a few iterations to get a non-trivial state
	src := rand.New(rand.NewSource(1))
	s, err := mcmc.NewRemi([]float64{1, 2}, nil, src)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	s.SetInitialPhase(false)
	f := func(x []float64) float64 {
		return -(x[0]*x[0] + x[1]*x[1]) / 2
	}
	for i := 0; i < 20; i++ {
		if _, err = s.Tell(f(s.Ask())); err != nil {
			tst.Fatal("Error: ", err)
		}
	}

	io := NewCheckpointIO(db, []byte("chain0"), 0)
	err = io.Save(&CheckpointData{
		Sampler: s.State(),
		Iter:    s.Iterations(),
	})
	if err != nil {
		tst.Fatal("Error: ", err)
	}

	data, err := io.Load()
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if data == nil {
		tst.Fatal("Expected a checkpoint")
	}
	if data.Iter != 20 {
		tst.Errorf("Expected iter=20, got %d", data.Iter)
	}

	r, err := mcmc.NewRemi([]float64{1, 2}, nil, nil)
	if err != nil {
		tst.Fatal("Error: ", err)
	}
	if err = r.SetState(data.Sampler); err != nil {
		tst.Fatal("Error: ", err)
	}
	if r.CurrentLogPDF() != s.CurrentLogPDF() {
		tst.Errorf("Restored log-density %v differs from %v", r.CurrentLogPDF(), s.CurrentLogPDF())
	}
	if r.Iterations() != s.Iterations() {
		tst.Errorf("Restored iterations %d differ from %d", r.Iterations(), s.Iterations())
	}
}

func TestMissingCheckpoint(tst *testing.T) {
	io := NewCheckpointIO(nil, []byte("chain0"), 0)
	data, err := io.Load()
	if err != nil {
		tst.Error("Error: ", err)
	}
	if data != nil {
		tst.Error("Expected no checkpoint from a nil database")
	}
}
