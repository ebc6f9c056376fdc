// Package checkpoint provides periodic persistence of a running
// chain, so that an interrupted sampling run can be resumed.
package checkpoint

import (
	"encoding/json"
	"time"

	"github.com/op/go-logging"
	"github.com/pkg/errors"

	bolt "go.etcd.io/bbolt"

	"bitbucket.org/Davydov/acmc/mcmc"
)

// log is the global logging variable.
var log = logging.MustGetLogger("checkpoint")

// MAIN is the key name for all checkpoints.
var MAIN = []byte("main")

// CheckpointData stores checkpoint data for one chain.
type CheckpointData struct {
	// Sampler is the full sampler snapshot.
	Sampler *mcmc.State `json:"sampler"`
	// Iter is the number of completed iterations.
	Iter int `json:"iter"`
	// Final marks a checkpoint written after a finished run.
	Final bool `json:"final"`
}

// CheckpointIO saves and restores checkpoints.
type CheckpointIO struct {
	db      *bolt.DB
	key     []byte
	last    time.Time
	seconds float64
}

// NewCheckpointIO creates a new CheckpointIO saving under the given
// key at most once per the given number of seconds.
func NewCheckpointIO(db *bolt.DB, key []byte, seconds float64) (s *CheckpointIO) {
	s = &CheckpointIO{
		db:      db,
		key:     key,
		seconds: seconds,
	}
	return
}

// Save saves a checkpoint to the database.
func (s *CheckpointIO) Save(data *CheckpointData) error {
	// Even if saving fails, we do not want to run this code too often.
	s.SetNow()
	dataB, err := json.Marshal(data)
	if err != nil {
		log.Error("Error serializing checkpoint", err)
		return errors.Wrap(err, "serializing checkpoint")
	}
	err = SaveData(s.db, s.key, dataB)
	if err != nil {
		log.Error("Error saving checkpoint", err)
		return errors.Wrap(err, "saving checkpoint")
	}
	return nil
}

// Load returns the stored checkpoint, or nil if there is none.
func (s *CheckpointIO) Load() (*CheckpointData, error) {
	b, err := LoadData(s.db, s.key)

	if err != nil || b == nil {
		return nil, err
	}

	var data *CheckpointData
	err = json.Unmarshal(b, &data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding checkpoint")
	}

	if data == nil || data.Sampler == nil {
		return nil, nil
	}

	if data.Final {
		log.Noticef("Found finished sampling checkpoint (iter=%v, logPDF=%v)",
			data.Iter, data.Sampler.CurrentLogPDF)
	} else {
		log.Noticef("Found unfinished sampling checkpoint (iter=%v, logPDF=%v)",
			data.Iter, data.Sampler.CurrentLogPDF)
	}

	return data, nil
}

// Old returns true if the last checkpoint save was too long ago.
func (s *CheckpointIO) Old() bool {
	if time.Since(s.last).Seconds() > s.seconds {
		return true
	}
	return false
}

// SetNow sets the last checkpoint time to now.
func (s *CheckpointIO) SetNow() {
	s.last = time.Now()
}

// SaveData saves a value in the bolt database.
func SaveData(db *bolt.DB, key []byte, data []byte) error {
	if db == nil {
		return nil
	}
	err := db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(MAIN)
		if err != nil {
			return err
		}

		err = b.Put(key, data)
		return err
	})
	return err
}

// LoadData loads a value from the bolt database.
func LoadData(db *bolt.DB, key []byte) ([]byte, error) {
	var data []byte
	if db == nil {
		return nil, nil
	}
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(MAIN)
		if b == nil {
			return nil
		}

		v := b.Get(key)
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
