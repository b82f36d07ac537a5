// Package feed supplies the risk dataset to the map engine: a websocket
// client for the live feed, a local snapshot store for warm starts, and
// the mock generator behind cmd/risk-feed. The engine itself never talks
// to the network; it only consumes datasets handed to it.
package feed

import (
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/osintfoundry/threat-map/pkg/mapengine"
)

// SnapshotStore persists the last applied risk dataset so a viewer can
// render a warm map before the feed connects.
type SnapshotStore struct {
	db *badger.DB
}

func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	opts := badger.DefaultOptions(path)
	// Decrease logging verbosity
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &SnapshotStore{db: db}, nil
}

func (s *SnapshotStore) Close() error {
	return s.db.Close()
}

// Save writes every record in one batch, keyed by country name.
func (s *SnapshotStore) Save(data mapengine.RiskDataset) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for name, rec := range data {
		val, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record for %s: %w", name, err)
		}
		if err := wb.Set([]byte(name), val); err != nil {
			return err
		}
	}
	return wb.Flush()
}

// Load reads the full persisted dataset. Records that no longer decode
// are skipped rather than failing the whole warm start.
func (s *SnapshotStore) Load() (mapengine.RiskDataset, error) {
	data := mapengine.RiskDataset{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := string(item.Key())
			err := item.Value(func(v []byte) error {
				var rec mapengine.RiskRecord
				if err := json.Unmarshal(v, &rec); err != nil {
					return nil
				}
				data[name] = rec
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
