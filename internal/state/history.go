package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/PentesterFlow/apihunter/internal/endpoint"
)

var bucketScans = []byte("scans")

// ScanRecord is one persisted scan result.
type ScanRecord struct {
	Target    string              `json:"target"`
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration"`
	Endpoints []endpoint.Endpoint `json:"endpoints"`
}

// History is a BoltDB-backed store of past scans, keyed by target and
// start time.
type History struct {
	db   *bolt.DB
	path string
}

// OpenHistory opens (or creates) the history database.
func OpenHistory(path string) (*History, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketScans)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &History{db: db, path: path}, nil
}

// recordKey orders records chronologically per target.
func recordKey(rec *ScanRecord) []byte {
	return []byte(rec.Target + "|" + rec.StartedAt.UTC().Format(time.RFC3339))
}

// Save persists a scan record.
func (h *History) Save(rec *ScanRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal scan record: %w", err)
	}

	return h.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketScans)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.Put(recordKey(rec), data)
	})
}

// List returns all records, optionally filtered by target.
func (h *History) List(target string) ([]*ScanRecord, error) {
	records := make([]*ScanRecord, 0)

	err := h.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketScans)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		return b.ForEach(func(k, v []byte) error {
			var rec ScanRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal scan record: %w", err)
			}
			if target == "" || rec.Target == target {
				records = append(records, &rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return records, nil
}

// Latest returns the most recent record for a target, or nil.
func (h *History) Latest(target string) (*ScanRecord, error) {
	records, err := h.List(target)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	latest := records[0]
	for _, rec := range records[1:] {
		if rec.StartedAt.After(latest.StartedAt) {
			latest = rec
		}
	}
	return latest, nil
}

// Close closes the database.
func (h *History) Close() error {
	return h.db.Close()
}
