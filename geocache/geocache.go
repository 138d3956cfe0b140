// Package geocache is the time-boxed store for range-table rows fetched
// from the external geo-location dataset. The predicate core never touches
// cache state; it only ever receives tables that this package has already
// revalidated on the way out, so an expired or corrupted cache entry can
// never reach an evaluation.
package geocache

import (
	"time"

	"github.com/go-errors/errors"
	"github.com/sirupsen/logrus"
	"github.com/timshannon/bolthold"
	bolt "go.etcd.io/bbolt"

	"github.com/privacyproofs/zkip/internal/cborenc"
	"github.com/privacyproofs/zkip/rangetable"
)

var Logger *logrus.Logger

// record is the stored form of one dataset snapshot. Rows are kept raw and
// revalidated on every read.
type record struct {
	Rows      []rangetable.Row
	ExpiresAt int64 // unix seconds
}

// Store is a bolthold database of dataset snapshots keyed by dataset name.
type Store struct {
	bolt *bolthold.Store
}

// Open opens (or creates) the cache database at path.
func Open(path string) (*Store, error) {
	b, err := bolthold.Open(path, 0600, &bolthold.Options{
		Encoder: cborenc.Marshal,
		Decoder: cborenc.Unmarshal,
		Options: &bolt.Options{Timeout: 1 * time.Second},
	})
	if err != nil {
		return nil, errors.WrapPrefix(err, "opening geocache", 0)
	}
	return &Store{bolt: b}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.bolt.Close()
}

// Put stores a dataset snapshot under key with the given time to live.
func (s *Store) Put(key string, rows []rangetable.Row, ttl time.Duration) error {
	rec := &record{
		Rows:      rows,
		ExpiresAt: time.Now().Add(ttl).Unix(),
	}
	if err := s.bolt.Upsert(key, rec); err != nil {
		return errors.WrapPrefix(err, "storing dataset "+key, 0)
	}
	return nil
}

// Get returns the validated table for key, or ok=false if the key is absent
// or its snapshot has expired. Expired entries are deleted lazily. Rows
// that no longer form a valid table surface the build error; no partial
// table is returned.
func (s *Store) Get(key string) (rangetable.RangeTable, bool, error) {
	var rec record
	err := s.bolt.Get(key, &rec)
	if err == bolthold.ErrNotFound {
		return rangetable.RangeTable{}, false, nil
	}
	if err != nil {
		return rangetable.RangeTable{}, false, errors.WrapPrefix(err, "reading dataset "+key, 0)
	}

	if time.Now().Unix() >= rec.ExpiresAt {
		if err := s.bolt.Delete(key, &record{}); err != nil && Logger != nil {
			Logger.WithError(err).Warn("geocache: failed to evict expired dataset")
		}
		return rangetable.RangeTable{}, false, nil
	}

	table, err := rangetable.New(rec.Rows)
	if err != nil {
		return rangetable.RangeTable{}, false, err
	}
	return table, true, nil
}
