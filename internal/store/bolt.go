package store

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"matter-go-light/internal/attr"
	"matter-go-light/internal/zcl"
)

var bucketAttributes = []byte("attributes")

// BoltStore implements Store using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens or creates a BoltDB database.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAttributes)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) SaveAttribute(p attr.Path, v zcl.Value) error {
	rec, err := encodeRecord(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", p, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketAttributes)
		}
		return b.Put(attrKey(p), rec)
	})
}

func (s *BoltStore) GetAttribute(p attr.Path) (zcl.Value, error) {
	var v zcl.Value
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketAttributes)
		}
		rec := b.Get(attrKey(p))
		if rec == nil {
			return fmt.Errorf("attribute %s: %w", p, ErrNotFound)
		}
		var err error
		v, err = decodeRecord(rec)
		if err != nil {
			return fmt.Errorf("decode %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *BoltStore) DeleteAttribute(p attr.Path) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return fmt.Errorf("bucket %q not found", bucketAttributes)
		}
		return b.Delete(attrKey(p))
	})
}

// LoadAttributes returns every stored value. Records that fail to decode
// abort the load.
func (s *BoltStore) LoadAttributes() (map[attr.Path]zcl.Value, error) {
	values := make(map[attr.Path]zcl.Value)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAttributes)
		if b == nil {
			return nil // no bucket = no values
		}
		return b.ForEach(func(k, rec []byte) error {
			p, err := parseAttrKey(k)
			if err != nil {
				return err
			}
			v, err := decodeRecord(rec)
			if err != nil {
				return fmt.Errorf("decode %s: %w", p, err)
			}
			values[p] = v
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
