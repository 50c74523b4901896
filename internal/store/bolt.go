package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

const boltBucket = "parameters"

// Bolt implements Store inside a single BoltDB file.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens (or creates) the BoltDB file at path.
func NewBolt(path string) (*Bolt, error) {
	if path == "" {
		return nil, errors.New("bolt path is required")
	}

	cleaned := filepath.Clean(path)
	if dir := filepath.Dir(cleaned); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := bolt.Open(cleaned, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

// GetParameter returns the value for name. Returns ErrNotFound when the key is absent.
func (b *Bolt) GetParameter(ctx context.Context, name string) (string, error) {
	var value string
	err := b.db.View(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		bucket := tx.Bucket([]byte(boltBucket))
		if bucket == nil {
			return errors.New("parameters bucket missing")
		}
		v := bucket.Get([]byte(name))
		if v == nil {
			return ErrNotFound
		}
		value = string(v)
		return nil
	})
	return value, err
}

// PutParameter overwrites the value for name.
func (b *Bolt) PutParameter(ctx context.Context, name, value string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		bucket := tx.Bucket([]byte(boltBucket))
		if bucket == nil {
			return errors.New("parameters bucket missing")
		}
		return bucket.Put([]byte(name), []byte(value))
	})
}

// Ping reports whether the database is still open.
func (b *Bolt) Ping(ctx context.Context) error {
	return b.db.View(func(tx *bolt.Tx) error { return nil })
}

// Close closes the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}
