package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// DefaultBucket is the bucket used when BoltOptions.Bucket is empty.
const DefaultBucket = "kisan"

// BoltOptions configures a BoltStore.
type BoltOptions struct {
	// Bucket is the name of the Bolt bucket to use.
	Bucket string
	// Timeout bounds how long Open waits for the file lock. Default 1s.
	Timeout time.Duration
}

// BoltStore is a Store backed by a single BoltDB file.
type BoltStore struct {
	db     *bolt.DB
	bucket []byte
}

// DefaultBoltPath returns ~/.local/state/kisan/kisan.db, or kisan.db in the
// working directory when the home directory is unknown.
func DefaultBoltPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "kisan.db"
	}
	return filepath.Join(home, ".local", "state", "kisan", "kisan.db")
}

// OpenBoltStore opens or creates the database at path, creating parent
// directories as needed.
func OpenBoltStore(path string, opts BoltOptions) (*BoltStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("bolt store path is required")
	}

	cleanPath := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}

	db, err := bolt.Open(cleanPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	bucket := []byte(DefaultBucket)
	if opts.Bucket != "" {
		bucket = []byte(opts.Bucket)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db, bucket: bucket}, nil
}

// Get implements Store.
func (s *BoltStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(key))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Put implements Store.
func (s *BoltStore) Put(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(key), value)
	})
}

// Delete implements Store.
func (s *BoltStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete([]byte(key))
	})
}

// Keys returns every key in the bucket in sorted order.
func (s *BoltStore) Keys() ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	sort.Strings(keys)
	return keys, err
}

// Path returns the database file path.
func (s *BoltStore) Path() string {
	return s.db.Path()
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*BoltStore)(nil)
