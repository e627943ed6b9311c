package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const bucketName = "session"

// lockTimeout bounds how long one operation waits for another process
// holding the file.
const lockTimeout = time.Second

// BoltStore keeps the session in a bbolt file. The database is opened for
// the duration of each Save, Load or Clear and closed again, so several
// processes can share the file.
type BoltStore struct {
	path   string
	bucket []byte

	mu     sync.Mutex
	closed bool
}

// OpenBolt prepares a session store at path. The parent directory is
// created with mode 0700; the file itself (mode 0600) is created on the
// first write.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}
	return &BoltStore{path: path, bucket: []byte(bucketName)}, nil
}

// Save implements Store.
func (s *BoltStore) Save(sess Session) error {
	return s.update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		for key, value := range sess.fields() {
			if value == "" {
				err = b.Delete([]byte(key))
			} else {
				err = b.Put([]byte(key), []byte(value))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Load implements Store. A missing file is an anonymous session.
func (s *BoltStore) Load() (Session, error) {
	var sess Session
	if err := s.check(); err != nil {
		return sess, err
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return sess, nil
	}

	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: lockTimeout, ReadOnly: true})
	if err != nil {
		return sess, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer db.Close()

	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			sess.set(string(k), string(v))
			return nil
		})
	})
	return sess, err
}

// Clear implements Store.
func (s *BoltStore) Clear() error {
	return s.update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
}

// Close implements Store. Later operations fail.
func (s *BoltStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *BoltStore) check() error {
	if s == nil {
		return bolt.ErrDatabaseNotOpen
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return bolt.ErrDatabaseNotOpen
	}
	return nil
}

func (s *BoltStore) update(fn func(tx *bolt.Tx) error) error {
	if err := s.check(); err != nil {
		return err
	}
	db, err := bolt.Open(s.path, 0o600, &bolt.Options{Timeout: lockTimeout})
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	if err := db.Update(fn); err != nil {
		db.Close()
		return err
	}
	return db.Close()
}
