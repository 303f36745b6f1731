package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// CodeStore tracks authorization codes that have already been redeemed so
// a code delivered by a redirect is never exchanged twice.
//
// MarkConsumed must be atomic with respect to concurrent callers: exactly
// one caller observes already=false for a given code. Release undoes the
// marker after a failed redemption so the user can retry.
type CodeStore interface {
	// MarkConsumed records the code as consumed and reports whether it
	// had been consumed before.
	MarkConsumed(code string) (already bool, err error)

	// Release removes the consumed marker for a code.
	Release(code string) error

	// Close releases any underlying resources.
	Close() error
}

// MemoryCodeStore is an in-memory CodeStore. Markers live for the process
// lifetime only. Used when no state directory is configured, and in tests.
type MemoryCodeStore struct {
	mu    sync.Mutex
	codes map[string]struct{}
}

// NewMemoryCodeStore creates an empty in-memory code store.
func NewMemoryCodeStore() *MemoryCodeStore {
	return &MemoryCodeStore{codes: make(map[string]struct{})}
}

// MarkConsumed records the code as consumed.
func (s *MemoryCodeStore) MarkConsumed(code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[code]; ok {
		return true, nil
	}
	s.codes[code] = struct{}{}
	return false, nil
}

// Release removes the consumed marker for a code.
func (s *MemoryCodeStore) Release(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.codes, code)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryCodeStore) Close() error {
	return nil
}

const (
	// stateDirPerm is the permission mode for the state directory.
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the state database file.
	stateFilePerm = fs.FileMode(0o600)

	// stateOpenTimeout is the maximum time to wait for the bolt database lock.
	stateOpenTimeout = 5 * time.Second
)

var consumedCodesBucket = []byte("consumed_codes")

// BoltCodeStore persists consumed-code markers in a bbolt database so a
// code observed in one invocation is still recognized after a restart,
// the same way a browser session survives a page reload of the redirected
// URL.
type BoltCodeStore struct {
	db *bolt.DB
}

// codeKey returns the SHA-256 hex digest of a code. The raw code is a
// credential and is never written to disk.
func codeKey(code string) []byte {
	h := sha256.Sum256([]byte(code))
	dst := make([]byte, hex.EncodedLen(len(h)))
	hex.Encode(dst, h[:])
	return dst
}

// OpenBoltCodeStore opens (creating if needed) the consumed-code database
// at dir/codes.db.
func OpenBoltCodeStore(dir string) (*BoltCodeStore, error) {
	if err := os.MkdirAll(dir, stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "codes.db"), stateFilePerm, &bolt.Options{Timeout: stateOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening code store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(consumedCodesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing code store: %w", err)
	}

	return &BoltCodeStore{db: db}, nil
}

// MarkConsumed records the code as consumed. The check and the write
// happen in one bolt transaction, so concurrent callers serialize.
func (s *BoltCodeStore) MarkConsumed(code string) (bool, error) {
	var already bool

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(consumedCodesBucket)
		key := codeKey(code)

		if bucket.Get(key) != nil {
			already = true
			return nil
		}
		return bucket.Put(key, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
	if err != nil {
		return false, fmt.Errorf("marking code consumed: %w", err)
	}

	return already, nil
}

// Release removes the consumed marker for a code.
func (s *BoltCodeStore) Release(code string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(consumedCodesBucket).Delete(codeKey(code))
	})
	if err != nil {
		return fmt.Errorf("releasing code marker: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BoltCodeStore) Close() error {
	return s.db.Close()
}
