package dirwalk

import (
	"bytes"
	"sync"

	"github.com/google/btree"
)

type memEntry struct {
	key, value []byte
}

func memEntryLess(a, b memEntry) bool {
	return bytes.Compare(a.key, b.key) < 0
}

// MemStore is an ordered in-memory Store. It is safe for concurrent use.
type MemStore struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[memEntry]
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{tree: btree.NewG(32, memEntryLess)}
}

// Get implements Store.
func (s *MemStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	ent, ok := s.tree.Get(memEntry{key: key})
	s.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return ent.value, nil
}

// Put implements Store.
func (s *MemStore) Put(key, value []byte) error {
	s.mu.Lock()
	s.put(key, value)
	s.mu.Unlock()
	return nil
}

// Write implements Store.
func (s *MemStore) Write(b *Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return b.Replay(func(key, value []byte) error {
		s.put(key, value)
		return nil
	})
}

func (s *MemStore) put(key, value []byte) {
	s.tree.ReplaceOrInsert(memEntry{
		key:   append([]byte(nil), key...),
		value: append([]byte(nil), value...),
	})
}

// Scan visits all entries in key order.
func (s *MemStore) Scan(fn func(key, value []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var err error
	s.tree.Ascend(func(ent memEntry) bool {
		err = fn(ent.key, ent.value)
		return err == nil
	})
	return err
}

// Len returns the number of stored entries.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.Len()
}

// Close implements Store.
func (s *MemStore) Close() error { return nil }
