package store

import (
	"context"
	"encoding/json"
	"sync"
)

// MemoryStore keeps documents in process memory. Used for tests and local
// development.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string][]byte),
	}
}

func (s *MemoryStore) collection(name string) map[string][]byte {
	c, ok := s.data[name]
	if !ok {
		c = make(map[string][]byte)
		s.data[name] = c
	}
	return c
}

func (s *MemoryStore) Create(_ context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(collection)
	if _, ok := c[id]; ok {
		return conflict(collection, id)
	}
	c[id] = raw
	return nil
}

func (s *MemoryStore) Put(_ context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = raw
	return nil
}

func (s *MemoryStore) Get(_ context.Context, collection, id string, out any) error {
	s.mu.RLock()
	raw, ok := s.data[collection][id]
	s.mu.RUnlock()
	if !ok {
		return notFound(collection, id)
	}
	return json.Unmarshal(raw, out)
}

func (s *MemoryStore) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.data[collection]
	if _, ok := c[id]; !ok {
		return notFound(collection, id)
	}
	delete(c, id)
	return nil
}

func (s *MemoryStore) List(_ context.Context, collection string, fn func(id string, raw []byte) error) error {
	s.mu.RLock()
	snapshot := make(map[string][]byte, len(s.data[collection]))
	for id, raw := range s.data[collection] {
		snapshot[id] = raw
	}
	s.mu.RUnlock()

	for id, raw := range snapshot {
		if err := fn(id, raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
