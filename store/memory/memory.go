// Package memstore is the in-process entity store used by tests and
// single-node deployments that do not need durability.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-gnap/core"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string][]byte
	order       map[string][]string
}

func New() *Store {
	return &Store{
		collections: make(map[string]map[string][]byte),
		order:       make(map[string][]string),
	}
}

func (s *Store) FindByID(_ context.Context, collection, id string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, fmt.Errorf("memstore: store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil, false, nil
	}
	data, ok := docs[id]
	if !ok {
		return nil, false, nil
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, true, nil
}

// FindSingleton returns the oldest document in the collection.
func (s *Store) FindSingleton(_ context.Context, collection string) ([]byte, bool, error) {
	if s == nil {
		return nil, false, fmt.Errorf("memstore: store is not configured")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order[collection]
	if len(ids) == 0 {
		return nil, false, nil
	}
	data, ok := s.collections[collection][ids[0]]
	if !ok {
		return nil, false, nil
	}
	copied := make([]byte, len(data))
	copy(copied, data)
	return copied, true, nil
}

func (s *Store) Insert(_ context.Context, collection, id string, data []byte) error {
	if s == nil {
		return fmt.Errorf("memstore: store is not configured")
	}
	if strings.TrimSpace(collection) == "" {
		return fmt.Errorf("memstore: collection is required")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("memstore: document id is required")
	}
	copied := make([]byte, len(data))
	copy(copied, data)

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string][]byte)
		s.collections[collection] = docs
	}
	if _, exists := docs[id]; !exists {
		s.order[collection] = append(s.order[collection], id)
	}
	docs[id] = copied
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	if s == nil {
		return fmt.Errorf("memstore: store is not configured")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		return nil
	}
	if _, exists := docs[id]; !exists {
		return nil
	}
	delete(docs, id)
	ids := s.order[collection]
	for i, existing := range ids {
		if existing == id {
			s.order[collection] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Collections lists the non-empty collection names. Test helper.
func (s *Store) Collections() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.collections))
	for name, docs := range s.collections {
		if len(docs) > 0 {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

var _ core.EntityStore = (*Store)(nil)
