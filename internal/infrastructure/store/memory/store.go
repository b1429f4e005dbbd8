package memory

import (
	"context"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"

	"github.com/trainwr/fantasy-cricket/internal/domain/realm"
)

// Store keeps realm documents in process memory. It backs tests and dev
// runs, and doubles as a cheap mirror target.
type Store struct {
	mu   sync.RWMutex
	docs map[string]realm.Document
}

func NewStore() *Store {
	return &Store{docs: make(map[string]realm.Document)}
}

func (s *Store) Load(_ context.Context, name string) (realm.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[name]
	if !ok {
		return realm.Document{}, false, nil
	}
	return doc.Clone(), true, nil
}

func (s *Store) Save(_ context.Context, name string, doc realm.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[name] = doc.Clone()
	return nil
}

func (s *Store) Stats(_ context.Context, name string) (realm.StorageStats, error) {
	s.mu.RLock()
	doc, ok := s.docs[name]
	s.mu.RUnlock()
	if !ok {
		return realm.StorageStats{}, nil
	}

	payload, err := sonic.Marshal(doc)
	if err != nil {
		return realm.StorageStats{}, errors.Wrap(err, "measure realm document")
	}
	return realm.StorageStats{UsedBytes: int64(len(payload))}, nil
}
