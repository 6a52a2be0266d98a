// Package thread maps transport conversation ids to remote assistant thread
// ids. The mapping is insert-only: a conversation is bound to exactly one
// thread for its lifetime.
package thread

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Store is the conversation-to-thread mapping contract. Implementations must
// be safe for concurrent use and give read-after-write visibility; writes to
// distinct keys must not block each other.
type Store interface {
	Get(ctx context.Context, conversationID string) (threadID string, ok bool, err error)
	Put(ctx context.Context, conversationID, threadID string) error
}

// MemoryStore is the default in-process Store.
type MemoryStore struct {
	mu      sync.RWMutex
	threads map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threads: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, conversationID string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	threadID, ok := s.threads[conversationID]
	return threadID, ok, nil
}

func (s *MemoryStore) Put(ctx context.Context, conversationID, threadID string) error {
	if strings.TrimSpace(conversationID) == "" {
		return fmt.Errorf("conversation id is required")
	}
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("thread id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.threads[conversationID]; ok && existing != threadID {
		return fmt.Errorf("conversation %s already mapped to %s", conversationID, existing)
	}
	s.threads[conversationID] = threadID
	return nil
}
