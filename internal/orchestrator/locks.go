package orchestrator

import "sync"

// conversationLocks serializes processing per conversation. The remote
// service rejects overlapping active runs on one thread, so a second event
// for the same conversation queues behind the in-flight run instead of
// launching concurrently.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for conversationID, creating it on first use, and
// returns the release function. Lock entries are never evicted; one mutex
// per seen conversation is small and keeps the serialization total.
func (l *conversationLocks) lock(conversationID string) func() {
	l.mu.Lock()
	m, ok := l.locks[conversationID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[conversationID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
