package store

import (
	"context"
	"sync"

	"homeheroes/internal/models"
)

// MemoryStore is an in-process document store with the same push semantics
// as the SQL store. It backs tests and the STORE_TYPE=memory dev mode, and
// lets a test stand in for a second console writing concurrently.
type MemoryStore struct {
	mu       sync.Mutex
	docs     map[string]models.FamilyState
	subs     map[string][]chan Snapshot
	writeErr error
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]models.FamilyState),
		subs: make(map[string][]chan Snapshot),
	}
}

// FailWrites makes subsequent writes return err; nil restores normal writes
func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeErr = err
}

// Subscribe registers a subscriber and delivers the current snapshot first
func (m *MemoryStore) Subscribe(ctx context.Context, key string) (<-chan Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	updates := make(chan Snapshot, 16)
	m.subs[key] = append(m.subs[key], updates)

	if state, ok := m.docs[key]; ok {
		updates <- Snapshot{Exists: true, State: state.Clone()}
	} else {
		updates <- Snapshot{Exists: false}
	}

	go func() {
		<-ctx.Done()
		m.unsubscribe(key, updates)
	}()

	return updates, nil
}

// Write replaces the document and notifies every subscriber
func (m *MemoryStore) Write(ctx context.Context, key string, state models.FamilyState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	if _, ok := m.docs[key]; !ok {
		return ErrNotFound
	}
	m.docs[key] = state.Clone()
	m.broadcast(key)
	return nil
}

// CreateIfAbsent stores the seed document unless one already exists
func (m *MemoryStore) CreateIfAbsent(ctx context.Context, key string, state models.FamilyState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return m.writeErr
	}
	if _, ok := m.docs[key]; ok {
		return nil
	}
	m.docs[key] = state.Clone()
	m.broadcast(key)
	return nil
}

// Current returns the stored document directly, for test assertions
func (m *MemoryStore) Current(key string) (models.FamilyState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.docs[key]
	if !ok {
		return models.FamilyState{}, false
	}
	return state.Clone(), true
}

// broadcast pushes the current document to all subscribers. Slow consumers
// have their oldest pending snapshot coalesced away rather than blocking
// other consoles' writes. Callers hold the lock.
func (m *MemoryStore) broadcast(key string) {
	state := m.docs[key]
	for _, ch := range m.subs[key] {
		snap := Snapshot{Exists: true, State: state.Clone()}
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (m *MemoryStore) unsubscribe(key string, updates chan Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	subs := m.subs[key]
	for i, ch := range subs {
		if ch == updates {
			m.subs[key] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}
