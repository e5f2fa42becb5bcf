package provider

import (
	"context"
	"sync"
	"time"
)

// codeRecord is the provider-side state behind one confirmation handle.
// ExpiresAt is the logical code expiry; the backing store keeps the
// record a while longer so an expired code is distinguishable from a
// torn-down session.
type codeRecord struct {
	Phone     string    `json:"phone"`
	CodeHash  string    `json:"code_hash"`
	Attempts  int       `json:"attempts"`
	ExpiresAt time.Time `json:"expires_at"`
}

// stateStore holds challenge tokens and code records. The redis-backed
// implementation is the production one; memoryStore serves tests and
// single-process dry runs.
type stateStore interface {
	PutChallenge(ctx context.Context, token string, ttl time.Duration) error
	HasChallenge(ctx context.Context, token string) (bool, error)
	DeleteChallenge(ctx context.Context, token string) error

	PutCode(ctx context.Context, handle string, rec *codeRecord, ttl time.Duration) error
	GetCode(ctx context.Context, handle string) (*codeRecord, error)
	IncAttempts(ctx context.Context, handle string) (int, error)
	DeleteCode(ctx context.Context, handle string) error
}

type memoryEntry struct {
	rec       *codeRecord
	evictAt   time.Time
	challenge bool
}

type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	now     func() time.Time
}

// newMemoryStore returns an in-process state store.
func newMemoryStore(now func() time.Time) *memoryStore {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{entries: make(map[string]*memoryEntry), now: now}
}

func (m *memoryStore) PutChallenge(_ context.Context, token string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries["challenge:"+token] = &memoryEntry{challenge: true, evictAt: m.now().Add(ttl)}
	return nil
}

func (m *memoryStore) HasChallenge(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries["challenge:"+token]
	if !ok || m.now().After(e.evictAt) {
		return false, nil
	}
	return true, nil
}

func (m *memoryStore) DeleteChallenge(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, "challenge:"+token)
	return nil
}

func (m *memoryStore) PutCode(_ context.Context, handle string, rec *codeRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *rec
	m.entries["code:"+handle] = &memoryEntry{rec: &copied, evictAt: m.now().Add(ttl)}
	return nil
}

func (m *memoryStore) GetCode(_ context.Context, handle string) (*codeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries["code:"+handle]
	if !ok || e.rec == nil || m.now().After(e.evictAt) {
		return nil, nil
	}
	copied := *e.rec
	return &copied, nil
}

func (m *memoryStore) IncAttempts(_ context.Context, handle string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries["code:"+handle]
	if !ok || e.rec == nil {
		return 0, nil
	}
	e.rec.Attempts++
	return e.rec.Attempts, nil
}

func (m *memoryStore) DeleteCode(_ context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, "code:"+handle)
	return nil
}
