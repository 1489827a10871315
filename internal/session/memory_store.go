package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory session store with sliding TTL expiry. Suitable
// for single-instance deployments and tests.
type MemoryStore struct {
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	mu          sync.Mutex
	sessions    map[string]*memoryEntry
	lastCleanup time.Time
}

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithClock replaces the store's clock, for tests.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) { s.now = now }
}

// NewMemoryStore creates an in-memory store. A zero ttl defaults to one hour.
func NewMemoryStore(ttl time.Duration, opts ...MemoryStoreOption) *MemoryStore {
	if ttl == 0 {
		ttl = time.Hour
	}
	s := &MemoryStore{
		ttl:             ttl,
		cleanupInterval: 5 * time.Minute,
		now:             time.Now,
		sessions:        make(map[string]*memoryEntry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create persists a new session, assigning an ID when empty.
func (s *MemoryStore) Create(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.UpdatedAt = now

	s.sessions[sess.ID] = &memoryEntry{
		session:   cloneSession(sess),
		expiresAt: now.Add(s.ttl),
	}
	s.cleanupLocked(now)
	return nil
}

// Get fetches a session and slides its expiry forward.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.sessions[id]
	if !ok || now.After(entry.expiresAt) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	entry.expiresAt = now.Add(s.ttl)
	return cloneSession(entry.session), nil
}

// Update replaces a stored session and slides its expiry forward.
func (s *MemoryStore) Update(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.sessions[sess.ID]
	if !ok || now.After(entry.expiresAt) {
		delete(s.sessions, sess.ID)
		return ErrSessionNotFound
	}

	sess.UpdatedAt = now
	entry.session = cloneSession(sess)
	entry.expiresAt = now.Add(s.ttl)
	return nil
}

// Delete removes a session.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports the number of stored sessions, expired entries included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *MemoryStore) cleanupLocked(now time.Time) {
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}
	s.lastCleanup = now
	for id, entry := range s.sessions {
		if now.After(entry.expiresAt) {
			delete(s.sessions, id)
		}
	}
}

// cloneSession copies the session envelope so callers cannot mutate stored
// state through retained pointers. Cached payloads are shared; they are
// treated as immutable once attached.
func cloneSession(sess *Session) *Session {
	out := *sess
	out.Messages = append([]ChatMessage(nil), sess.Messages...)
	return &out
}
