package session

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/AdonayRH/wahisper-sub000/core"
)

const shardCount = 16

// entry pairs the live context with the per-session event lock. The event
// lock is separate from the context's internal mutex: the context mutex
// protects individual field accesses, the event lock serializes whole
// read-modify-write sequences for one user.
type entry struct {
	mu  sync.Mutex
	ctx *core.SessionContext
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*entry
}

// InMemoryStore is a volatile core.SessionStore keeping contexts in
// sharded process-local maps. It is safe for concurrent access; sessions
// for different users never serialize on a common lock.
type InMemoryStore struct {
	shards [shardCount]*shard
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*entry)}
	}
	return s
}

func (s *InMemoryStore) shardFor(userID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return s.shards[h.Sum32()%shardCount]
}

// getOrCreate returns the entry for userID, creating it idempotently
// (first touch wins).
func (s *InMemoryStore) getOrCreate(userID string) *entry {
	sh := s.shardFor(userID)
	sh.mu.RLock()
	e, ok := sh.sessions[userID]
	sh.mu.RUnlock()
	if ok {
		return e
	}
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if e, ok = sh.sessions[userID]; ok {
		return e
	}
	e = &entry{ctx: core.NewSessionContext(userID)}
	sh.sessions[userID] = e
	return e
}

// Init creates a context in StateInitial if absent; no-op otherwise.
func (s *InMemoryStore) Init(userID string) { s.getOrCreate(userID) }

// Get returns the live context, creating a default one if absent.
func (s *InMemoryStore) Get(userID string) *core.SessionContext {
	return s.getOrCreate(userID).ctx
}

// SetState overwrites the state unconditionally.
func (s *InMemoryStore) SetState(userID string, st core.State) {
	s.getOrCreate(userID).ctx.SetState(st)
}

// SetValue writes an extension slot value unconditionally.
func (s *InMemoryStore) SetValue(userID, key string, v any) {
	s.getOrCreate(userID).ctx.SetValue(key, v)
}

// Touch refreshes the activity timestamp.
func (s *InMemoryStore) Touch(userID string) { s.getOrCreate(userID).ctx.Touch() }

// Acquire blocks until the per-session lock for userID is held and returns
// the release function. Event processing for one user is serialized
// through this lock; eviction takes the same lock before deleting.
func (s *InMemoryStore) Acquire(userID string) func() {
	e := s.getOrCreate(userID)
	e.mu.Lock()
	return e.mu.Unlock
}

// EvictInactive deletes every context idle longer than maxIdle and returns
// the number removed. Each candidate's per-session lock is taken before
// deletion so an in-flight event is never torn; idleness is re-checked
// under the lock because the session may have woken up while we waited.
func (s *InMemoryStore) EvictInactive(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	evicted := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		candidates := make(map[string]*entry)
		for id, e := range sh.sessions {
			if e.ctx.IdleSince().Before(cutoff) {
				candidates[id] = e
			}
		}
		sh.mu.RUnlock()

		for id, e := range candidates {
			e.mu.Lock()
			if e.ctx.IdleSince().Before(cutoff) {
				sh.mu.Lock()
				// Only delete if the map still holds this exact entry; a
				// concurrent evict+recreate would otherwise drop a fresh session.
				if cur, ok := sh.sessions[id]; ok && cur == e {
					delete(sh.sessions, id)
					evicted++
				}
				sh.mu.Unlock()
			}
			e.mu.Unlock()
		}
	}
	return evicted
}

// Len returns the number of stored sessions. Intended for tests and stats.
func (s *InMemoryStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}
