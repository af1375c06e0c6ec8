// ABOUTME: Per-identity conversation context for one bot endpoint
// ABOUTME: Keyed map with per-key locks; Get/Set/Clear are the only mutation surface

package session

import (
	"sync"
	"time"
)

// State of a conversation context.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	if s == Active {
		return "active"
	}
	return "idle"
}

// Context binds a relaying identity to its counterpart for one conversation.
type Context struct {
	Counterpart  int64 // chat id on the other endpoint
	AnchorItemID int64
	AnchorTitle  string // item name at entry, used in relayed captions
	State        State
	EnteredAt    time.Time
}

// Store holds at most one Context per identity. The zero value is not
// usable; call NewStore.
type Store struct {
	mu       sync.Mutex
	contexts map[int64]Context
	locks    map[int64]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		contexts: make(map[int64]Context),
		locks:    make(map[int64]*keyLock),
	}
}

// Get returns the context for identity; an unknown identity is Idle.
func (s *Store) Get(identity int64) Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contexts[identity]
	if !ok {
		return Context{State: Idle}
	}
	return c
}

// Set replaces the context for identity. A new conversation overwrites
// the previous one; contexts never stack.
func (s *Store) Set(identity int64, c Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.State == Idle {
		delete(s.contexts, identity)
		return
	}
	s.contexts[identity] = c
}

// Clear resets identity to Idle and reports whether it was Active.
func (s *Store) Clear(identity int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contexts[identity]
	delete(s.contexts, identity)
	return ok && c.State == Active
}

// Len is the number of Active contexts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contexts)
}

// Lock acquires the mutex for identity and returns its release function.
// Different identities never contend with each other. Lock entries are
// dropped once no goroutine holds or waits on them.
func (s *Store) Lock(identity int64) (unlock func()) {
	s.mu.Lock()
	kl, ok := s.locks[identity]
	if !ok {
		kl = &keyLock{}
		s.locks[identity] = kl
	}
	kl.refs++
	s.mu.Unlock()

	kl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			kl.mu.Unlock()
			s.mu.Lock()
			kl.refs--
			if kl.refs == 0 {
				delete(s.locks, identity)
			}
			s.mu.Unlock()
		})
	}
}

// lockCount is the number of live lock entries; used by tests.
func (s *Store) lockCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
