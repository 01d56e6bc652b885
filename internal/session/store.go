package session

import (
	"context"
	"sync"
	"time"
)

// Store keeps exactly one session per user and serializes access to it.
// Different users never contend beyond the brief map lookup.
type Store struct {
	mu      sync.Mutex
	entries map[int64]*entry
	now     func() time.Time
}

type entry struct {
	lock    chan struct{}
	refs    int
	session *Session
}

// NewStore creates an empty session store
func NewStore() *Store {
	return &Store{
		entries: make(map[int64]*entry),
		now:     time.Now,
	}
}

func (s *Store) acquire(userID int64) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok {
		e = &entry{lock: make(chan struct{}, 1)}
		s.entries[userID] = e
	}
	e.refs++
	return e
}

func (s *Store) release(userID int64, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refs--
	if e.refs == 0 && e.session == nil {
		delete(s.entries, userID)
	}
}

// WithSession runs fn with exclusive access to the user's session, creating
// an ended session if none exists. A session left in StateEnded is discarded.
func (s *Store) WithSession(ctx context.Context, userID int64, fn func(*Session) error) error {
	e := s.acquire(userID)
	defer s.release(userID, e)

	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.lock }()

	sess := e.session
	if sess == nil {
		sess = newSession(userID)
	}

	err := fn(sess)

	sess.UpdatedAt = s.now()
	s.mu.Lock()
	if sess.Active() {
		e.session = sess
	} else {
		e.session = nil
	}
	s.mu.Unlock()

	return err
}

// Get returns a copy of the user's session if one is active.
// It waits for any in-flight event of that user to finish.
func (s *Store) Get(userID int64) (Snapshot, bool) {
	e := s.acquire(userID)
	defer s.release(userID, e)

	e.lock <- struct{}{}
	defer func() { <-e.lock }()

	if e.session == nil {
		return Snapshot{}, false
	}
	return e.session.snapshot(), true
}

// Len returns the number of active sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, e := range s.entries {
		if e.session != nil {
			n++
		}
	}
	return n
}

// Sweep discards sessions untouched since cutoff that nobody is using.
// It returns the evicted user ids.
func (s *Store) Sweep(cutoff time.Time) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var evicted []int64
	for userID, e := range s.entries {
		if e.refs > 0 || e.session == nil {
			continue
		}
		if e.session.UpdatedAt.Before(cutoff) {
			delete(s.entries, userID)
			evicted = append(evicted, userID)
		}
	}
	return evicted
}
