package session

import (
	"context"
	"sync"
	"time"
)

// EventKind is the closed set of inbound chat events
type EventKind int

const (
	EventStart EventKind = iota
	EventText
	EventPhoto
	EventCancel
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventText:
		return "text"
	case EventPhoto:
		return "photo"
	case EventCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Event is one inbound message from a user. Consent replies arrive as text.
type Event struct {
	UserID int64
	Kind   EventKind
	Text   string
	Photo  []byte
}

// Transport delivers outbound messages to a user
type Transport interface {
	// SendText sends a message; choices, when present, are offered as reply buttons
	SendText(ctx context.Context, userID int64, text string, choices ...string) error
	// SendPhoto sends the image stored at path with a caption
	SendPhoto(ctx context.Context, userID int64, path, caption string) error
}

// Registry records users who gave consent
type Registry interface {
	// Register is idempotent; registering a known user is not an error
	Register(ctx context.Context, userID int64) error
}

// MemoryRegistry is an in-process Registry
type MemoryRegistry struct {
	mu    sync.Mutex
	users map[int64]time.Time
}

// NewMemoryRegistry creates an empty registry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{users: make(map[int64]time.Time)}
}

// Register implements Registry
func (r *MemoryRegistry) Register(ctx context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		r.users[userID] = time.Now()
	}
	return nil
}

// Registered reports whether the user ever gave consent
func (r *MemoryRegistry) Registered(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.users[userID]
	return ok
}

// Len returns the number of registered users
func (r *MemoryRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.users)
}
