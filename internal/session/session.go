// Package session implements the per-user conversation that takes a photo
// from consent through face detection to redacted output.
package session

import (
	"image"
	"time"

	"github.com/menta2k/noface/pkg/types"
)

// State is a node of the conversation
type State int

const (
	// StateEnded means no active conversation; the session is discarded
	StateEnded State = iota
	StateAwaitingConsent
	StateAwaitingPhoto
	StateAwaitingSelection
)

func (s State) String() string {
	switch s {
	case StateEnded:
		return "ended"
	case StateAwaitingConsent:
		return "awaiting_consent"
	case StateAwaitingPhoto:
		return "awaiting_photo"
	case StateAwaitingSelection:
		return "awaiting_selection"
	default:
		return "unknown"
	}
}

// Session is the mutable state of one user's conversation.
// It is only touched while the Store holds the user's lock.
type Session struct {
	UserID  int64
	State   State
	Consent bool

	// Current photo, replaced wholesale on every accepted submission
	Image         image.Image
	PhotoID       string
	Ext           string
	Detection     types.DetectionResult
	Ordinals      types.OrdinalMap
	FaceCount     int
	ReferencePath string

	RequestCount int
	UpdatedAt    time.Time
}

func newSession(userID int64) *Session {
	return &Session{UserID: userID, State: StateEnded}
}

// Active reports whether the user is inside a conversation
func (s *Session) Active() bool {
	return s.State != StateEnded
}

// HasPhoto reports whether a processed photo is ready for selection
func (s *Session) HasPhoto() bool {
	return s.Image != nil && len(s.Ordinals) > 0
}

type photo struct {
	image     image.Image
	id        string
	ext       string
	detection types.DetectionResult
	ordinals  types.OrdinalMap
	reference string
}

// commitPhoto replaces the current photo and its detection in one step
func (s *Session) commitPhoto(p photo) {
	s.Image = p.image
	s.PhotoID = p.id
	s.Ext = p.ext
	s.Detection = p.detection
	s.Ordinals = p.ordinals
	s.FaceCount = p.detection.Count()
	s.ReferencePath = p.reference
	s.State = StateAwaitingSelection
}

// discardPhoto records a detection that produced nothing selectable
func (s *Session) discardPhoto(det types.DetectionResult) {
	s.Image = nil
	s.PhotoID = ""
	s.Ext = ""
	s.Detection = det
	s.Ordinals = nil
	s.FaceCount = det.Count()
	s.ReferencePath = ""
	s.State = StateAwaitingPhoto
}

// end withdraws consent and closes the conversation
func (s *Session) end() {
	*s = Session{UserID: s.UserID, State: StateEnded, RequestCount: s.RequestCount}
}

// restart opens a fresh conversation awaiting consent
func (s *Session) restart() {
	*s = Session{UserID: s.UserID, State: StateAwaitingConsent, RequestCount: s.RequestCount}
}

// Snapshot is a read-only copy of a session for inspection
type Snapshot struct {
	UserID       int64
	State        State
	Consent      bool
	PhotoID      string
	FaceCount    int
	Ordinals     []int
	RequestCount int
	UpdatedAt    time.Time
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		UserID:       s.UserID,
		State:        s.State,
		Consent:      s.Consent,
		PhotoID:      s.PhotoID,
		FaceCount:    s.FaceCount,
		Ordinals:     s.Ordinals.Keys(),
		RequestCount: s.RequestCount,
		UpdatedAt:    s.UpdatedAt,
	}
}
