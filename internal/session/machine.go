package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menta2k/noface/internal/logging"
	"github.com/menta2k/noface/internal/utils"
	"github.com/menta2k/noface/pkg/detection"
	"github.com/menta2k/noface/pkg/processing"
	"github.com/menta2k/noface/pkg/render"
	"github.com/menta2k/noface/pkg/selection"
)

// ErrInvalidState is raised when an event needs session data that is missing.
// The conversation is reset instead of failing.
var ErrInvalidState = errors.New("session is missing required data")

// DefaultMaxFaces is the face count from which a photo is rejected
const DefaultMaxFaces = 99

// Options tunes the machine's policy and file layout
type Options struct {
	// TmpFolder holds one work folder per user
	TmpFolder string
	// MaxFaces rejects photos with at least this many faces
	MaxFaces int
	// SendSize and SendQuality shape the payload sent to the detector
	SendSize    int
	SendQuality int
}

// Dependencies are the collaborators the machine drives
type Dependencies struct {
	Store     *Store
	Detector  detection.Detector
	Processor *processing.Processor
	Reference *render.Reference
	Redaction *render.Redaction
	Artifacts *render.Store
	Transport Transport
	Registry  Registry
	Logger    *zap.Logger
}

type transitionKey struct {
	state State
	kind  EventKind
}

type handlerFunc func(ctx context.Context, s *Session, ev Event) error

// Machine is the conversation state machine. Every (state, event) pair
// either has an entry in the transition table or falls back to onUnknown.
type Machine struct {
	Dependencies
	opts  Options
	newID func() string
	table map[transitionKey]handlerFunc
}

// NewMachine wires a machine; a nil Store, Registry, or Logger gets a default
func NewMachine(deps Dependencies, opts Options) *Machine {
	if deps.Store == nil {
		deps.Store = NewStore()
	}
	if deps.Registry == nil {
		deps.Registry = NewMemoryRegistry()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.MaxFaces <= 0 {
		opts.MaxFaces = DefaultMaxFaces
	}

	m := &Machine{
		Dependencies: deps,
		opts:         opts,
		newID:        uuid.NewString,
	}

	m.table = map[transitionKey]handlerFunc{
		{StateAwaitingConsent, EventText}:    m.onConsent,
		{StateAwaitingConsent, EventPhoto}:   m.onPhotoWithoutConsent,
		{StateEnded, EventPhoto}:             m.onPhotoWithoutConsent,
		{StateAwaitingPhoto, EventPhoto}:     m.onPhoto,
		{StateAwaitingSelection, EventPhoto}: m.onPhoto,
		{StateAwaitingSelection, EventText}:  m.onSelection,
	}
	for _, state := range []State{StateEnded, StateAwaitingConsent, StateAwaitingPhoto, StateAwaitingSelection} {
		m.table[transitionKey{state, EventStart}] = m.onStart
		m.table[transitionKey{state, EventCancel}] = m.onCancel
	}
	return m
}

// Handle applies one inbound event to the user's session. Processing
// failures become replies; only transport errors and a cancelled context
// are returned.
func (m *Machine) Handle(ctx context.Context, ev Event) error {
	return m.Store.WithSession(ctx, ev.UserID, func(s *Session) error {
		logger := logging.WithUser(m.Logger, ev.UserID, "session.handle")
		from := s.State

		handler, ok := m.table[transitionKey{s.State, ev.Kind}]
		if !ok {
			handler = m.onUnknown
		}

		err := handler(ctx, s, ev)
		if errors.Is(err, ErrInvalidState) {
			logger.Warn("resetting inconsistent session", zap.Stringer("state", from), zap.Error(err))
			s.end()
			err = m.Transport.SendText(ctx, s.UserID, MsgSessionLost)
		}

		logger.Debug("transition",
			zap.Stringer("event", ev.Kind),
			zap.Stringer("from", from),
			zap.Stringer("to", s.State),
		)
		if err != nil {
			return fmt.Errorf("user %d: %w", ev.UserID, err)
		}
		return nil
	})
}

// State returns a snapshot of the user's session, if any
func (m *Machine) State(userID int64) (Snapshot, bool) {
	return m.Store.Get(userID)
}

func (m *Machine) onStart(ctx context.Context, s *Session, ev Event) error {
	s.restart()
	return m.Transport.SendText(ctx, s.UserID, MsgGreeting, ChoiceYes, ChoiceNo)
}

func (m *Machine) onCancel(ctx context.Context, s *Session, ev Event) error {
	s.end()
	return m.Transport.SendText(ctx, s.UserID, MsgGoodbye)
}

func (m *Machine) onUnknown(ctx context.Context, s *Session, ev Event) error {
	if !s.Active() {
		return m.onCancel(ctx, s, ev)
	}
	return m.Transport.SendText(ctx, s.UserID, MsgNotUnderstood)
}

func (m *Machine) onConsent(ctx context.Context, s *Session, ev Event) error {
	switch selection.ParseConsent(ev.Text) {
	case selection.ConsentYes:
		if err := m.Registry.Register(ctx, s.UserID); err != nil {
			logging.WithUser(m.Logger, s.UserID, "session.consent").Error("failed to register user", zap.Error(err))
			return m.Transport.SendText(ctx, s.UserID, MsgProcessingFailed)
		}
		s.Consent = true
		s.State = StateAwaitingPhoto
		return m.Transport.SendText(ctx, s.UserID, MsgConsentGiven)
	case selection.ConsentNo:
		return m.onCancel(ctx, s, ev)
	default:
		return m.Transport.SendText(ctx, s.UserID, MsgConsentRetry, ChoiceYes, ChoiceNo)
	}
}

func (m *Machine) onPhotoWithoutConsent(ctx context.Context, s *Session, ev Event) error {
	s.end()
	return m.Transport.SendText(ctx, s.UserID, MsgPermissionNeeded)
}

func (m *Machine) onPhoto(ctx context.Context, s *Session, ev Event) error {
	if !s.Consent {
		return m.onPhotoWithoutConsent(ctx, s, ev)
	}
	logger := logging.WithUser(m.Logger, s.UserID, "session.photo")

	if err := m.Transport.SendText(ctx, s.UserID, MsgImageReceived); err != nil {
		return err
	}

	img, ext, err := m.Processor.Decode(ev.Photo)
	if err != nil {
		return m.photoFailed(ctx, s, logger, detection.Unreadable(err))
	}

	payload, err := m.Processor.PrepareForDetection(img, m.opts.SendSize, m.opts.SendQuality)
	if err != nil {
		return m.photoFailed(ctx, s, logger, detection.Unreadable(err))
	}

	started := time.Now()
	det, err := m.Detector.Detect(ctx, payload)
	if err != nil {
		return m.photoFailed(ctx, s, logger, err)
	}
	n := det.Count()
	logger.Info("faces detected",
		zap.Int("faces", n),
		zap.Duration("duration", time.Since(started)),
		zap.String("payload", utils.FormatFileSize(int64(len(payload)))),
	)

	if err := m.Transport.SendText(ctx, s.UserID, MsgFacesDetected(n)); err != nil {
		return err
	}

	switch {
	case n == 0:
		s.discardPhoto(det)
		return m.Transport.SendText(ctx, s.UserID, MsgNoFaces)
	case n >= m.opts.MaxFaces:
		s.discardPhoto(det)
		return m.Transport.SendText(ctx, s.UserID, MsgTooManyFaces)
	}

	reference, ordinals, err := m.Reference.Render(img, det)
	if err != nil {
		return m.photoFailed(ctx, s, logger, err)
	}

	id := m.newID()
	path, err := m.Artifacts.Save(reference, utils.UserDir(m.opts.TmpFolder, s.UserID), id, render.ReferenceSuffix, ext)
	if err != nil {
		return m.photoFailed(ctx, s, logger, err)
	}

	s.commitPhoto(photo{
		image:     img,
		id:        id,
		ext:       ext,
		detection: det,
		ordinals:  ordinals,
		reference: path,
	})
	return m.Transport.SendPhoto(ctx, s.UserID, path, MsgReferenceCaption)
}

// photoFailed reports a failed submission and leaves the session untouched
func (m *Machine) photoFailed(ctx context.Context, s *Session, logger *zap.Logger, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	msg := MsgProcessingFailed
	switch {
	case errors.Is(err, detection.ErrUnreadableImage):
		msg = MsgUnreadableImage
		logger.Warn("unreadable photo", zap.Error(err))
	case errors.Is(err, detection.ErrDetectionFailure):
		msg = MsgDetectionFailed
		logger.Error("face detection failed", zap.Error(err))
	default:
		logger.Error("failed to process photo", zap.Error(err))
	}
	return m.Transport.SendText(ctx, s.UserID, msg)
}

func (m *Machine) onSelection(ctx context.Context, s *Session, ev Event) error {
	if !s.HasPhoto() {
		return fmt.Errorf("%w: no photo in %s", ErrInvalidState, s.State)
	}

	sel := selection.Parse(ev.Text, s.Ordinals)
	if sel.Empty() {
		return m.Transport.SendText(ctx, s.UserID, MsgSelectionRetry(len(s.Ordinals)))
	}

	logger := logging.WithUser(m.Logger, s.UserID, "session.redact")

	out, err := m.Redaction.Render(s.Image, s.Ordinals, sel)
	if err != nil {
		logger.Error("failed to redact photo", zap.Error(err))
		return m.Transport.SendText(ctx, s.UserID, MsgProcessingFailed)
	}

	path, err := m.Artifacts.Save(out, utils.UserDir(m.opts.TmpFolder, s.UserID), s.PhotoID, render.RedactionSuffix, s.Ext)
	if err != nil {
		logger.Error("failed to save redacted photo", zap.Error(err))
		return m.Transport.SendText(ctx, s.UserID, MsgProcessingFailed)
	}

	s.RequestCount++
	logger.Info("photo redacted", zap.Ints("faces", sel), zap.Int("requests", s.RequestCount))
	return m.Transport.SendPhoto(ctx, s.UserID, path, MsgRedactionCaption)
}
