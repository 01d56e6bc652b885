package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/menta2k/noface/internal/logging"
)

// ErrDispatcherClosed is returned by Submit after Close
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Handler consumes one inbound event
type Handler interface {
	Handle(ctx context.Context, ev Event) error
}

// Dispatcher runs events in arrival order per user and in parallel across users.
// Each user with pending events has one worker goroutine that drains their queue.
type Dispatcher struct {
	ctx     context.Context
	handler Handler
	logger  *zap.Logger

	mu     sync.Mutex
	queues map[int64][]Event
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher whose handlers run under ctx
func NewDispatcher(ctx context.Context, handler Handler, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		ctx:     ctx,
		handler: handler,
		logger:  logger,
		queues:  make(map[int64][]Event),
	}
}

// Submit enqueues an event without waiting for it to be handled
func (d *Dispatcher) Submit(ev Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	pending, running := d.queues[ev.UserID]
	d.queues[ev.UserID] = append(pending, ev)
	if !running {
		d.wg.Add(1)
		go d.drain(ev.UserID)
	}
	return nil
}

func (d *Dispatcher) drain(userID int64) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		pending := d.queues[userID]
		if len(pending) == 0 {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		ev := pending[0]
		d.queues[userID] = pending[1:]
		d.mu.Unlock()

		if err := d.handler.Handle(d.ctx, ev); err != nil {
			logging.WithUser(d.logger, userID, "dispatch").Error("failed to handle event",
				zap.Stringer("event", ev.Kind),
				zap.Error(err),
			)
		}
	}
}

// Pending returns the number of queued events not yet picked up
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, q := range d.queues {
		n += len(q)
	}
	return n
}

// Close stops accepting events and waits for queued ones to finish
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
}
