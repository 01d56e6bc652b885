package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/menta2k/noface/internal/session"
	"github.com/menta2k/noface/pkg/processing"
)

// consoleTransport prints bot replies as lines on a terminal
type consoleTransport struct {
	mu  sync.Mutex
	out io.Writer
}

func newConsoleTransport(out io.Writer) *consoleTransport {
	return &consoleTransport{out: out}
}

func (c *consoleTransport) SendText(ctx context.Context, userID int64, text string, choices ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.out, "[bot -> %d] %s\n", userID, text); err != nil {
		return err
	}
	if len(choices) > 0 {
		_, err := fmt.Fprintf(c.out, "    [%s]\n", strings.Join(choices, "] ["))
		return err
	}
	return nil
}

func (c *consoleTransport) SendPhoto(ctx context.Context, userID int64, path, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.out, "[bot -> %d] photo %s\n    %s\n", userID, path, caption)
	return err
}

// parseLine turns a console line into an inbound event.
// "photo <path|url>" uploads an image; /start and /cancel are commands.
func parseLine(processor *processing.Processor, userID int64, line string) (session.Event, error) {
	line = strings.TrimSpace(line)
	ev := session.Event{UserID: userID}

	fields := strings.Fields(line)
	switch {
	case line == "/start":
		ev.Kind = session.EventStart
	case line == "/cancel":
		ev.Kind = session.EventCancel
	case len(fields) == 2 && (fields[0] == "photo" || fields[0] == "/photo"):
		data, err := processor.ReadSource(fields[1])
		if err != nil {
			return ev, fmt.Errorf("failed to read photo: %w", err)
		}
		ev.Kind = session.EventPhoto
		ev.Photo = data
	default:
		ev.Kind = session.EventText
		ev.Text = line
	}
	return ev, nil
}
