package session

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/menta2k/noface/pkg/detection"
	"github.com/menta2k/noface/pkg/processing"
	"github.com/menta2k/noface/pkg/render"
	"github.com/menta2k/noface/pkg/types"
)

const testUser int64 = 1001

var threeFaces = types.DetectionResult{Faces: []types.FaceBox{
	{Left: 0.05, Top: 0.2, Width: 0.2, Height: 0.4},
	{Left: 0.4, Top: 0.2, Width: 0.2, Height: 0.4},
	{Left: 0.75, Top: 0.2, Width: 0.2, Height: 0.4},
}}

// face centers of threeFaces on a 200x150 image
var threeCenters = []image.Point{{30, 60}, {100, 60}, {170, 60}}

// createTestImage creates a 1px checkerboard; any blur changes every pixel of it
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8(0)
			if (x+y)%2 == 0 {
				v = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{v, v, v, 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type sentMessage struct {
	text    string
	path    string
	photo   bool
	choices []string
}

type fakeTransport struct {
	mu   sync.Mutex
	sent map[int64][]sentMessage
	err  error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{sent: make(map[int64][]sentMessage)}
}

func (f *fakeTransport) SendText(ctx context.Context, userID int64, text string, choices ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[userID] = append(f.sent[userID], sentMessage{text: text, choices: choices})
	return f.err
}

func (f *fakeTransport) SendPhoto(ctx context.Context, userID int64, path, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[userID] = append(f.sent[userID], sentMessage{text: caption, path: path, photo: true})
	return f.err
}

func (f *fakeTransport) messages(userID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent[userID]...)
}

func (f *fakeTransport) texts(userID int64) []string {
	var out []string
	for _, m := range f.messages(userID) {
		out = append(out, m.text)
	}
	return out
}

func (f *fakeTransport) photos(userID int64) []sentMessage {
	var out []sentMessage
	for _, m := range f.messages(userID) {
		if m.photo {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) last(userID int64) sentMessage {
	msgs := f.messages(userID)
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = make(map[int64][]sentMessage)
}

type fakeDetector struct {
	mu     sync.Mutex
	result types.DetectionResult
	err    error
	calls  int
}

func (f *fakeDetector) Detect(ctx context.Context, image []byte) (types.DetectionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(image) == 0 {
		return types.DetectionResult{}, detection.Unreadable(nil)
	}
	return f.result, f.err
}

func (f *fakeDetector) set(result types.DetectionResult, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result, f.err = result, err
}

func (f *fakeDetector) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	machine   *Machine
	transport *fakeTransport
	detector  *fakeDetector
	registry  *MemoryRegistry
	processor *processing.Processor
	tmp       string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reference, err := render.NewReference(render.DefaultOptions())
	require.NoError(t, err)

	f := &fixture{
		transport: newFakeTransport(),
		detector:  &fakeDetector{result: threeFaces},
		registry:  NewMemoryRegistry(),
		processor: processing.NewProcessor(),
		tmp:       t.TempDir(),
	}
	f.machine = NewMachine(Dependencies{
		Detector:  f.detector,
		Processor: f.processor,
		Reference: reference,
		Redaction: render.NewRedaction(render.DefaultOptions()),
		Artifacts: render.NewStore(f.processor, nil, 90),
		Transport: f.transport,
		Registry:  f.registry,
	}, Options{
		TmpFolder:   f.tmp,
		SendSize:    1920,
		SendQuality: 90,
	})
	return f
}

func (f *fixture) handle(t *testing.T, ev Event) {
	t.Helper()
	if ev.UserID == 0 {
		ev.UserID = testUser
	}
	require.NoError(t, f.machine.Handle(context.Background(), ev))
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	f.handle(t, Event{Kind: EventStart})
	f.handle(t, Event{Kind: EventText, Text: "Yes"})
}

func (f *fixture) state(t *testing.T) State {
	t.Helper()
	snap, ok := f.machine.State(testUser)
	if !ok {
		return StateEnded
	}
	return snap.State
}
