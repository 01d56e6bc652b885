package detection

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/menta2k/noface/pkg/client"
	"github.com/menta2k/noface/pkg/types"
)

// FacePrompt asks a vision model for every face box in the image
const FacePrompt = `You are a face locator.

Return JSON only:
{
  "faces": [
    {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
  ]
}

HARD RULES
- One entry per visible human face, ordered left to right, then top to bottom.
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner.
- Each box should tightly include the face from forehead to chin.
- If there are no faces, return {"faces": []}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)^\s*//.*$`)
	reTrailing     = regexp.MustCompile(`,(\s*[}\]])`)
)

var errNoJSON = errors.New("no JSON object in model response")

// VisionDetector locates faces by prompting a vision language model
type VisionDetector struct {
	client client.VisionClient
	model  string
}

// NewVisionDetector creates a detector backed by a vision client
func NewVisionDetector(c client.VisionClient, model string) *VisionDetector {
	return &VisionDetector{client: c, model: model}
}

type faceJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type facesJSON struct {
	Faces []faceJSON `json:"faces"`
}

// Detect implements Detector
func (d *VisionDetector) Detect(ctx context.Context, image []byte) (types.DetectionResult, error) {
	if len(image) == 0 {
		return types.DetectionResult{}, Unreadable(errors.New("empty image"))
	}

	raw, err := d.client.Query(ctx, d.model, FacePrompt, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return types.DetectionResult{}, Transient(err)
	}

	faces, err := parseFaces(raw)
	if err != nil {
		// a malformed answer is a model hiccup, not a property of the image
		return types.DetectionResult{}, Transient(err)
	}
	return types.DetectionResult{Faces: faces}, nil
}

// parseFaces parses the model response into normalized boxes, dropping empty ones
func parseFaces(raw string) ([]types.FaceBox, error) {
	raw = sanitizeModelJSON(raw)
	if !strings.HasPrefix(raw, "{") {
		return nil, errNoJSON
	}

	var parsed facesJSON
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	faces := make([]types.FaceBox, 0, len(parsed.Faces))
	for _, f := range parsed.Faces {
		box := normalizeBox(f)
		if box.Width <= 0 || box.Height <= 0 {
			continue
		}
		faces = append(faces, box)
	}
	return faces, nil
}

// normalizeBox clamps a model box into the unit square
func normalizeBox(f faceJSON) types.FaceBox {
	x := clamp(f.X, 0, 1)
	y := clamp(f.Y, 0, 1)
	return types.FaceBox{
		Left:   x,
		Top:    y,
		Width:  clamp(f.W, 0, 1-x),
		Height: clamp(f.H, 0, 1-y),
	}
}

// sanitizeModelJSON removes code fences, comments, and trailing commas from a JSON response
func sanitizeModelJSON(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		}
		if j := strings.LastIndex(raw, "```"); j >= 0 {
			raw = raw[:j]
		}
	}
	raw = strings.Trim(strings.TrimSpace(raw), "`")

	raw = reBlockComment.ReplaceAllString(raw, "")
	raw = reLineComment.ReplaceAllString(raw, "")
	raw = reTrailing.ReplaceAllString(raw, "$1")

	// Keep only the outermost {...}
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
