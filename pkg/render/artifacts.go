package render

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/menta2k/noface/pkg/processing"
)

// Artifact suffixes appended to the photo identifier
const (
	ReferenceSuffix = "reference"
	RedactionSuffix = "blurried"
)

// ArtifactName returns the deterministic file name for a derived image
func ArtifactName(id, suffix, ext string) string {
	return fmt.Sprintf("%s-%s.%s", id, suffix, processing.NormalizeFormat(ext))
}

// Store persists rendered images, framing them first
type Store struct {
	processor *processing.Processor
	framer    *Framer
	quality   int
}

// NewStore creates an artifact store
func NewStore(processor *processing.Processor, framer *Framer, quality int) *Store {
	return &Store{processor: processor, framer: framer, quality: quality}
}

// Save frames img and writes it to dir/<id>-<suffix>.<ext>, returning the path
func (s *Store) Save(img image.Image, dir, id, suffix, ext string) (string, error) {
	framed := img
	if s.framer != nil {
		var err error
		if framed, err = s.framer.Frame(img); err != nil {
			return "", fmt.Errorf("frame %s: %w", suffix, err)
		}
	}

	path := filepath.Join(dir, ArtifactName(id, suffix, ext))
	if err := s.processor.SaveImage(framed, path, ext, s.quality); err != nil {
		return "", fmt.Errorf("save %s: %w", suffix, err)
	}
	return path, nil
}
