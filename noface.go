// Package noface finds faces in a photo, numbers them on a reference image,
// and blurs the ones picked by ordinal.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/menta2k/noface"
//		"github.com/menta2k/noface/pkg/rekognition"
//	)
//
//	func main() {
//		detector, err := rekognition.NewDetector(context.Background(), rekognition.DefaultConfig())
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		redactor, err := noface.New(detector)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		// Write photo-reference.jpg and photo-blurried.jpg with faces 1 and 3 blurred
//		result, err := redactor.ProcessImageFile(context.Background(), "photo.jpg", "out", "1, 3")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Printf("%d faces, blurred %v: %s\n", result.Faces, result.Selection, result.RedactedPath)
//	}
//
// The package ties together four components:
//
// 1. Processing (pkg/processing): decoding, detector payloads, and encoding
// 2. Detection (pkg/detection): the detector contract and its error taxonomy
// 3. Render (pkg/render): reference and redaction images
// 4. Selection (pkg/selection): free-text parsing of face numbers
//
// The conversational bot built on the same pieces lives in internal/session.
package noface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/menta2k/noface/internal/utils"
	"github.com/menta2k/noface/pkg/detection"
	"github.com/menta2k/noface/pkg/processing"
	"github.com/menta2k/noface/pkg/render"
	"github.com/menta2k/noface/pkg/selection"
	"github.com/menta2k/noface/pkg/types"
)

// Version of the noface library
const Version = "1.0.0"

var (
	// ErrTooManyFaces is returned when a photo reaches the face ceiling
	ErrTooManyFaces = errors.New("too many faces")

	// ErrImageTooSmall is returned for images below Config.MinImageSize
	ErrImageTooSmall = errors.New("image too small")
)

// Config holds the facade's tunables
type Config struct {
	Render       render.Options
	MaxFaces     int
	MinImageSize int
	SendSize     int
	SendQuality  int
	Quality      int
}

// DefaultConfig returns the bot's defaults
func DefaultConfig() Config {
	return Config{
		Render:       render.DefaultOptions(),
		MaxFaces:     99,
		MinImageSize: 16,
		SendSize:     1920,
		SendQuality:  90,
		Quality:      90,
	}
}

// Redactor provides a high-level interface for face redaction
type Redactor struct {
	config    Config
	processor *processing.Processor
	detector  detection.Detector
	reference *render.Reference
	redaction *render.Redaction
}

// New creates a Redactor with default configuration
func New(detector detection.Detector) (*Redactor, error) {
	return NewWithConfig(detector, DefaultConfig())
}

// NewWithConfig creates a Redactor with custom configuration
func NewWithConfig(detector detection.Detector, config Config) (*Redactor, error) {
	reference, err := render.NewReference(config.Render)
	if err != nil {
		return nil, err
	}

	return &Redactor{
		config:    config,
		processor: processing.NewProcessor(),
		detector:  detector,
		reference: reference,
		redaction: render.NewRedaction(config.Render),
	}, nil
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

// Result describes one processed file
type Result struct {
	Faces         int
	Ordinals      types.OrdinalMap
	Selection     types.Selection
	ReferencePath string
	RedactedPath  string
}

// LoadImage loads an image from a file path or http(s) URL
func (r *Redactor) LoadImage(source string) (image.Image, string, error) {
	data, err := r.processor.ReadSource(source)
	if err != nil {
		return nil, "", err
	}
	img, format, err := r.processor.Decode(data)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", source, err)
	}
	return img, format, nil
}

// SaveImage saves an image, choosing the format from the file extension
func (r *Redactor) SaveImage(img image.Image, path string) error {
	return r.processor.SaveImage(img, path, utils.GetFileExtension(path), r.config.Quality)
}

// GetImageInfo returns basic information about an image
func (r *Redactor) GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{Width: width, Height: height, Area: width * height}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ValidateImage checks if an image meets minimum requirements
func (r *Redactor) ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < r.config.MinImageSize || bounds.Dy() < r.config.MinImageSize {
		return fmt.Errorf("%w: %dx%d (minimum: %d)", ErrImageTooSmall,
			bounds.Dx(), bounds.Dy(), r.config.MinImageSize)
	}
	return nil
}

// Detect locates faces in img
func (r *Redactor) Detect(ctx context.Context, img image.Image) (types.DetectionResult, error) {
	payload, err := r.processor.PrepareForDetection(img, r.config.SendSize, r.config.SendQuality)
	if err != nil {
		return types.DetectionResult{}, detection.Unreadable(err)
	}
	return r.detector.Detect(ctx, payload)
}

// Reference draws the numbered markers for det over a copy of img
func (r *Redactor) Reference(img image.Image, det types.DetectionResult) (image.Image, types.OrdinalMap, error) {
	out, ordinals, err := r.reference.Render(img, det)
	if err != nil {
		return nil, nil, err
	}
	return out, ordinals, nil
}

// Redact blurs the faces named in text ("2", "1 and 3", "all").
// It returns render.ErrEmptySelection when text names no known face.
func (r *Redactor) Redact(img image.Image, ordinals types.OrdinalMap, text string) (image.Image, types.Selection, error) {
	sel := selection.Parse(text, ordinals)
	if sel.Empty() {
		return nil, sel, render.ErrEmptySelection
	}
	out, err := r.redaction.Render(img, ordinals, sel)
	if err != nil {
		return nil, sel, err
	}
	return out, sel, nil
}

// ProcessImageFile is a convenience function that detects faces in a file,
// writes the reference image, and writes the redacted image for selectionText
func (r *Redactor) ProcessImageFile(ctx context.Context, inputPath, outputDir, selectionText string) (Result, error) {
	img, format, err := r.LoadImage(inputPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load image: %w", err)
	}

	if err := r.ValidateImage(img); err != nil {
		return Result{}, fmt.Errorf("image validation failed: %w", err)
	}

	det, err := r.Detect(ctx, img)
	if err != nil {
		return Result{}, fmt.Errorf("face detection failed: %w", err)
	}

	result := Result{Faces: det.Count()}
	switch {
	case result.Faces == 0:
		return result, render.ErrNoFaces
	case result.Faces >= r.config.MaxFaces:
		return result, fmt.Errorf("%w: %d", ErrTooManyFaces, result.Faces)
	}

	reference, ordinals, err := r.Reference(img, det)
	if err != nil {
		return result, fmt.Errorf("failed to render reference: %w", err)
	}
	result.Ordinals = ordinals

	id := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	result.ReferencePath = filepath.Join(outputDir, render.ArtifactName(id, render.ReferenceSuffix, format))
	if err := r.processor.SaveImage(reference, result.ReferencePath, format, r.config.Quality); err != nil {
		return result, fmt.Errorf("failed to save reference: %w", err)
	}

	redacted, sel, err := r.Redact(img, ordinals, selectionText)
	result.Selection = sel
	if err != nil {
		return result, err
	}

	result.RedactedPath = filepath.Join(outputDir, render.ArtifactName(id, render.RedactionSuffix, format))
	if err := r.processor.SaveImage(redacted, result.RedactedPath, format, r.config.Quality); err != nil {
		return result, fmt.Errorf("failed to save redacted image: %w", err)
	}

	return result, nil
}
