package rekognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	awstypes "github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"

	"github.com/menta2k/noface/pkg/detection"
	"github.com/menta2k/noface/pkg/types"
)

const (
	// maxImageSize is the maximum inline image size accepted by Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024

	errCodeAccessDenied       = "AccessDeniedException"
	errCodeInvalidParameter   = "InvalidParameterException"
	errCodeInvalidImageFormat = "InvalidImageFormatException"
	errCodeImageTooLarge      = "ImageTooLargeException"
)

var _ detection.Detector = (*Detector)(nil)

// Detector implements detection.Detector using the Rekognition DetectFaces API
type Detector struct {
	api    API
	config Config
}

// NewDetector creates a detector backed by a live Rekognition client
func NewDetector(ctx context.Context, cfg Config) (*Detector, error) {
	api, err := NewAPI(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}
	return NewDetectorWithAPI(api, cfg), nil
}

// NewDetectorWithAPI creates a detector over an existing API implementation
func NewDetectorWithAPI(api API, cfg Config) *Detector {
	return &Detector{api: api, config: cfg}
}

// validateImage checks if image data is valid for Rekognition processing
func validateImage(image []byte) error {
	if len(image) == 0 {
		return fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// Detect returns the bounding boxes of all faces, in Rekognition's order.
// Zero faces is a valid result, not an error.
func (d *Detector) Detect(ctx context.Context, image []byte) (types.DetectionResult, error) {
	if err := validateImage(image); err != nil {
		return types.DetectionResult{}, detection.Unreadable(err)
	}

	input := &rekognition.DetectFacesInput{
		Image: &awstypes.Image{
			Bytes: image,
		},
		Attributes: []awstypes.Attribute{awstypes.AttributeDefault},
	}

	output, err := d.api.DetectFaces(ctx, input)
	if err != nil {
		return types.DetectionResult{}, classifyError(err)
	}

	faces := make([]types.FaceBox, 0, len(output.FaceDetails))
	for _, detail := range output.FaceDetails {
		if detail.BoundingBox == nil {
			continue
		}
		if detail.Confidence != nil && float64(*detail.Confidence) < d.config.MinConfidence {
			continue
		}
		faces = append(faces, toFaceBox(detail.BoundingBox))
	}

	return types.DetectionResult{Faces: faces}, nil
}

func toFaceBox(b *awstypes.BoundingBox) types.FaceBox {
	return types.FaceBox{
		Left:   deref(b.Left),
		Top:    deref(b.Top),
		Width:  deref(b.Width),
		Height: deref(b.Height),
	}
}

func deref(v *float32) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}

// classifyError maps AWS errors onto the detection error taxonomy
func classifyError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case errCodeInvalidImageFormat, errCodeImageTooLarge, errCodeInvalidParameter:
			return detection.Unreadable(fmt.Errorf("detect faces: %w", err))
		case errCodeAccessDenied:
			return detection.Transient(fmt.Errorf("detect faces: %w", ErrInvalidCredentials))
		}
	}
	return detection.Transient(fmt.Errorf("detect faces: %w", err))
}
