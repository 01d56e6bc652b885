// Package detection defines the face detector contract consumed by the bot
// and the error taxonomy detector backends report through.
package detection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/menta2k/noface/pkg/types"
)

var (
	// ErrDetectionFailure marks transient network or service failures; callers may retry
	ErrDetectionFailure = errors.New("face detection unavailable")

	// ErrUnreadableImage marks images the detector cannot process; retrying is pointless
	ErrUnreadableImage = errors.New("image cannot be processed")
)

// Detector locates faces in encoded image bytes.
// Boxes are normalized to the submitted image.
type Detector interface {
	Detect(ctx context.Context, image []byte) (types.DetectionResult, error)
}

// DetectorFunc adapts a function to the Detector interface
type DetectorFunc func(ctx context.Context, image []byte) (types.DetectionResult, error)

// Detect calls f
func (f DetectorFunc) Detect(ctx context.Context, image []byte) (types.DetectionResult, error) {
	return f(ctx, image)
}

// IsRetryable reports whether err is a transient detection failure
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDetectionFailure)
}

// Transient wraps err as a retryable detection failure
func Transient(err error) error {
	return fmt.Errorf("%w: %v", ErrDetectionFailure, err)
}

// Unreadable wraps err as a fatal image error
func Unreadable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnreadableImage, err)
}

// Retrying wraps a detector, retrying transient failures with linear backoff
type Retrying struct {
	next     Detector
	attempts int
	delay    time.Duration
}

// NewRetrying returns a detector that makes up to retries extra attempts
func NewRetrying(next Detector, retries int, delay time.Duration) *Retrying {
	if retries < 0 {
		retries = 0
	}
	return &Retrying{next: next, attempts: retries + 1, delay: delay}
}

// Detect implements Detector
func (r *Retrying) Detect(ctx context.Context, image []byte) (types.DetectionResult, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		res, err := r.next.Detect(ctx, image)
		if err == nil {
			return res, nil
		}
		if !IsRetryable(err) {
			return types.DetectionResult{}, err
		}
		lastErr = err

		if attempt == r.attempts {
			break
		}
		select {
		case <-ctx.Done():
			return types.DetectionResult{}, Transient(ctx.Err())
		case <-time.After(time.Duration(attempt) * r.delay):
		}
	}
	return types.DetectionResult{}, lastErr
}
