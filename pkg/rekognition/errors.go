package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates the payload is outside Rekognition's accepted size range
	ErrInvalidImage = errors.New("invalid image for rekognition")
)
