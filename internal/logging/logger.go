package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ReleaseMode selects the production JSON logger
const ReleaseMode = "release"

// New builds a structured logger. Release mode is production ready JSON,
// any other mode is a colored console logger at debug level.
func New(mode string) (*zap.Logger, error) {
	if mode == ReleaseMode {
		cfg := zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		return cfg.Build()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return cfg.Build()
}

// WithUser enriches the logger with the chat user and the operation being handled.
func WithUser(logger *zap.Logger, userID int64, operation string) *zap.Logger {
	return logger.With(zap.Int64("user_id", userID), zap.String("operation", operation))
}
