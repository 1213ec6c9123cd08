package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration
type Config struct {
	Level  string `json:"level" yaml:"level"`   // debug|info|warn|error
	Format string `json:"format" yaml:"format"` // json|console
}

// NewLogger creates a structured zap logger
func NewLogger(config Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapConfig := zap.NewProductionConfig()
	if config.Format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}
