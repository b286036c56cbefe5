package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options picks the level and output format of a process logger.
type Options struct {
	Level string
	// Env "dev" or "local" writes readable console lines; anything else JSON.
	Env     string
	Service string
}

func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	cfg := zap.NewProductionConfig()
	if isLocal(opts.Env) {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if opts.Service != "" {
		log = log.With(zap.String("service", opts.Service))
	}
	return log, nil
}

func isLocal(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
