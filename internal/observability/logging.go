// Package observability provides logging and run-progress reporting.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Archetypically/MWICombatSimulator-sub000/internal/config"
)

// NewLogger creates a structured logger from the given logging configuration.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
// Postcondition: Returns a configured zap.Logger or a non-nil error.
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// Simulation output goes to stdout; keep logs off it.
	zapCfg.OutputPaths = []string{"stderr"}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// ReportProgress logs the fraction returned by progress every interval until
// ctx is done. It blocks; run it in its own goroutine.
//
// Precondition: interval > 0; progress must be safe for concurrent use.
// Postcondition: Returns when ctx is done. Nothing is logged for a
// fraction that has not changed since the previous tick.
func ReportProgress(ctx context.Context, logger *zap.Logger, interval time.Duration, progress func() float64) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := -1.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p := progress()
			if p == last {
				continue
			}
			last = p
			logger.Info("simulation progress", zap.Float64("fraction", p))
		}
	}
}
