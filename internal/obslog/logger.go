// Package obslog builds the module's structured logger, adapted from
// noah-isme-sma-adp-api/pkg/logger.New's pattern of building a zap.Config
// from an ambient config struct and tuning its encoder/level. This module
// has no HTTP surface, so there is no request-scoped middleware here —
// callers attach scheduler-run fields (run_id, generation, fitness,
// stagnation) directly at the call site instead.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Env names a deployment environment, gating which zap base config is used.
type Env string

const (
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
)

// Options configures New. A zero-value Options builds a development logger
// at info level in console encoding.
type Options struct {
	Env    Env
	Level  string // e.g. "debug", "info", "warn"; "" defaults to info
	Format string // "console" or "json"; "" defaults to console in dev, json in prod
}

// New builds a *zap.Logger from Options, following the teacher pack's
// config-driven zapCfg.Build() shape.
func New(opts Options) (*zap.Logger, error) {
	var zapCfg zap.Config
	if opts.Env == EnvProduction {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch opts.Format {
	case "json":
		zapCfg.Encoding = "json"
	case "console":
		zapCfg.Encoding = "console"
	}

	if opts.Level != "" {
		if err := zapCfg.Level.UnmarshalText([]byte(opts.Level)); err != nil {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	} else {
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapCfg.Build()
}

// Noop returns a logger that discards everything, the Engine's default
// when no logger option is supplied (§6.3).
func Noop() *zap.Logger {
	return zap.NewNop()
}

// RunFields are the scheduler-run-scoped structured fields every driver log
// line carries, in place of the HTTP-request fields the pack's richer
// examples attach.
func RunFields(runID string, generation int, fitness float64, stagnation int) []zap.Field {
	return []zap.Field{
		zap.String("run_id", runID),
		zap.Int("generation", generation),
		zap.Float64("fitness", fitness),
		zap.Int("stagnation", stagnation),
	}
}
