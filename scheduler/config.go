package scheduler

import (
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-engine/internal/driver"
	"github.com/campusplan/scheduler-engine/internal/obslog"
)

// Config carries the DE driver's tunable parameters (§6.3), unchanged in
// shape from spec.md, plus the ambient fields SPEC_FULL.md §6.3 adds: a
// required seed for reproducibility, a parallel-evaluation hint, and a
// debug flag. The logger and progress hooks are not fields here; they are
// set through the WithLogger and WithProgress options.
type Config struct {
	PopulationSize int     // default 50
	MaxGenerations int     // default 40
	MutationFactor float64 // F; reserved for API symmetry, default 0.4
	CrossoverRate  float64 // CR; default 0.9

	// Seed is the 64-bit PRNG seed every stochastic operator derives from
	// (§9 "Random-driven operators without seed discipline"). Required, not
	// optional, so runs and property tests are reproducible.
	Seed int64

	// Parallel hints that independent population members may be evaluated
	// concurrently. Reserved for a future driver change; the current driver
	// always evaluates sequentially within one generation.
	Parallel bool

	// Debug gates the driver's k0kubun/pp verbose chromosome dump.
	Debug bool
}

// DefaultConfig returns the §6.3 table's documented defaults.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 50,
		MaxGenerations: 40,
		MutationFactor: 0.4,
		CrossoverRate:  0.9,
	}
}

// Option is an engine-level functional option, following the teacher's own
// `Config func(*Scheduler)` pattern in lib.go exactly (renamed `Option`
// here since this module's `Config` name is already taken by the tunable
// parameter struct above).
type Option func(*Engine)

// WithLogger attaches a structured logger (defaults to a no-op logger, per
// §6.3, when not supplied).
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithProgress registers a per-generation progress callback, wired through
// to eaopt.GA.Callback by the driver.
func WithProgress(fn func(driver.Progress)) Option {
	return func(e *Engine) { e.progress = fn }
}

// Engine is the public scheduling engine: a thin, stateless-beyond-a-run
// wrapper (§6.4) around the builder/evaluator/repair/driver components.
type Engine struct {
	cfg      Config
	logger   *zap.Logger
	progress func(driver.Progress)
}

// New constructs an Engine from cfg plus any functional options, mirroring
// the teacher's `New(earliest, reqs, options ...Config) (*Scheduler, error)`
// shape in lib.go.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.PopulationSize == 0 && cfg.MaxGenerations == 0 {
		defaults := DefaultConfig()
		defaults.Seed, defaults.Parallel, defaults.Debug = cfg.Seed, cfg.Parallel, cfg.Debug
		cfg = defaults
	}
	params := driver.Params{
		PopulationSize: cfg.PopulationSize,
		MaxGenerations: cfg.MaxGenerations,
		MutationWeight: cfg.MutationFactor,
		CrossoverRate:  cfg.CrossoverRate,
	}
	if cfg.MutationFactor == 0 {
		params.MutationWeight = DefaultConfig().MutationFactor
	}
	if err := params.Validate(); err != nil {
		return nil, inputInvalid("config", err)
	}

	e := &Engine{cfg: cfg, logger: obslog.Noop()}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}
