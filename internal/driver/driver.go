// Package driver implements the DE driver (C5): population setup,
// mutation/crossover/selection/repair composition, and the main loop's
// termination conditions of SPEC_FULL.md §4.4, built on
// github.com/MaxHalford/eaopt the same way the teacher's lib.go builds its
// meeting-scheduler genetic algorithm around that library's GA/Genome
// abstractions.
package driver

import (
	"errors"
	"math/rand"

	"github.com/MaxHalford/eaopt"

	"github.com/campusplan/scheduler-engine/internal/builder"
	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
	"github.com/campusplan/scheduler-engine/internal/repair"
)

// State names one point in the driver's state machine (§4.4 "State
// machine of the driver").
type State string

const (
	StateInitializing State = "Initializing"
	StateGenerating   State = "Generating"
	StateFinalizing   State = "Finalizing"
	StateCompleted    State = "Completed"
	StateFailed       State = "Failed"
)

// Params are the DE driver's validated entry parameters (§4.4).
type Params struct {
	PopulationSize int     // P >= 4
	MaxGenerations int     // G >= 1
	MutationWeight float64 // F in (0, 2]; design-reserved, gates nothing (§4.4 Note)
	CrossoverRate  float64 // CR in [0, 1]

	// Progress, if non-nil, is invoked once per completed generation with
	// the running best (§6.3's Config.Progress, wired to eaopt.GA.Callback
	// the same way the teacher's lib.go documents but never enables its own
	// commented-out progress callback).
	Progress func(Progress)

	// Debug enables the verbose pretty-printed chromosome dump (debug.go)
	// after the final repair pass.
	Debug bool
}

// Progress is one generation's diagnostic snapshot, handed to Params.Progress.
type Progress struct {
	Generation   int
	BestHardViol float64
	BestTotal    float64
	Stagnation   int
}

// Validate enforces the driver's entry-parameter bounds, returning a plain
// error on violation (§7: input problems never panic).
func (p Params) Validate() error {
	if p.PopulationSize < 4 {
		return errors.New("driver: population_size must be >= 4")
	}
	if p.MaxGenerations < 1 {
		return errors.New("driver: max_generations must be >= 1")
	}
	if p.MutationWeight <= 0 || p.MutationWeight > 2 {
		return errors.New("driver: mutation_weight must be in (0, 2]")
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return errors.New("driver: crossover_rate must be in [0, 1]")
	}
	return nil
}

// Result is the driver's terminal output: the best chromosome found, its
// violation breakdown, the per-generation fitness history, and the
// diagnostic trail.
type Result struct {
	Best           *domain.Chromosome
	BestHardViol   float64
	BestTotal      float64
	FitnessHistory []float64
	LastGeneration int
	State          State
	Diversity      []diversitySample
	Cancelled      bool
}

// Run executes the full DE driver: initial population construction,
// generational loop (delegated to eaopt.GA.Minimize driving
// generationModel), and the final repair sequence (§4.4 main loop).
// cancel, if non-nil, is checked once per generation; a close causes a
// best-effort Result with Cancelled set, never a panic (§7).
func Run(ctx *evaluator.Context, events []domain.Event, params Params, seed int64, cancel <-chan struct{}) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	memo := newFitnessMemo()
	model := newGenerationModel(ctx, memo, params.CrossoverRate, cancel, seed)

	cfg := eaopt.NewDefaultGAConfig()
	cfg.NPops = 1
	cfg.PopSize = uint(params.PopulationSize)
	cfg.Model = model
	cfg.RNG = rand.New(rand.NewSource(seed))

	ga, err := cfg.NewGA()
	if err != nil {
		return nil, err
	}
	ga.NGenerations = uint(params.MaxGenerations)

	if params.Progress != nil {
		ga.Callback = func(*eaopt.GA) {
			params.Progress(Progress{
				Generation:   model.gen,
				BestHardViol: model.bestHard,
				BestTotal:    model.bestTotal,
				Stagnation:   model.stagnation,
			})
		}
	}

	factory := func(rng *rand.Rand) eaopt.Genome {
		x := builder.Build(ctx, events, rng, repair.MidGeneration)
		return &chromosomeGenome{ctx: ctx, memo: memo, cr: params.CrossoverRate, x: x}
	}

	runErr := ga.Minimize(factory)

	result := &Result{
		FitnessHistory: model.history,
		LastGeneration: model.gen,
		Diversity:      model.diversity,
	}

	switch {
	case runErr == nil, errors.Is(runErr, errOptimal), errors.Is(runErr, errStagnated), errors.Is(runErr, errConverged):
		result.State = StateFinalizing
	case errors.Is(runErr, errCancelled):
		result.State = StateFinalizing
		result.Cancelled = true
	default:
		result.State = StateFailed
		return result, runErr
	}

	best := model.best
	if best == nil {
		// No generation ever ran (e.g. MaxGenerations reached immediately by
		// the underlying GA's own bookkeeping); fall back to the fittest
		// member of the initial population so Result is never empty.
		best = fallbackBest(ga, ctx, memo)
	}

	if !result.Cancelled {
		repair.Final(ctx, best, model.rng)
	}
	hard, total := evaluateBoth(ctx, memo, best)

	if params.Debug {
		dumpChromosome(ctx, best, hard, total)
	}

	result.Best = best
	result.BestHardViol = hard
	result.BestTotal = total
	result.State = StateCompleted
	return result, nil
}

func fallbackBest(ga *eaopt.GA, ctx *evaluator.Context, memo *fitnessMemo) *domain.Chromosome {
	var best *domain.Chromosome
	var bestTotal float64
	for i := range ga.Populations {
		for j := range ga.Populations[i].Individuals {
			g, ok := ga.Populations[i].Individuals[j].Genome.(*chromosomeGenome)
			if !ok {
				continue
			}
			_, total := evaluateBoth(ctx, memo, g.x)
			if best == nil || total < bestTotal {
				best, bestTotal = g.x, total
			}
		}
	}
	if best == nil {
		return domain.NewChromosome(len(ctx.Input.Rooms), ctx.Input.SlotCount())
	}
	return best
}
