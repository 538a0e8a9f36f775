// Package scheduler is the public API of the differential-evolution
// timetabling engine: given a catalog of courses, rooms, faculties, and
// student groups, it produces a conflict-aware weekly schedule. The package
// mirrors the teacher's root-package library shape (`package scheduler` in
// lib.go): a `New(cfg, options...) (*Engine, error)` constructor plus a
// blocking `Run` method, with everything internal to the algorithm living
// under internal/.
package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/driver"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
)

// Run validates in, builds the derived event list and constraint-evaluator
// context, and drives the population through the DE generational loop
// (§2 "Control flow"). ctx's cancellation is observed once per generation;
// a cancelled run returns a best-effort *Result with Cancelled set, never
// an error (§7).
//
// Component-local invariant breaches (internal/* code detecting its own
// contradiction, e.g. a post-repair duplicate event index) panic with a
// private sentinel type and are recovered here exactly once, converted to
// a *Error{Kind: KindInternalInvariant} (§7's propagation rule).
func (e *Engine) Run(ctx context.Context, in InputData) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			if iv, ok := r.(invariantViolation); ok {
				result, err = nil, internalInvariant(iv.err)
				return
			}
			panic(r)
		}
	}()

	input, ierr := toDomain(in)
	if ierr != nil {
		return nil, ierr
	}

	events := domain.BuildEvents(input)
	if len(events) > len(input.Rooms)*input.SlotCount() {
		return &Result{
			RunID: uuid.NewString(),
			Summary: Summary{
				TotalEvents:              len(events),
				HardConstraintsSatisfied: false,
			},
			ConstraintViolations: map[string][]ViolationRecord{},
		}, &Error{Kind: KindInfeasible, Message: fmt.Sprintf("|E|=%d exceeds R*T=%d: physically impossible", len(events), len(input.Rooms)*input.SlotCount())}
	}

	evalCtx := evaluator.NewContext(input, events)

	if len(events) == 0 {
		x := domain.NewChromosome(len(input.Rooms), input.SlotCount())
		return e.assembleResult(evalCtx, x, 0, nil, false), nil
	}

	cancel := ctx.Done()
	params := driver.Params{
		PopulationSize: e.cfg.PopulationSize,
		MaxGenerations: e.cfg.MaxGenerations,
		MutationWeight: e.cfg.MutationFactor,
		CrossoverRate:  e.cfg.CrossoverRate,
		Progress:       e.progress,
		Debug:          e.cfg.Debug,
	}
	if params.MutationWeight == 0 {
		params.MutationWeight = DefaultConfig().MutationFactor
	}

	runResult, err := driver.Run(evalCtx, events, params, e.cfg.Seed, cancel)
	if err != nil {
		return nil, internalInvariant(err)
	}

	checkChromosomeInvariant(evalCtx, runResult.Best)

	e.logger.Info("scheduling run finished",
		zap.String("state", string(runResult.State)),
		zap.Int("generations", runResult.LastGeneration),
		zap.Float64("hard_viol", runResult.BestHardViol),
		zap.Float64("fitness", runResult.BestTotal),
		zap.Bool("cancelled", runResult.Cancelled),
	)

	return e.assembleResult(evalCtx, runResult.Best, runResult.LastGeneration, runResult.FitnessHistory, runResult.Cancelled), nil
}

// assembleResult turns a final chromosome into the §6.2 output contract.
func (e *Engine) assembleResult(ctx *evaluator.Context, x *domain.Chromosome, generations int, history []float64, cancelled bool) *Result {
	hard, total := evaluator.EvaluateBoth(ctx, x)
	violations := evaluator.Violations(ctx, x)

	scheduled := len(x.Placements())
	totalEvents := len(ctx.Events)
	completion := 100.0
	if totalEvents > 0 {
		completion = 100.0 * float64(scheduled) / float64(totalEvents)
	}

	groupExpected := make(map[domain.GroupID]int)
	groupScheduled := make(map[domain.GroupID]int)
	for _, ev := range ctx.Events {
		groupExpected[ev.Group]++
	}
	for _, p := range x.Placements() {
		groupScheduled[ctx.Events[p.Event].Group]++
	}
	fullyScheduled := 0
	for g, want := range groupExpected {
		if groupScheduled[g] >= want {
			fullyScheduled++
		}
	}

	history = last(history, 20)
	grids := buildGroupGrids(ctx, x)

	return &Result{
		RunID:                uuid.NewString(),
		Schedule:             x,
		PerGroupGrids:        grids,
		FitnessScore:         total,
		GenerationsCompleted: generations,
		FitnessHistory:       history,
		ConstraintViolations: buildViolations(violations),
		Summary: Summary{
			TotalEvents:                 totalEvents,
			ScheduledEvents:             scheduled,
			CompletionRatePercent:       completion,
			SchedulingEfficiencyPercent: completion,
			HardConstraintsSatisfied:    hard == 0,
			GroupsFullyScheduled:        fullyScheduled,
		},
		Timetables:  grids,
		ManualCells: []interface{}{},
		Cancelled:   cancelled,
	}
}

func last(history []float64, n int) []float64 {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
