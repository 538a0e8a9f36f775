package driver

import (
	"math/rand"

	"github.com/MaxHalford/eaopt"

	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
)

// chromosomeGenome adapts domain.Chromosome to eaopt.Genome, the teacher's
// library abstraction for a candidate solution (lib.go's `candidate`
// type). It is the DE driver's categorical-grid genotype: mutation and
// crossover are problem-specific operators (§4.4), not the classical DE
// vector formula.
type chromosomeGenome struct {
	ctx  *evaluator.Context
	memo *fitnessMemo
	cr   float64
	x    *domain.Chromosome
}

var _ eaopt.Genome = (*chromosomeGenome)(nil)

// Clone returns a deep copy, as eaopt.Genome requires.
func (g *chromosomeGenome) Clone() eaopt.Genome {
	return &chromosomeGenome{ctx: g.ctx, memo: g.memo, cr: g.cr, x: g.x.Clone()}
}

// Mutate applies 3-8 attempts of the mixed mutation strategies of §4.4
// (resolve-clash, safe-swap, safe-move), chosen per attempt.
func (g *chromosomeGenome) Mutate(rng *rand.Rand) {
	attempts := 3 + rng.Intn(6) // [3, 8]
	for i := 0; i < attempts; i++ {
		mutateOnce(g.ctx, g.x, rng)
	}
}

// Crossover merges mutant's cells into the receiver (the trial, itself
// already a clone of the target) per §4.4's CR-gated guardrails.
func (g *chromosomeGenome) Crossover(other eaopt.Genome, rng *rand.Rand) {
	mutant, ok := other.(*chromosomeGenome)
	if !ok {
		return
	}
	crossoverInto(g.ctx, g.x, mutant.x, g.cr, rng)
}

// Evaluate returns the memoized total fitness (§4.1's evaluate()). eaopt's
// Genome interface only carries a single scalar, so the lexicographic
// hard_viol comparison the driver's selection rule needs is computed
// separately via evaluateBoth, sharing this same cache.
func (g *chromosomeGenome) Evaluate() (float64, error) {
	_, total := evaluateBoth(g.ctx, g.memo, g.x)
	return total, nil
}
