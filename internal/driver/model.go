package driver

import (
	"errors"
	"math/rand"

	"github.com/MaxHalford/eaopt"

	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
	"github.com/campusplan/scheduler-engine/internal/repair"
)

// Sentinel errors returned from Model.Apply to signal a non-failure
// termination of eaopt.GA.Minimize's generation loop (§4.4 main loop's
// break conditions). eaopt.GA.Minimize propagates any Model.Apply error
// straight back to its caller, so the driver's Run distinguishes these
// from genuine internal failures before proceeding to the final repair.
var (
	errOptimal   = errors.New("driver: optimum reached")
	errStagnated = errors.New("driver: stagnation limit reached")
	errConverged = errors.New("driver: converged below threshold")
	errCancelled = errors.New("driver: cancelled")
)

const (
	stagnationEarlyStop    = 20
	stagnationConvergence  = 50
	convergenceFitnessCap  = 100.0
	diversitySampleEvery   = 20
	diversitySamplePairs   = 10
	diversityAllPairsUnder = 10
)

// evaluateBoth wraps evaluator.EvaluateBoth with the fitness memo.
func evaluateBoth(ctx *evaluator.Context, memo *fitnessMemo, x *domain.Chromosome) (hard, total float64) {
	key := chromosomeHash(x)
	if hard, total, ok := memo.lookup(key); ok {
		return hard, total
	}
	hard, total = evaluator.EvaluateBoth(ctx, x)
	memo.store(key, hard, total)
	return hard, total
}

// generationModel is the eaopt.Model driving one full DE generation
// (§4.4): mutate/crossover/repair/select over every population slot, then
// best-tracking, stagnation bookkeeping, and the loop's early-termination
// conditions. eaopt's bundled Models (ModGenerational, ModSteadyState, ...)
// implement tournament/roulette selection on a single scalar fitness; none
// support the lexicographic hard-violation-first rule §4.4 requires, so
// this type is a from-scratch Model grounded on that same Model interface.
type generationModel struct {
	ctx  *evaluator.Context
	memo *fitnessMemo
	cr   float64

	gen        int
	best       *domain.Chromosome
	bestHard   float64
	bestTotal  float64
	stagnation int
	history    []float64
	diversity  []diversitySample
	cancel     <-chan struct{}
	rng        *rand.Rand
}

type diversitySample struct {
	generation  int
	meanHamming float64
}

func newGenerationModel(ctx *evaluator.Context, memo *fitnessMemo, cr float64, cancel <-chan struct{}, seed int64) *generationModel {
	src := rand.NewSource(seed)
	return &generationModel{ctx: ctx, memo: memo, cr: cr, cancel: cancel, rng: rand.New(src)}
}

var _ eaopt.Model = (*generationModel)(nil)

// Validate satisfies eaopt.Model; the driver's Params.Validate has already
// checked every parameter the model uses.
func (m *generationModel) Validate() error { return nil }

// Apply runs one generation: the §4.4 main loop's inner `for i in 0..P-1`
// body, then best-tracking and termination checks.
func (m *generationModel) Apply(pop *eaopt.Population) error {
	m.gen++

	if m.cancel != nil {
		select {
		case <-m.cancel:
			return errCancelled
		default:
		}
	}

	for i := range pop.Individuals {
		target, ok := pop.Individuals[i].Genome.(*chromosomeGenome)
		if !ok {
			continue
		}

		mutant := target.Clone().(*chromosomeGenome)
		mutant.Mutate(m.rng)

		trial := target.Clone().(*chromosomeGenome)
		trial.Crossover(mutant, m.rng)

		repair.MidGeneration(m.ctx, trial.x, m.rng)

		hardTarget, totalTarget := evaluateBoth(m.ctx, m.memo, target.x)
		hardTrial, totalTrial := evaluateBoth(m.ctx, m.memo, trial.x)

		replace := false
		switch {
		case hardTrial < hardTarget:
			replace = true
		case hardTrial == hardTarget:
			replace = totalTrial <= totalTarget
		}

		if replace {
			pop.Individuals[i].Genome = trial
			pop.Individuals[i].Fitness = totalTrial
		} else {
			pop.Individuals[i].Fitness = totalTarget
		}
	}

	m.trackBest(pop)
	m.sampleDiversity(pop)

	if m.bestTotal == 0 {
		return errOptimal
	}
	if m.stagnation >= stagnationEarlyStop {
		return errStagnated
	}
	if m.stagnation > stagnationConvergence && m.bestTotal < convergenceFitnessCap {
		return errConverged
	}
	return nil
}

func (m *generationModel) trackBest(pop *eaopt.Population) {
	var genBest *chromosomeGenome
	var genBestTotal, genBestHard float64
	for i := range pop.Individuals {
		g, ok := pop.Individuals[i].Genome.(*chromosomeGenome)
		if !ok {
			continue
		}
		hard, total := evaluateBoth(m.ctx, m.memo, g.x)
		if genBest == nil || total < genBestTotal {
			genBest, genBestTotal, genBestHard = g, total, hard
		}
	}
	if genBest == nil {
		return
	}
	m.history = append(m.history, genBestTotal)

	if m.best == nil || genBestTotal < m.bestTotal {
		m.best = genBest.x.Clone()
		m.bestTotal = genBestTotal
		m.bestHard = genBestHard
		m.stagnation = 0
	} else {
		m.stagnation++
	}
}

// sampleDiversity estimates mean pairwise Hamming distance over 10 sampled
// pairs (or all pairs if P <= 10) every 20 generations, for diagnostics
// only (§4.4 "Diversity sampling").
func (m *generationModel) sampleDiversity(pop *eaopt.Population) {
	if m.gen%diversitySampleEvery != 0 {
		return
	}
	n := len(pop.Individuals)
	if n < 2 {
		return
	}
	rng := m.rng

	var pairs [][2]int
	if n <= diversityAllPairsUnder {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, [2]int{i, j})
			}
		}
	} else {
		for k := 0; k < diversitySamplePairs; k++ {
			i, j := rng.Intn(n), rng.Intn(n)
			for j == i {
				j = rng.Intn(n)
			}
			pairs = append(pairs, [2]int{i, j})
		}
	}

	var sum float64
	for _, p := range pairs {
		a, aok := pop.Individuals[p[0]].Genome.(*chromosomeGenome)
		b, bok := pop.Individuals[p[1]].Genome.(*chromosomeGenome)
		if !aok || !bok {
			continue
		}
		sum += hammingDistance(a.x, b.x)
	}
	mean := sum / float64(len(pairs))
	m.diversity = append(m.diversity, diversitySample{generation: m.gen, meanHamming: mean})
}

func hammingDistance(a, b *domain.Chromosome) float64 {
	if a.Rooms != b.Rooms || a.Slots != b.Slots {
		return 0
	}
	var diff int
	for room := 0; room < a.Rooms; room++ {
		for slot := 0; slot < a.Slots; slot++ {
			if a.Get(room, slot) != b.Get(room, slot) {
				diff++
			}
		}
	}
	return float64(diff)
}
