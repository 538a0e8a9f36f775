package driver

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campusplan/scheduler-engine/internal/domain"
)

func TestParamsValidate(t *testing.T) {
	cases := []struct {
		name    string
		p       Params
		wantErr bool
	}{
		{"valid", Params{PopulationSize: 10, MaxGenerations: 50, MutationWeight: 0.8, CrossoverRate: 0.7}, false},
		{"pop too small", Params{PopulationSize: 3, MaxGenerations: 50, MutationWeight: 0.8, CrossoverRate: 0.7}, true},
		{"zero generations", Params{PopulationSize: 10, MaxGenerations: 0, MutationWeight: 0.8, CrossoverRate: 0.7}, true},
		{"mutation weight out of range", Params{PopulationSize: 10, MaxGenerations: 50, MutationWeight: 0, CrossoverRate: 0.7}, true},
		{"crossover rate out of range", Params{PopulationSize: 10, MaxGenerations: 50, MutationWeight: 0.8, CrossoverRate: 1.5}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.p.Validate()
			if c.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFitnessMemoEvictsOldestHalfOnOverflow(t *testing.T) {
	m := newFitnessMemo()
	for i := 0; i < memoCapacity+10; i++ {
		x := domain.NewChromosome(1, 1)
		x.Set(0, 0, domain.EventID(i))
		key := chromosomeHash(x)
		m.store(key, float64(i), float64(i))
	}
	assert.LessOrEqual(t, len(m.order), memoCapacity)

	firstKeyChrom := domain.NewChromosome(1, 1)
	firstKeyChrom.Set(0, 0, 0)
	_, _, ok := m.lookup(chromosomeHash(firstKeyChrom))
	assert.False(t, ok, "oldest entries should have been evicted")
}

func TestHammingDistanceCountsDifferingCells(t *testing.T) {
	a := domain.NewChromosome(2, 2)
	b := domain.NewChromosome(2, 2)
	a.Set(0, 0, 1)
	b.Set(0, 0, 2)
	assert.Equal(t, float64(1), hammingDistance(a, b))
}
