package driver

import (
	"hash/fnv"
	"sync"

	"github.com/campusplan/scheduler-engine/internal/domain"
)

const (
	memoCapacity = 2048
	memoEvictTo  = 1024
)

// fitnessMemo is the bounded fitness-evaluation cache keyed by a stable
// hash of the chromosome's cell contents (§3 "Derived caches"), not by raw
// pointer identity, since the same genotype can recur across clones after
// mutation/crossover/repair. Safe for concurrent use so it can be shared
// across the double-buffered parallel evaluation path (§5).
type fitnessMemo struct {
	mu     sync.Mutex
	values map[uint64]float64
	hards  map[uint64]float64
	order  []uint64
}

func newFitnessMemo() *fitnessMemo {
	return &fitnessMemo{
		values: make(map[uint64]float64, memoCapacity),
		hards:  make(map[uint64]float64, memoCapacity),
	}
}

func chromosomeHash(x *domain.Chromosome) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(x.Bytes())
	return h.Sum64()
}

// lookup returns a cached (hard, total) pair, or ok=false on a miss.
func (m *fitnessMemo) lookup(key uint64) (hard, total float64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total, ok = m.values[key]
	if !ok {
		return 0, 0, false
	}
	hard = m.hards[key]
	return hard, total, true
}

// store records a (hard, total) pair, evicting the oldest half of entries
// once the cache exceeds its capacity.
func (m *fitnessMemo) store(key uint64, hard, total float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.values[key]; !exists {
		m.order = append(m.order, key)
	}
	m.values[key] = total
	m.hards[key] = hard

	if len(m.order) > memoCapacity {
		evict := m.order[:len(m.order)-memoEvictTo]
		for _, k := range evict {
			delete(m.values, k)
			delete(m.hards, k)
		}
		m.order = append([]uint64(nil), m.order[len(m.order)-memoEvictTo:]...)
	}
}
