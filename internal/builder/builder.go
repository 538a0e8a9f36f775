// Package builder implements the chromosome builder (C3): the big-rocks-
// first initial-placement algorithm of SPEC_FULL.md §4.2, grounded on
// original_source/differential_evolution_api.py's create_individual /
// get_split_strategy.
package builder

import (
	"math/rand"
	"sort"

	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
)

// courseSlotSet is one (group, course) pair's run of event indices that
// must be placed together. The indices are functionally interchangeable
// (same group/course/faculty) but must remain distinct identities in the
// chromosome — each occupies exactly one cell — so that R1 Deduplicate
// (internal/repair) can detect a genuine placement corruption instead of
// mistaking a legitimately multi-hour course for one.
type courseSlotSet struct {
	group        domain.GroupID
	course       domain.CourseID
	eventIndices []domain.EventID
}

func (s courseSlotSet) count() int { return len(s.eventIndices) }

// representative returns any one index from the set for feasibility checks
// that only depend on group/course/faculty, which every index in the set
// shares.
func (s courseSlotSet) representative() domain.EventID { return s.eventIndices[0] }

// splitStrategies returns the ordered list of block-size partitions to try
// for a course slot set of the given size, per §4.2 step 3.
func splitStrategies(hours int) [][]int {
	switch {
	case hours >= 4:
		return [][]int{{4}, {2, 2}, {3, 1}}
	case hours == 3:
		return [][]int{{3}, {2, 1}}
	case hours == 2:
		return [][]int{{2}}
	case hours == 1:
		return [][]int{{1}}
	default:
		return nil
	}
}

// RepairFunc is the signature the driver injects to run the repair
// sequence after initial placement (§4.2 step 6). Declared here rather
// than imported from internal/repair to avoid a package cycle: repair
// depends only on domain/evaluator, and the driver wires builder+repair
// together.
type RepairFunc func(*evaluator.Context, *domain.Chromosome, *rand.Rand)

// Build constructs one chromosome aiming for maximum initial feasibility,
// then invokes the repair pass once.
func Build(ctx *evaluator.Context, events []domain.Event, rng *rand.Rand, repair RepairFunc) *domain.Chromosome {
	x := domain.NewChromosome(len(ctx.Input.Rooms), ctx.Input.SlotCount())

	sets := groupEvents(events)
	sort.Slice(sets, func(i, j int) bool { return sets[i].count() > sets[j].count() })

	for _, set := range sets {
		placeCourseSlotSet(ctx, x, set, rng)
	}

	if repair != nil {
		repair(ctx, x, rng)
	}
	return x
}

func groupEvents(events []domain.Event) []courseSlotSet {
	type key struct {
		group  domain.GroupID
		course domain.CourseID
	}
	order := make([]key, 0)
	indices := make(map[key][]domain.EventID)
	for i, e := range events {
		k := key{e.Group, e.Course}
		if _, seen := indices[k]; !seen {
			order = append(order, k)
		}
		indices[k] = append(indices[k], domain.EventID(i))
	}
	sets := make([]courseSlotSet, 0, len(order))
	for _, k := range order {
		sets = append(sets, courseSlotSet{group: k.group, course: k.course, eventIndices: indices[k]})
	}
	return sets
}

func placeCourseSlotSet(ctx *evaluator.Context, x *domain.Chromosome, set courseSlotSet, rng *rand.Rand) {
	for _, strategy := range splitStrategies(set.count()) {
		if tryStrategy(ctx, x, set, strategy, rng) {
			return
		}
	}
	// All strategies failed; leave unplaced for the repair pass (§4.2 step 5).
}

// tryStrategy attempts to place every block of a strategy; a block failure
// aborts the whole strategy without committing any partial placement, so
// the caller can fall through to the next strategy cleanly.
func tryStrategy(ctx *evaluator.Context, x *domain.Chromosome, set courseSlotSet, blocks []int, rng *rand.Rand) bool {
	type placement struct {
		room  int
		slots []int
	}
	var placements []placement
	bookedDaysForCourse := make(map[domain.Day]bool)

	for _, blockHours := range blocks {
		day, ok := pickDay(ctx, x, set.group, bookedDaysForCourse, rng)
		if !ok {
			return false
		}
		room, slots, ok := pickBlock(ctx, x, set, day, blockHours, rng)
		if !ok {
			return false
		}
		placements = append(placements, placement{room: room, slots: slots})
		bookedDaysForCourse[day] = true
	}

	next := 0
	for _, p := range placements {
		for _, slot := range p.slots {
			x.Set(p.room, slot, set.eventIndices[next])
			next++
		}
	}
	return true
}

// pickDay selects the day with the fewest already-booked hours for this
// group, excluding days already used by this course (§4.2 step 4a).
func pickDay(ctx *evaluator.Context, x *domain.Chromosome, group domain.GroupID, excluded map[domain.Day]bool, rng *rand.Rand) (domain.Day, bool) {
	hoursPerDay := ctx.Input.Hours
	bookedCount := make([]int, ctx.Input.Days)
	for slot := 0; slot < x.Slots; slot++ {
		day := slot / hoursPerDay
		for room := 0; room < x.Rooms; room++ {
			if ev := ctx.EventAt(x, room, slot); ev != nil && ev.Group == group {
				bookedCount[day]++
			}
		}
	}

	type candidate struct {
		day   domain.Day
		count int
	}
	var candidates []candidate
	for d := 0; d < ctx.Input.Days; d++ {
		day := domain.Day(d)
		if excluded[day] {
			continue
		}
		candidates = append(candidates, candidate{day: day, count: bookedCount[d]})
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].count < candidates[j].count })
	best := candidates[0].count
	var tied []domain.Day
	for _, c := range candidates {
		if c.count == best {
			tied = append(tied, c.day)
		}
	}
	return tied[rng.Intn(len(tied))], true
}

// pickBlock scans every room of the required type for a run of blockHours
// consecutive feasible cells within day, applies the building-policy soft
// preference, and picks uniformly among the preferred set (§4.2 steps
// 4b-d).
func pickBlock(ctx *evaluator.Context, x *domain.Chromosome, set courseSlotSet, day domain.Day, blockHours int, rng *rand.Rand) (room int, slots []int, ok bool) {
	course, _ := ctx.Input.GetCourse(set.course)
	group, _ := ctx.Input.GetStudentGroup(set.group)
	if course == nil || group == nil {
		return 0, nil, false
	}
	isEng := ctx.EngineeringGroups[set.group]

	var preferred, fallback [][2]int // [room, startHour]

	for roomIdx, r := range ctx.Input.Rooms {
		if !ctx.RoomTypeSuitable(course, r) {
			continue
		}
		for start := 0; start <= ctx.Input.Hours-blockHours; start++ {
			feasible := true
			for i := 0; i < blockHours; i++ {
				hour := start + i
				slot := domain.SlotIndex(day, hour, ctx.Input.Hours)
				if x.Get(roomIdx, slot) != domain.EmptyEvent ||
					!ctx.CellFeasible(x, set.representative(), set.group, day, hour, slot, false, false) {
					feasible = false
					break
				}
			}
			if !feasible {
				continue
			}
			building := ctx.RoomBuilding[r.ID]
			entry := [2]int{roomIdx, start}
			if isEng {
				if building == domain.BuildingSST {
					preferred = append(preferred, entry)
				} else {
					fallback = append(fallback, entry)
				}
			} else {
				if building != domain.BuildingSST {
					preferred = append(preferred, entry)
				} else {
					fallback = append(fallback, entry)
				}
			}
		}
	}

	pool := preferred
	if len(pool) == 0 {
		pool = fallback
	}
	if len(pool) == 0 {
		return 0, nil, false
	}
	pick := pool[rng.Intn(len(pool))]
	roomIdx, start := pick[0], pick[1]
	slots = make([]int, blockHours)
	for i := 0; i < blockHours; i++ {
		slots[i] = domain.SlotIndex(day, start+i, ctx.Input.Hours)
	}
	return roomIdx, slots, true
}
