// Package repair implements the four repair operators (C4) of
// SPEC_FULL.md §4.3, grounded on
// original_source/differential_evolution_api.py's
// verify_and_repair_course_allocations. Operators only ever depend on
// domain and evaluator, never on builder or driver, so they can be
// composed by both (avoiding the import cycle builder would otherwise
// create).
package repair

import (
	"math/rand"

	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
)

const maxPlaceMissingPasses = 5

// MidGeneration runs R1 followed by the R2 -> R4 -> R2 sequence. The driver
// applies it to each trial after crossover and before selection, and the
// builder applies it once after initial placement (§4.3).
func MidGeneration(ctx *evaluator.Context, x *domain.Chromosome, rng *rand.Rand) {
	Deduplicate(x)
	PlaceMissing(ctx, x, rng)
	GroupClashElimination(ctx, x, rng)
	PlaceMissing(ctx, x, rng)
}

// Final runs R1 followed by the R2 -> R3 -> R4 -> R2 sequence, applied once after the DE
// main loop terminates (§4.3, §4.4 main loop's `final_repair_sequence`).
func Final(ctx *evaluator.Context, x *domain.Chromosome, rng *rand.Rand) {
	Deduplicate(x)
	PlaceMissing(ctx, x, rng)
	ConsecutiveBlockEnforcement(ctx, x, rng)
	GroupClashElimination(ctx, x, rng)
	PlaceMissing(ctx, x, rng)
}

// Deduplicate is R1: for any event index occupying more than one cell,
// keep the first-found occurrence (room-major, slot-minor scan order) and
// clear the rest.
func Deduplicate(x *domain.Chromosome) {
	seen := make(map[domain.EventID]bool)
	for room := 0; room < x.Rooms; room++ {
		for slot := 0; slot < x.Slots; slot++ {
			ev := x.Get(room, slot)
			if ev == domain.EmptyEvent {
				continue
			}
			if seen[ev] {
				x.Set(room, slot, domain.EmptyEvent)
			} else {
				seen[ev] = true
			}
		}
	}
}

// missingEvents returns every event index from 0..len(ctx.Events)-1 that is
// not present anywhere in x.
func missingEvents(ctx *evaluator.Context, x *domain.Chromosome) []domain.EventID {
	present := make(map[domain.EventID]bool)
	for room := 0; room < x.Rooms; room++ {
		for slot := 0; slot < x.Slots; slot++ {
			if ev := x.Get(room, slot); ev != domain.EmptyEvent {
				present[ev] = true
			}
		}
	}
	var missing []domain.EventID
	for i := range ctx.Events {
		idx := domain.EventID(i)
		if !present[idx] {
			missing = append(missing, idx)
		}
	}
	return missing
}

// PlaceMissing is R2: up to 5 passes attempting, for each missing event in
// randomized order, the Perfect / Relaxed / Forced-displacement strategies
// in turn.
func PlaceMissing(ctx *evaluator.Context, x *domain.Chromosome, rng *rand.Rand) {
	for pass := 0; pass < maxPlaceMissingPasses; pass++ {
		missing := missingEvents(ctx, x)
		if len(missing) == 0 {
			return
		}
		rng.Shuffle(len(missing), func(i, j int) { missing[i], missing[j] = missing[j], missing[i] })

		placedAny := false
		for _, idx := range missing {
			if placeOne(ctx, x, idx, rng) {
				placedAny = true
			}
		}
		if !placedAny {
			return
		}
	}
}

// placeOne tries Perfect, then Relaxed, then Forced-displacement for a
// single missing event.
func placeOne(ctx *evaluator.Context, x *domain.Chromosome, idx domain.EventID, rng *rand.Rand) bool {
	ev := ctx.Events[idx]
	course, _ := ctx.Input.GetCourse(ev.Course)
	if course == nil {
		return false
	}

	if room, slot, ok := findCell(ctx, x, course, idx, ev.Group, rng, cellOptions{}); ok {
		x.Set(room, slot, idx)
		return true
	}
	if room, slot, ok := findCell(ctx, x, course, idx, ev.Group, rng, cellOptions{allowGroupClash: true, allowLecturerClash: true}); ok {
		x.Set(room, slot, idx)
		return true
	}
	return forcedDisplace(ctx, x, course, idx, ev.Group, rng)
}

type cellOptions struct {
	allowGroupClash, allowLecturerClash bool
}

// findCell scans type-suitable rooms across every slot in randomized order
// for an empty cell that passes the feasibility predicate under opts.
func findCell(ctx *evaluator.Context, x *domain.Chromosome, course *domain.Course, idx domain.EventID, group domain.GroupID, rng *rand.Rand, opts cellOptions) (room, slot int, ok bool) {
	candidates := suitableRoomSlots(ctx, x, course, rng)
	for _, c := range candidates {
		if x.Get(c.room, c.slot) != domain.EmptyEvent {
			continue
		}
		ts := ctx.TimeSlots[c.slot]
		if ctx.CellFeasible(x, idx, group, ts.Day, ts.Hour, c.slot, opts.allowGroupClash, opts.allowLecturerClash) {
			return c.room, c.slot, true
		}
	}
	return 0, 0, false
}

type roomSlot struct{ room, slot int }

func suitableRoomSlots(ctx *evaluator.Context, x *domain.Chromosome, course *domain.Course, rng *rand.Rand) []roomSlot {
	var out []roomSlot
	for room, r := range ctx.Input.Rooms {
		if !ctx.RoomTypeSuitable(course, r) {
			continue
		}
		for slot := 0; slot < x.Slots; slot++ {
			out = append(out, roomSlot{room, slot})
		}
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// forcedDisplace is R2 strategy 3: pick any type-suitable, non-break,
// availability-compatible cell regardless of occupancy, displace whatever
// is there, and attempt one quick Perfect reschedule of the displaced
// event. If the reschedule fails, the displaced event is left missing for
// a subsequent pass.
func forcedDisplace(ctx *evaluator.Context, x *domain.Chromosome, course *domain.Course, idx domain.EventID, group domain.GroupID, rng *rand.Rand) bool {
	candidates := suitableRoomSlots(ctx, x, course, rng)
	for _, c := range candidates {
		ts := ctx.TimeSlots[c.slot]
		if domain.IsBreakHour(ts.Day, ts.Hour) {
			continue
		}
		faculty := ctx.EventFaculty(idx)
		if faculty != "" {
			f, ok := ctx.Input.GetFaculty(faculty)
			if !ok || !f.Avail.Allows(ts.Day, domain.DayStartHour+ts.Hour) {
				continue
			}
		}

		displaced := x.Get(c.room, c.slot)
		x.Set(c.room, c.slot, idx)

		if displaced != domain.EmptyEvent {
			dispEv := ctx.Events[displaced]
			dispCourse, _ := ctx.Input.GetCourse(dispEv.Course)
			if dispCourse != nil {
				if room, slot, ok := findCell(ctx, x, dispCourse, displaced, dispEv.Group, rng, cellOptions{}); ok {
					x.Set(room, slot, displaced)
				}
				// else: left missing, a later pass will retry.
			}
		}
		return true
	}
	return false
}

// GroupClashElimination is R4: scan every timeslot; for any group occupying
// more than one room, clear all but one occurrence and attempt to rehouse
// each cleared event via Perfect then Relaxed strategies.
func GroupClashElimination(ctx *evaluator.Context, x *domain.Chromosome, rng *rand.Rand) {
	for slot := 0; slot < x.Slots; slot++ {
		seenGroup := make(map[domain.GroupID]bool)
		var toRehouse []domain.EventID
		for room := 0; room < x.Rooms; room++ {
			ev := x.Get(room, slot)
			if ev == domain.EmptyEvent {
				continue
			}
			group := ctx.Events[ev].Group
			if seenGroup[group] {
				x.Set(room, slot, domain.EmptyEvent)
				toRehouse = append(toRehouse, ev)
			} else {
				seenGroup[group] = true
			}
		}
		for _, idx := range toRehouse {
			ev := ctx.Events[idx]
			course, _ := ctx.Input.GetCourse(ev.Course)
			if course == nil {
				continue
			}
			if room, newSlot, ok := findCell(ctx, x, course, idx, ev.Group, rng, cellOptions{}); ok {
				x.Set(room, newSlot, idx)
				continue
			}
			if room, newSlot, ok := findCell(ctx, x, course, idx, ev.Group, rng, cellOptions{allowGroupClash: true, allowLecturerClash: true}); ok {
				x.Set(room, newSlot, idx)
			}
			// else: left missing, PlaceMissing restores it on the next cycle.
		}
	}
}

// ConsecutiveBlockEnforcement is R3: for every (group, course) pair with 2
// or more placed events whose current placement isn't already one
// consecutive block in a single room, try to find a fresh consecutive
// block of the right length and room type and move the whole course there.
func ConsecutiveBlockEnforcement(ctx *evaluator.Context, x *domain.Chromosome, rng *rand.Rand) {
	groups := coursePairEvents(ctx, x)
	for _, g := range groups {
		if len(g.indices) < 2 {
			continue
		}
		if isConsecutiveBlock(ctx, g.cells) {
			continue
		}
		course, _ := ctx.Input.GetCourse(g.course)
		if course == nil {
			continue
		}
		room, slots, ok := findConsecutiveBlock(ctx, x, course, g.indices[0], g.group, len(g.indices), rng)
		if !ok {
			continue
		}
		for _, cell := range g.cells {
			x.Set(cell.room, cell.slot, domain.EmptyEvent)
		}
		for i, slot := range slots {
			x.Set(room, slot, g.indices[i])
		}
	}
}

type coursePairCells struct {
	group   domain.GroupID
	course  domain.CourseID
	indices []domain.EventID
	cells   []roomSlot
}

func coursePairEvents(ctx *evaluator.Context, x *domain.Chromosome) []coursePairCells {
	type key struct {
		group  domain.GroupID
		course domain.CourseID
	}
	byKey := make(map[key]*coursePairCells)
	var order []key
	for room := 0; room < x.Rooms; room++ {
		for slot := 0; slot < x.Slots; slot++ {
			ev := x.Get(room, slot)
			if ev == domain.EmptyEvent {
				continue
			}
			e := ctx.Events[ev]
			k := key{e.Group, e.Course}
			entry, ok := byKey[k]
			if !ok {
				entry = &coursePairCells{group: e.Group, course: e.Course}
				byKey[k] = entry
				order = append(order, k)
			}
			entry.indices = append(entry.indices, ev)
			entry.cells = append(entry.cells, roomSlot{room, slot})
		}
	}
	out := make([]coursePairCells, 0, len(order))
	for _, k := range order {
		out = append(out, *byKey[k])
	}
	return out
}

// isConsecutiveBlock reports whether every cell sits in the same room on
// the same day, at contiguous hours.
func isConsecutiveBlock(ctx *evaluator.Context, cells []roomSlot) bool {
	if len(cells) == 0 {
		return true
	}
	room := cells[0].room
	day := ctx.TimeSlots[cells[0].slot].Day
	hours := make([]int, 0, len(cells))
	for _, c := range cells {
		if c.room != room {
			return false
		}
		ts := ctx.TimeSlots[c.slot]
		if ts.Day != day {
			return false
		}
		hours = append(hours, ts.Hour)
	}
	for i := 1; i < len(hours); i++ {
		for j := i; j > 0 && hours[j-1] > hours[j]; j-- {
			hours[j-1], hours[j] = hours[j], hours[j-1]
		}
	}
	for i := 1; i < len(hours); i++ {
		if hours[i] != hours[i-1]+1 {
			return false
		}
	}
	return true
}

// findConsecutiveBlock scans every type-suitable room and every day for a
// run of blockHours contiguous cells that are empty and pass the Perfect
// feasibility predicate, in randomized order.
func findConsecutiveBlock(ctx *evaluator.Context, x *domain.Chromosome, course *domain.Course, repIdx domain.EventID, group domain.GroupID, blockHours int, rng *rand.Rand) (room int, slots []int, ok bool) {
	type start struct {
		room, day int
	}
	var starts []start
	for roomIdx, r := range ctx.Input.Rooms {
		if !ctx.RoomTypeSuitable(course, r) {
			continue
		}
		for d := 0; d < ctx.Input.Days; d++ {
			starts = append(starts, start{roomIdx, d})
		}
	}
	rng.Shuffle(len(starts), func(i, j int) { starts[i], starts[j] = starts[j], starts[i] })

	for _, s := range starts {
		day := domain.Day(s.day)
		for hourStart := 0; hourStart <= ctx.Input.Hours-blockHours; hourStart++ {
			feasible := true
			candidateSlots := make([]int, blockHours)
			for i := 0; i < blockHours; i++ {
				hour := hourStart + i
				slot := domain.SlotIndex(day, hour, ctx.Input.Hours)
				candidateSlots[i] = slot
				if x.Get(s.room, slot) != domain.EmptyEvent ||
					!ctx.CellFeasible(x, repIdx, group, day, hour, slot, false, false) {
					feasible = false
					break
				}
			}
			if feasible {
				return s.room, candidateSlots, true
			}
		}
	}
	return 0, nil, false
}
