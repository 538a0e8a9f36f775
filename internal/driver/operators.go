package driver

import (
	"math/rand"

	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
)

// mutateOnce performs one mutation attempt, picking among the three
// mixed strategies of §4.4 uniformly at random. A strategy that finds
// nothing to do is simply a no-op for this attempt.
func mutateOnce(ctx *evaluator.Context, x *domain.Chromosome, rng *rand.Rand) {
	switch rng.Intn(3) {
	case 0:
		resolveClash(ctx, x, rng)
	case 1:
		safeSwap(ctx, x, rng)
	default:
		safeMove(ctx, x, rng)
	}
}

// resolveClash finds a random timeslot exhibiting a group or lecturer
// clash, picks one of the clashing events, and moves it to a Perfect slot.
func resolveClash(ctx *evaluator.Context, x *domain.Chromosome, rng *rand.Rand) {
	slots := rng.Perm(x.Slots)
	for _, slot := range slots {
		occupants := occupiedRooms(ctx, x, slot)
		if len(occupants) < 2 {
			continue
		}
		groupSeen := make(map[domain.GroupID]bool)
		facultySeen := make(map[domain.FacultyID]bool)
		var clashingRooms []int
		for _, room := range occupants {
			ev := ctx.EventAt(x, room, slot)
			if groupSeen[ev.Group] || (ev.Faculty != "" && facultySeen[ev.Faculty]) {
				clashingRooms = append(clashingRooms, room)
			}
			groupSeen[ev.Group] = true
			if ev.Faculty != "" {
				facultySeen[ev.Faculty] = true
			}
		}
		if len(clashingRooms) == 0 {
			continue
		}
		room := clashingRooms[rng.Intn(len(clashingRooms))]
		idx := x.Get(room, slot)
		ev := ctx.Events[idx]
		course, _ := ctx.Input.GetCourse(ev.Course)
		if course == nil {
			return
		}
		if dstRoom, dstSlot, ok := findPerfectEmptyCell(ctx, x, course, idx, ev.Group, rng); ok {
			x.Set(room, slot, domain.EmptyEvent)
			x.Set(dstRoom, dstSlot, idx)
		}
		return
	}
}

// safeSwap picks two occupied cells and swaps their events only if both
// destination rooms are type-suitable for the incoming event and both
// timeslots remain clash-free after the swap.
func safeSwap(ctx *evaluator.Context, x *domain.Chromosome, rng *rand.Rand) {
	cells := occupiedCells(x)
	if len(cells) < 2 {
		return
	}
	a := cells[rng.Intn(len(cells))]
	b := cells[rng.Intn(len(cells))]
	if a == b {
		return
	}
	evA, evB := x.Get(a.room, a.slot), x.Get(b.room, b.slot)

	courseA, _ := ctx.Input.GetCourse(ctx.Events[evA].Course)
	courseB, _ := ctx.Input.GetCourse(ctx.Events[evB].Course)
	roomA, roomB := ctx.Input.Rooms[a.room], ctx.Input.Rooms[b.room]
	if !ctx.RoomTypeSuitable(courseB, roomA) || !ctx.RoomTypeSuitable(courseA, roomB) {
		return
	}

	x.Set(a.room, a.slot, domain.EmptyEvent)
	x.Set(b.room, b.slot, domain.EmptyEvent)

	tsA, tsB := ctx.TimeSlots[a.slot], ctx.TimeSlots[b.slot]
	bOK := ctx.CellFeasible(x, evB, ctx.Events[evB].Group, tsA.Day, tsA.Hour, a.slot, false, false)
	aOK := ctx.CellFeasible(x, evA, ctx.Events[evA].Group, tsB.Day, tsB.Hour, b.slot, false, false)
	if bOK && aOK {
		x.Set(a.room, a.slot, evB)
		x.Set(b.room, b.slot, evA)
	} else {
		x.Set(a.room, a.slot, evA)
		x.Set(b.room, b.slot, evB)
	}
}

// safeMove picks one occupied cell and moves it to a Perfect empty slot.
func safeMove(ctx *evaluator.Context, x *domain.Chromosome, rng *rand.Rand) {
	cells := occupiedCells(x)
	if len(cells) == 0 {
		return
	}
	c := cells[rng.Intn(len(cells))]
	idx := x.Get(c.room, c.slot)
	ev := ctx.Events[idx]
	course, _ := ctx.Input.GetCourse(ev.Course)
	if course == nil {
		return
	}
	x.Set(c.room, c.slot, domain.EmptyEvent)
	if dstRoom, dstSlot, ok := findPerfectEmptyCell(ctx, x, course, idx, ev.Group, rng); ok {
		x.Set(dstRoom, dstSlot, idx)
	} else {
		x.Set(c.room, c.slot, idx)
	}
}

type cell struct{ room, slot int }

func occupiedCells(x *domain.Chromosome) []cell {
	var out []cell
	x.Each(func(room, slot int, ev domain.EventID) { out = append(out, cell{room, slot}) })
	return out
}

func occupiedRooms(ctx *evaluator.Context, x *domain.Chromosome, slot int) []int {
	var out []int
	for room := 0; room < x.Rooms; room++ {
		if ctx.EventAt(x, room, slot) != nil {
			out = append(out, room)
		}
	}
	return out
}

func findPerfectEmptyCell(ctx *evaluator.Context, x *domain.Chromosome, course *domain.Course, idx domain.EventID, group domain.GroupID, rng *rand.Rand) (room, slot int, ok bool) {
	rooms := rng.Perm(len(ctx.Input.Rooms))
	slots := rng.Perm(x.Slots)
	for _, r := range rooms {
		if !ctx.RoomTypeSuitable(course, ctx.Input.Rooms[r]) {
			continue
		}
		for _, s := range slots {
			if x.Get(r, s) != domain.EmptyEvent {
				continue
			}
			ts := ctx.TimeSlots[s]
			if ctx.CellFeasible(x, idx, group, ts.Day, ts.Hour, s, false, false) {
				return r, s, true
			}
		}
	}
	return 0, 0, false
}

// crossoverInto merges mutant's cells into trial (already a clone of the
// target) per §4.4: for each cell, with probability cr (plus one
// guaranteed position), copy the mutant's cell in, subject to the
// guardrail that a non-empty mutant event is only copied if its group
// isn't already booked at that timeslot in the trial.
func crossoverInto(ctx *evaluator.Context, trial, mutant *domain.Chromosome, cr float64, rng *rand.Rand) {
	total := trial.Rooms * trial.Slots
	if total == 0 {
		return
	}
	guaranteed := rng.Intn(total)

	for room := 0; room < trial.Rooms; room++ {
		for slot := 0; slot < trial.Slots; slot++ {
			linear := room*trial.Slots + slot
			if linear != guaranteed && rng.Float64() >= cr {
				continue
			}
			mEv := mutant.Get(room, slot)
			if mEv == domain.EmptyEvent {
				trial.Set(room, slot, domain.EmptyEvent)
				continue
			}
			group := ctx.Events[mEv].Group
			if ctx.GroupClashAt(trial, slot, group) && trial.Get(room, slot) != mEv {
				continue
			}
			trial.Set(room, slot, mEv)
		}
	}
}
