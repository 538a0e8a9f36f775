// Package evaluator implements the pure constraint evaluator (C2): a
// function from (context, chromosome) to a scalar fitness plus a detailed
// violation breakdown, for the ten hard and three soft constraints of
// SPEC_FULL.md §4.1. Every exported function is pure — no package-level
// state, no global input record (§9's anti-singleton redesign note).
package evaluator

import (
	"strings"

	"github.com/campusplan/scheduler-engine/internal/domain"
)

// Kind names one of the ten hard or three soft constraints.
type Kind string

const (
	RoomFit                  Kind = "RoomFit"                  // H1
	GroupNoOverlap           Kind = "GroupNoOverlap"           // H2
	LecturerNoOverlap        Kind = "LecturerNoOverlap"         // H3
	OneEventPerCell          Kind = "OneEventPerCell"           // H4
	BuildingPolicy           Kind = "BuildingPolicy"            // H5
	SameCourseSameRoomPerDay Kind = "SameCourseSameRoomPerDay"  // H6
	NoBreakScheduling        Kind = "NoBreakScheduling"         // H7
	AllocationCompleteness   Kind = "AllocationCompleteness"    // H8
	LecturerAvailability     Kind = "LecturerAvailability"      // H9
	LecturerWorkload         Kind = "LecturerWorkload"          // H10
	OneEventPerDayPerGroup   Kind = "OneEventPerDayPerGroup"    // S1
	ConsecutiveBlocks        Kind = "ConsecutiveBlocks"         // S2
	SpreadAcrossWeek         Kind = "SpreadAcrossWeek"          // S3
)

// Per-incident weights, taken verbatim from SPEC_FULL.md §4.1's table.
const (
	weightRoomFit       = 0.5
	weightGroupOverlap  = 1.0
	weightLecturerOverlap = 1.0
	weightOneEventPerCell = 10.0
	weightBuildingPolicy  = 0.5
	weightSameRoomPerDay  = 2.0
	weightNoBreak         = 50.0
	weightAllocMissing    = 2.0
	weightAllocAbsent     = 4.0
	weightLecturerAvail   = 2.0
	weightWorkloadDaily   = 2.0
	weightWorkloadConsecutive = 30.0
	weightOneEventPerDay  = 0.05
	weightConsecutiveUnit = 0.02
	weightSpread          = 0.025
)

// hardKinds is the constraint set used by hard_viol for selection purposes
// (§4.4 step 1) and for summary.hard_constraints_satisfied (§6.2). Building
// policy (H5) is deliberately excluded — see SPEC_FULL.md §9.4 item 2.
var hardKinds = []Kind{
	GroupNoOverlap, LecturerNoOverlap, AllocationCompleteness, OneEventPerCell,
	NoBreakScheduling, RoomFit, SameCourseSameRoomPerDay, LecturerAvailability,
	LecturerWorkload,
}

// Violation is one incident of a constraint being broken.
type Violation struct {
	Kind    Kind
	Weight  float64
	Day     domain.Day
	Hour    int
	Group   domain.GroupID
	Course  domain.CourseID
	Faculty domain.FacultyID
	Room    domain.RoomID
	Note    string
}

// engineeringVocabulary is the fixed substring vocabulary used to classify a
// student group as "engineering" for the building policy (§4.1
// "Classification").
var engineeringVocabulary = []string{
	"engineering", "eng", "computer science", "software engineering",
	"data science", "mechatronics", "electrical", "mechanical", "csc", "sen",
	"data", "ds",
}

// Context bundles the immutable input, derived event list, and the
// classification caches the evaluator (and the builder and repair
// operators) need. It is built once per job by the driver and passed by
// reference — never stored in a package-level variable.
type Context struct {
	Input     *domain.Input
	Events    []domain.Event
	TimeSlots []domain.TimeSlot

	EngineeringGroups map[domain.GroupID]bool
	RoomBuilding      map[domain.RoomID]domain.Building
}

// NewContext resolves the engineering-group and room-building caches once.
func NewContext(in *domain.Input, events []domain.Event) *Context {
	ctx := &Context{
		Input:             in,
		Events:            events,
		TimeSlots:         in.TimeSlots(),
		EngineeringGroups: make(map[domain.GroupID]bool, len(in.StudentGroups)),
		RoomBuilding:      make(map[domain.RoomID]domain.Building, len(in.Rooms)),
	}
	for _, g := range in.StudentGroups {
		ctx.EngineeringGroups[g.ID] = isEngineeringGroup(g.Name)
	}
	for _, r := range in.Rooms {
		ctx.RoomBuilding[r.ID] = classifyBuilding(r)
	}
	return ctx
}

func isEngineeringGroup(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range engineeringVocabulary {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func classifyBuilding(r *domain.Room) domain.Building {
	if r.Building == domain.BuildingSST || r.Building == domain.BuildingTYD {
		return r.Building
	}
	upperName := strings.ToUpper(r.Name)
	upperID := strings.ToUpper(string(r.ID))
	if strings.Contains(upperName, "SST") || strings.Contains(upperID, "SST") {
		return domain.BuildingSST
	}
	if strings.Contains(upperName, "TYD") || strings.Contains(upperID, "TYD") {
		return domain.BuildingTYD
	}
	return domain.BuildingUnknown
}

func needsComputerLab(course *domain.Course, room *domain.Room) bool {
	rt := strings.ToLower(string(course.RequiredRoomType))
	if rt == "comp lab" || rt == "computer_lab" || rt == "computer lab" {
		return true
	}
	roomType := strings.ToLower(string(room.Type))
	if roomType == "comp lab" || roomType == "computer_lab" || roomType == "computer lab" {
		return true
	}
	name := strings.ToLower(course.Name)
	if strings.Contains(name, "lab") {
		for _, kw := range []string{"computer", "programming", "software"} {
			if strings.Contains(name, kw) {
				return true
			}
		}
	}
	return false
}

// eventAt resolves the event occupying (room, slot), or nil.
func (ctx *Context) eventAt(x *domain.Chromosome, room, slot int) *domain.Event {
	ev := x.Get(room, slot)
	if ev == domain.EmptyEvent {
		return nil
	}
	if int(ev) < 0 || int(ev) >= len(ctx.Events) {
		return nil
	}
	return &ctx.Events[ev]
}

// result is the shared computation behind Evaluate, Violations, and
// HardViolation — guaranteeing P2 (purity) and P3 (the detailed violations
// are always consistent with the scalar total) by construction: both read
// off the same violation list.
type result struct {
	byKind map[Kind][]Violation
	total  float64
	hard   float64
}

func compute(ctx *Context, x *domain.Chromosome) result {
	r := result{byKind: make(map[Kind][]Violation, 13)}

	add := func(v Violation) {
		r.byKind[v.Kind] = append(r.byKind[v.Kind], v)
		r.total += v.Weight
	}

	checkRoomFit(ctx, x, add)
	checkGroupOverlap(ctx, x, add)
	checkLecturerOverlap(ctx, x, add)
	checkOneEventPerCell(ctx, x, add)
	checkBuildingPolicy(ctx, x, add)
	checkSameCourseSameRoomPerDay(ctx, x, add)
	checkNoBreakScheduling(ctx, x, add)
	checkAllocationCompleteness(ctx, x, add)
	checkLecturerAvailability(ctx, x, add)
	checkLecturerWorkload(ctx, x, add)
	checkOneEventPerDayPerGroup(ctx, x, add)
	checkConsecutiveBlocks(ctx, x, add)
	checkSpreadAcrossWeek(ctx, x, add)

	for _, k := range hardKinds {
		for _, v := range r.byKind[k] {
			r.hard += v.Weight
		}
	}

	return r
}

// Evaluate returns the scalar fitness f = sum(hard weights) + sum(soft
// weights). Lower is better; 0 is the target.
func Evaluate(ctx *Context, x *domain.Chromosome) float64 {
	return compute(ctx, x).total
}

// Violations returns the detailed per-constraint violation records.
func Violations(ctx *Context, x *domain.Chromosome) map[Kind][]Violation {
	return compute(ctx, x).byKind
}

// HardViolation returns hard_viol(x): the weighted sum over the hard
// constraint set used by selection (§4.4 step 1), excluding BuildingPolicy.
func HardViolation(ctx *Context, x *domain.Chromosome) float64 {
	return compute(ctx, x).hard
}

// EvaluateBoth returns (hard_viol, total) in one pass — the shape the DE
// driver's lexicographic selection rule consumes directly, avoiding a
// redundant second full grid scan.
func EvaluateBoth(ctx *Context, x *domain.Chromosome) (hard, total float64) {
	r := compute(ctx, x)
	return r.hard, r.total
}
