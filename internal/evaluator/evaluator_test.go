package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/scheduler-engine/internal/domain"
)

func smallInput(t *testing.T) *domain.Input {
	t.Helper()
	courses := []*domain.Course{
		{Code: "CSC101", Name: "Intro to Computer Science", Credits: 2, RequiredRoomType: "Lecture", FacultyIDs: []domain.FacultyID{"F1"}},
	}
	rooms := []*domain.Room{
		{ID: "R1", Name: "SST-101", Capacity: 40, Type: "Lecture", Building: domain.BuildingSST},
		{ID: "R2", Name: "TYD-201", Capacity: 40, Type: "Lecture", Building: domain.BuildingTYD},
	}
	groups := []*domain.StudentGroup{
		{ID: "G1", Name: "CSC Year 1", Size: 30, CourseIDs: []domain.CourseID{"CSC101"}, TeacherIDs: []domain.FacultyID{"F1"}, HoursRequired: []int{2}},
	}
	faculties := []*domain.Faculty{
		{ID: "F1", Name: "Dr. A", Avail: domain.NewAvailability("ALL", "ALL")},
	}
	in, err := domain.NewInput(courses, rooms, groups, faculties, 5, 8)
	require.NoError(t, err)
	return in
}

// P2: Evaluate is a pure function of (ctx, chromosome) — same inputs yield
// the same fitness across repeated calls.
func TestEvaluatePure(t *testing.T) {
	in := smallInput(t)
	events := domain.BuildEvents(in)
	ctx := NewContext(in, events)
	x := domain.NewChromosome(len(in.Rooms), in.SlotCount())
	x.Set(0, 0, 0)
	x.Set(0, 1, 0)

	first := Evaluate(ctx, x)
	second := Evaluate(ctx, x)
	assert.Equal(t, first, second)
}

// P3: the sum of every violation record's weight equals the scalar total.
func TestViolationsSumMatchesTotal(t *testing.T) {
	in := smallInput(t)
	events := domain.BuildEvents(in)
	ctx := NewContext(in, events)
	x := domain.NewChromosome(len(in.Rooms), in.SlotCount())
	x.Set(0, 0, 0)
	x.Set(1, 0, 0) // same slot, different room, same group -> overlap

	total := Evaluate(ctx, x)
	viols := Violations(ctx, x)
	var sum float64
	for _, list := range viols {
		for _, v := range list {
			sum += v.Weight
		}
	}
	assert.InDelta(t, total, sum, 1e-9)
}

func TestGroupOverlapCountsReoccurrenceOnly(t *testing.T) {
	in := smallInput(t)
	events := domain.BuildEvents(in)
	ctx := NewContext(in, events)
	x := domain.NewChromosome(len(in.Rooms), in.SlotCount())
	// Same group occupies two rooms in the same slot: exactly one incident.
	x.Set(0, 0, 0)
	x.Set(1, 0, 0)

	viols := Violations(ctx, x)
	assert.Len(t, viols[GroupNoOverlap], 1)
}

func TestNoBreakSchedulingFlagsMonWedFriOnly(t *testing.T) {
	in := smallInput(t)
	events := domain.BuildEvents(in)
	ctx := NewContext(in, events)
	x := domain.NewChromosome(len(in.Rooms), in.SlotCount())

	tueBreakSlot := domain.SlotIndex(domain.Tue, 4, in.Hours)
	x.Set(0, tueBreakSlot, 0)
	assert.Empty(t, Violations(ctx, x)[NoBreakScheduling])

	monBreakSlot := domain.SlotIndex(domain.Mon, 4, in.Hours)
	x2 := domain.NewChromosome(len(in.Rooms), in.SlotCount())
	x2.Set(0, monBreakSlot, 0)
	assert.Len(t, Violations(ctx, x2)[NoBreakScheduling], 1)
}

func TestAllocationCompletenessAbsentWeighsMoreThanPartial(t *testing.T) {
	in := smallInput(t)
	events := domain.BuildEvents(in)
	ctx := NewContext(in, events)

	absent := domain.NewChromosome(len(in.Rooms), in.SlotCount())
	absentViol := Violations(ctx, absent)[AllocationCompleteness]
	require.Len(t, absentViol, 1)
	assert.Equal(t, weightAllocAbsent*2, absentViol[0].Weight)

	partial := domain.NewChromosome(len(in.Rooms), in.SlotCount())
	partial.Set(0, 0, 0)
	partialViol := Violations(ctx, partial)[AllocationCompleteness]
	require.Len(t, partialViol, 1)
	assert.Equal(t, weightAllocMissing*1, partialViol[0].Weight)
}

func TestHardViolationExcludesBuildingPolicy(t *testing.T) {
	in := smallInput(t)
	events := domain.BuildEvents(in)
	ctx := NewContext(in, events)
	x := domain.NewChromosome(len(in.Rooms), in.SlotCount())
	// G1 is an engineering-classified group (name contains "CSC"); room R2 is
	// TYD, so this cell violates BuildingPolicy. It also leaves CSC101 one
	// hour short (AllocationCompleteness, hard) and G1 on a single day
	// (SpreadAcrossWeek, soft), so the gap between total and hard is exactly
	// those two non-hard weights.
	x.Set(1, 0, 0)

	hard, total := EvaluateBoth(ctx, x)
	viols := Violations(ctx, x)
	require.NotEmpty(t, viols[BuildingPolicy])
	assert.InDelta(t, weightBuildingPolicy+weightSpread, total-hard, 1e-9)
}
