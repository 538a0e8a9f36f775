package repair

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
)

func fixture(t *testing.T) (*evaluator.Context, []domain.Event) {
	t.Helper()
	courses := []*domain.Course{
		{Code: "CSC101", Name: "Data Structures", Credits: 2, RequiredRoomType: "Lecture", FacultyIDs: []domain.FacultyID{"F1"}},
	}
	rooms := []*domain.Room{
		{ID: "R1", Name: "SST-101", Capacity: 50, Type: "Lecture", Building: domain.BuildingSST},
		{ID: "R2", Name: "TYD-201", Capacity: 50, Type: "Lecture", Building: domain.BuildingTYD},
	}
	groups := []*domain.StudentGroup{
		{ID: "G1", Name: "CSC Year 1", Size: 40, CourseIDs: []domain.CourseID{"CSC101"},
			TeacherIDs: []domain.FacultyID{"F1"}, HoursRequired: []int{2}},
	}
	faculties := []*domain.Faculty{
		{ID: "F1", Name: "Dr. A", Avail: domain.NewAvailability("ALL", "ALL")},
	}
	in, err := domain.NewInput(courses, rooms, groups, faculties, 5, 8)
	require.NoError(t, err)
	events := domain.BuildEvents(in)
	ctx := evaluator.NewContext(in, events)
	return ctx, events
}

func TestDeduplicateKeepsFirstOccurrence(t *testing.T) {
	ctx, _ := fixture(t)
	x := domain.NewChromosome(len(ctx.Input.Rooms), ctx.Input.SlotCount())
	x.Set(0, 0, 0)
	x.Set(0, 1, 0) // same event index placed twice

	Deduplicate(x)

	count := 0
	x.Each(func(room, slot int, ev domain.EventID) {
		if ev == 0 {
			count++
		}
	})
	assert.Equal(t, 1, count)
	assert.Equal(t, domain.EventID(0), x.Get(0, 0))
	assert.Equal(t, domain.EmptyEvent, x.Get(0, 1))
}

func TestPlaceMissingFillsEmptyChromosome(t *testing.T) {
	ctx, events := fixture(t)
	x := domain.NewChromosome(len(ctx.Input.Rooms), ctx.Input.SlotCount())
	rng := rand.New(rand.NewSource(3))

	PlaceMissing(ctx, x, rng)

	placed := make(map[domain.EventID]bool)
	x.Each(func(room, slot int, ev domain.EventID) { placed[ev] = true })
	for i := range events {
		assert.True(t, placed[domain.EventID(i)], "event %d should be placed", i)
	}
}

func TestGroupClashEliminationRemovesDuplicateGroupInSlot(t *testing.T) {
	ctx, _ := fixture(t)
	x := domain.NewChromosome(len(ctx.Input.Rooms), ctx.Input.SlotCount())
	x.Set(0, 0, 0)
	x.Set(1, 0, 1) // same group (both events belong to G1) in two rooms, same slot
	rng := rand.New(rand.NewSource(5))

	GroupClashElimination(ctx, x, rng)

	groupCount := 0
	for room := 0; room < x.Rooms; room++ {
		if ev := ctx.EventAt(x, room, 0); ev != nil {
			groupCount++
		}
	}
	assert.LessOrEqual(t, groupCount, 1)
}

func TestConsecutiveBlockEnforcementProducesContiguousBlock(t *testing.T) {
	ctx, _ := fixture(t)
	x := domain.NewChromosome(len(ctx.Input.Rooms), ctx.Input.SlotCount())
	// Scatter the two CSC101 hours non-consecutively.
	x.Set(0, 0, 0)
	x.Set(1, 5, 1)
	rng := rand.New(rand.NewSource(9))

	ConsecutiveBlockEnforcement(ctx, x, rng)

	var cells []roomSlot
	x.Each(func(room, slot int, ev domain.EventID) {
		cells = append(cells, roomSlot{room, slot})
	})
	require.Len(t, cells, 2)
	assert.True(t, isConsecutiveBlock(ctx, cells))
}
