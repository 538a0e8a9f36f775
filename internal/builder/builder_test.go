package builder

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
		{Code: "GST201", Name: "Communication Skills", Credits: 3, RequiredRoomType: "Lecture", FacultyIDs: []domain.FacultyID{"F2"}},
	}
	rooms := []*domain.Room{
		{ID: "R1", Name: "SST-101", Capacity: 50, Type: "Lecture", Building: domain.BuildingSST},
		{ID: "R2", Name: "TYD-201", Capacity: 50, Type: "Lecture", Building: domain.BuildingTYD},
	}
	groups := []*domain.StudentGroup{
		{ID: "G1", Name: "CSC Year 1", Size: 40,
			CourseIDs: []domain.CourseID{"CSC101", "GST201"}, TeacherIDs: []domain.FacultyID{"F1", "F2"},
			HoursRequired: []int{2, 3}},
	}
	faculties := []*domain.Faculty{
		{ID: "F1", Name: "Dr. A", Avail: domain.NewAvailability("ALL", "ALL")},
		{ID: "F2", Name: "Dr. B", Avail: domain.NewAvailability("ALL", "ALL")},
	}
	in, err := domain.NewInput(courses, rooms, groups, faculties, 5, 8)
	require.NoError(t, err)
	events := domain.BuildEvents(in)
	ctx := evaluator.NewContext(in, events)
	return ctx, events
}

func TestBuildPlacesEveryEventWhenRoomEnough(t *testing.T) {
	ctx, events := fixture(t)
	rng := rand.New(rand.NewSource(1))

	x := Build(ctx, events, rng, nil)

	placed := make(map[int]int)
	x.Each(func(room, slot int, ev domain.EventID) {
		placed[int(ev)]++
	})
	for i := range events {
		assert.Equalf(t, 1, placed[i], "event %d not placed exactly once", i)
	}
}

func TestBuildNeverSchedulesOnBreakSlot(t *testing.T) {
	ctx, events := fixture(t)
	rng := rand.New(rand.NewSource(7))
	x := Build(ctx, events, rng, nil)

	x.Each(func(room, slot int, ev domain.EventID) {
		ts := ctx.TimeSlots[slot]
		assert.False(t, ts.IsBreak(), "event placed on break slot day=%v hour=%d", ts.Day, ts.Hour)
	})
}

func TestSplitStrategiesOrder(t *testing.T) {
	assert.Equal(t, [][]int{{4}, {2, 2}, {3, 1}}, splitStrategies(4))
	assert.Equal(t, [][]int{{3}, {2, 1}}, splitStrategies(3))
	assert.Equal(t, [][]int{{2}}, splitStrategies(2))
	assert.Equal(t, [][]int{{1}}, splitStrategies(1))
}
