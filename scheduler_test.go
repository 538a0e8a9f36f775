package scheduler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusplan/scheduler-engine/scheduler"
)

func allAvail() (string, string) { return "ALL", "ALL" }

func mustEngine(t *testing.T, seed int64) *scheduler.Engine {
	t.Helper()
	e, err := scheduler.New(scheduler.Config{
		PopulationSize: 8,
		MaxGenerations: 30,
		MutationFactor: 0.4,
		CrossoverRate:  0.9,
		Seed:           seed,
	})
	require.NoError(t, err)
	return e
}

// S1 - Trivial feasible: a single 1-credit course promoted to 3 hours,
// one room, one group, faculty available every day/hour.
func TestScenarioTrivialFeasible(t *testing.T) {
	days, times := allAvail()
	in := scheduler.InputData{
		Courses: []scheduler.CourseInput{
			{Code: "C1", Name: "Intro", Credits: 1, RequiredRoomType: "Classroom", FacultyIDs: []string{"F1"}},
		},
		Rooms: []scheduler.RoomInput{
			{ID: "R1", Name: "Room 1", Capacity: 40, Type: "Classroom"},
		},
		Faculties: []scheduler.FacultyInput{
			{ID: "F1", Name: "Dr. A", AvailDays: days, AvailTimes: times},
		},
		StudentGroups: []scheduler.StudentGroupInput{
			{ID: "G1", Name: "Group 1", Size: 30, CourseIDs: []string{"C1"}, TeacherIDs: []string{"F1"}, HoursRequired: []int{1}},
		},
		Days: 5, Hours: 6,
	}

	result, err := mustEngine(t, 1).Run(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.FitnessScore)
	require.Equal(t, 3, result.Summary.ScheduledEvents)
	require.True(t, result.Summary.HardConstraintsSatisfied)
	require.Empty(t, result.ConstraintViolations["AllocationCompleteness"])
}

// S2 - Break avoidance: filling the week must never place an event on
// (Mon, hour_index=4), the logical break slot.
func TestScenarioBreakAvoidance(t *testing.T) {
	days, times := allAvail()
	in := scheduler.InputData{
		Rooms: []scheduler.RoomInput{
			{ID: "R1", Name: "Room 1", Capacity: 40, Type: "Classroom"},
		},
		Faculties: []scheduler.FacultyInput{
			{ID: "F1", Name: "Dr. A", AvailDays: days, AvailTimes: times},
		},
		Days: 5, Hours: 6,
	}
	in.Courses = append(in.Courses, scheduler.CourseInput{Code: "C1", Credits: 1, RequiredRoomType: "Classroom", FacultyIDs: []string{"F1"}})
	hours := []int{1}
	courses := []string{"C1"}
	teachers := []string{"F1"}
	for i := 2; i <= 6; i++ {
		code := "C" + string(rune('0'+i))
		in.Courses = append(in.Courses, scheduler.CourseInput{Code: code, Credits: 2, RequiredRoomType: "Classroom", FacultyIDs: []string{"F1"}})
		courses = append(courses, code)
		teachers = append(teachers, "F1")
		hours = append(hours, 2)
	}
	in.StudentGroups = []scheduler.StudentGroupInput{
		{ID: "G1", Name: "Group 1", Size: 30, CourseIDs: courses, TeacherIDs: teachers, HoursRequired: hours},
	}

	result, err := mustEngine(t, 2).Run(context.Background(), in)
	require.NoError(t, err)
	require.Empty(t, result.ConstraintViolations["NoBreakScheduling"])

	// Row index 4 is hour_index 4; Mon is DayCells[0].
	require.Len(t, result.PerGroupGrids, 1)
	breakRow := result.PerGroupGrids[0].Rows[4]
	require.Equal(t, "BREAK", breakRow.DayCells[0])
}

// S3 - Room-type mismatch: the only room is a Classroom but the course
// requires a Lab, so the event can never be feasibly placed anywhere.
func TestScenarioRoomTypeMismatch(t *testing.T) {
	days, times := allAvail()
	in := scheduler.InputData{
		Courses: []scheduler.CourseInput{
			{Code: "C1", Credits: 2, RequiredRoomType: "Lab", FacultyIDs: []string{"F1"}},
		},
		Rooms: []scheduler.RoomInput{
			{ID: "R1", Name: "Room 1", Capacity: 40, Type: "Classroom"},
		},
		Faculties: []scheduler.FacultyInput{
			{ID: "F1", Name: "Dr. A", AvailDays: days, AvailTimes: times},
		},
		StudentGroups: []scheduler.StudentGroupInput{
			{ID: "G1", Name: "Group 1", Size: 30, CourseIDs: []string{"C1"}, TeacherIDs: []string{"F1"}, HoursRequired: []int{2}},
		},
		Days: 5, Hours: 6,
	}

	result, err := mustEngine(t, 3).Run(context.Background(), in)
	require.NoError(t, err)
	require.False(t, result.Summary.HardConstraintsSatisfied)
	require.Zero(t, result.Summary.ScheduledEvents)
	require.NotEmpty(t, result.ConstraintViolations["AllocationCompleteness"])
}

// S4 - Lecturer clash via input: two groups each want the same faculty in
// the only slot that faculty is available, so one group must go unplaced
// or clash; repair settles on at most one H3 record.
func TestScenarioLecturerClashViaInput(t *testing.T) {
	in := scheduler.InputData{
		Courses: []scheduler.CourseInput{
			{Code: "C1", Credits: 2, RequiredRoomType: "Classroom", FacultyIDs: []string{"F1"}},
			{Code: "C2", Credits: 2, RequiredRoomType: "Classroom", FacultyIDs: []string{"F1"}},
		},
		Rooms: []scheduler.RoomInput{
			{ID: "R1", Name: "Room 1", Capacity: 40, Type: "Classroom"},
			{ID: "R2", Name: "Room 2", Capacity: 40, Type: "Classroom"},
		},
		Faculties: []scheduler.FacultyInput{
			{ID: "F1", Name: "Dr. A", AvailDays: "Mon", AvailTimes: "09:00-10:00"},
		},
		StudentGroups: []scheduler.StudentGroupInput{
			{ID: "G1", Name: "Group 1", Size: 30, CourseIDs: []string{"C1"}, TeacherIDs: []string{"F1"}, HoursRequired: []int{1}},
			{ID: "G2", Name: "Group 2", Size: 30, CourseIDs: []string{"C2"}, TeacherIDs: []string{"F1"}, HoursRequired: []int{1}},
		},
		Days: 5, Hours: 6,
	}

	result, err := mustEngine(t, 4).Run(context.Background(), in)
	require.NoError(t, err)
	require.LessOrEqual(t, len(result.ConstraintViolations["LecturerNoOverlap"]), 1)
}

// S5 - Consecutive enforcement: a single 2-credit course, ample rooms and
// time, must land in two adjacent slots of the same day and room.
func TestScenarioConsecutiveEnforcement(t *testing.T) {
	days, times := allAvail()
	in := scheduler.InputData{
		Courses: []scheduler.CourseInput{
			{Code: "C1", Credits: 2, RequiredRoomType: "Classroom", FacultyIDs: []string{"F1"}},
		},
		Rooms: []scheduler.RoomInput{
			{ID: "R1", Name: "Room 1", Capacity: 40, Type: "Classroom"},
			{ID: "R2", Name: "Room 2", Capacity: 40, Type: "Classroom"},
		},
		Faculties: []scheduler.FacultyInput{
			{ID: "F1", Name: "Dr. A", AvailDays: days, AvailTimes: times},
		},
		StudentGroups: []scheduler.StudentGroupInput{
			{ID: "G1", Name: "Group 1", Size: 30, CourseIDs: []string{"C1"}, TeacherIDs: []string{"F1"}, HoursRequired: []int{2}},
		},
		Days: 5, Hours: 6,
	}

	result, err := mustEngine(t, 5).Run(context.Background(), in)
	require.NoError(t, err)
	require.Empty(t, result.ConstraintViolations["ConsecutiveBlocks"])
	require.Equal(t, 2, result.Summary.ScheduledEvents)
}

// S6 - Completeness under bounded budget: many groups and courses over a
// sparse room set; repair must still guarantee full allocation within the
// generation budget, even if soft constraints remain non-zero. 10 groups x 5
// courses x 3 hours = 150 events; 6 rooms x 30 slots = 180 cells (162 outside
// break slots), so the run is not short-circuited as infeasible.
func TestScenarioCompletenessUnderBudget(t *testing.T) {
	days, times := allAvail()
	in := scheduler.InputData{
		Rooms: []scheduler.RoomInput{
			{ID: "R1", Name: "Room 1", Capacity: 50, Type: "Classroom"},
			{ID: "R2", Name: "Room 2", Capacity: 50, Type: "Classroom"},
			{ID: "R3", Name: "Room 3", Capacity: 50, Type: "Classroom"},
			{ID: "R4", Name: "Room 4", Capacity: 50, Type: "Classroom"},
			{ID: "R5", Name: "Room 5", Capacity: 50, Type: "Classroom"},
			{ID: "R6", Name: "Room 6", Capacity: 50, Type: "Classroom"},
		},
		Faculties: []scheduler.FacultyInput{
			{ID: "F1", Name: "Dr. A", AvailDays: days, AvailTimes: times},
		},
		Days: 5, Hours: 6,
	}
	for c := 1; c <= 5; c++ {
		code := "C" + string(rune('0'+c))
		in.Courses = append(in.Courses, scheduler.CourseInput{Code: code, Credits: 3, RequiredRoomType: "Classroom", FacultyIDs: []string{"F1"}})
	}
	for g := 1; g <= 10; g++ {
		var courses, teachers []string
		var hours []int
		for c := 1; c <= 5; c++ {
			courses = append(courses, "C"+string(rune('0'+c)))
			teachers = append(teachers, "F1")
			hours = append(hours, 3)
		}
		in.StudentGroups = append(in.StudentGroups, scheduler.StudentGroupInput{
			ID: "G" + string(rune('0'+g)), Name: "Group", Size: 30,
			CourseIDs: courses, TeacherIDs: teachers, HoursRequired: hours,
		})
	}

	e, err := scheduler.New(scheduler.Config{
		PopulationSize: 10, MaxGenerations: 40, MutationFactor: 0.4, CrossoverRate: 0.9, Seed: 6,
	})
	require.NoError(t, err)

	result, err := e.Run(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, result.Summary.TotalEvents, result.Summary.ScheduledEvents)
	require.Equal(t, 100.0, result.Summary.CompletionRatePercent)
}

func TestBoundaryEmptyInputYieldsEmptySchedule(t *testing.T) {
	result, err := mustEngine(t, 7).Run(context.Background(), scheduler.InputData{Days: 5, Hours: 6})
	require.NoError(t, err)
	require.Equal(t, 0.0, result.FitnessScore)
	require.Empty(t, result.ConstraintViolations)
	require.Zero(t, result.Summary.TotalEvents)
}

func TestBoundaryMoreEventsThanCellsIsInfeasible(t *testing.T) {
	days, times := allAvail()
	in := scheduler.InputData{
		Courses: []scheduler.CourseInput{
			{Code: "C1", Credits: 2, RequiredRoomType: "Classroom", FacultyIDs: []string{"F1"}},
		},
		Rooms: []scheduler.RoomInput{
			{ID: "R1", Name: "Room 1", Capacity: 40, Type: "Classroom"},
		},
		Faculties: []scheduler.FacultyInput{
			{ID: "F1", Name: "Dr. A", AvailDays: days, AvailTimes: times},
		},
		StudentGroups: []scheduler.StudentGroupInput{
			{ID: "G1", Name: "Group 1", Size: 30, CourseIDs: []string{"C1"}, TeacherIDs: []string{"F1"}, HoursRequired: []int{2}},
		},
		Days: 1, Hours: 1, // T = 1, R = 1, R*T = 1 < |E| = 2
	}

	_, err := mustEngine(t, 8).Run(context.Background(), in)
	require.Error(t, err)
	var schedErr *scheduler.Error
	require.ErrorAs(t, err, &schedErr)
	require.Equal(t, scheduler.KindInfeasible, schedErr.Kind)
}
