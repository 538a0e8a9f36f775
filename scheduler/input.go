package scheduler

import (
	"fmt"

	"github.com/campusplan/scheduler-engine/internal/domain"
)

// CourseInput is the ingestion collaborator's wire shape for a course
// (§6.1 InputData.courses).
type CourseInput struct {
	Code             string
	Name             string
	Credits          int
	RequiredRoomType string
	FacultyIDs       []string // ordered; first is primary
}

// RoomInput is the wire shape for a room.
type RoomInput struct {
	ID       string
	Name     string
	Capacity int
	Type     string
	Building string // "SST", "TYD", or "" (classified from name/id if absent)
}

// FacultyInput is the wire shape for a faculty record. AvailDays/AvailTimes
// are the raw strings the original ingestion produces ("ALL" or a
// comma-separated day list; "ALL" or an "HH:MM-HH:MM" range), parsed once
// at the engine boundary per §9's redesign note against hot-path parsing.
type FacultyInput struct {
	ID         string
	Name       string
	Department string
	AvailDays  string
	AvailTimes string
}

// StudentGroupInput is the wire shape for a student group. The three
// parallel lists must share one length (§6.1's parallel-list invariant).
type StudentGroupInput struct {
	ID            string
	Name          string
	Size          int
	CourseIDs     []string
	TeacherIDs    []string
	HoursRequired []int
}

// InputData is the engine's entry contract (§6.1), unchanged in shape from
// spec.md.
type InputData struct {
	Courses       []CourseInput
	Rooms         []RoomInput
	StudentGroups []StudentGroupInput
	Faculties     []FacultyInput
	Days          int // default 5
	Hours         int // default 8
}

// toDomain converts the wire-shaped InputData into the internal domain
// model, parsing faculty availability exactly once and rejecting malformed
// records as *Error{Kind: KindInputInvalid} rather than silently treating
// them as "always unavailable" (§7: data problems never panic, but a
// malformed time range is still a rejected input, not a degraded one).
func toDomain(in InputData) (*domain.Input, error) {
	courses := make([]*domain.Course, 0, len(in.Courses))
	for i, c := range in.Courses {
		facultyIDs := make([]domain.FacultyID, len(c.FacultyIDs))
		for j, f := range c.FacultyIDs {
			facultyIDs[j] = domain.FacultyID(f)
		}
		courses = append(courses, &domain.Course{
			Code:             domain.CourseID(c.Code),
			Name:             c.Name,
			Credits:          c.Credits,
			RequiredRoomType: domain.RoomType(c.RequiredRoomType),
			FacultyIDs:       facultyIDs,
		})
		if c.Code == "" {
			return nil, inputInvalid(fmt.Sprintf("courses[%d].code", i), fmt.Errorf("course code must not be empty"))
		}
	}

	rooms := make([]*domain.Room, 0, len(in.Rooms))
	for i, r := range in.Rooms {
		if r.ID == "" {
			return nil, inputInvalid(fmt.Sprintf("rooms[%d].id", i), fmt.Errorf("room id must not be empty"))
		}
		building := domain.Building(r.Building)
		if building != domain.BuildingSST && building != domain.BuildingTYD {
			building = domain.BuildingUnknown
		}
		rooms = append(rooms, &domain.Room{
			ID:       domain.RoomID(r.ID),
			Name:     r.Name,
			Capacity: r.Capacity,
			Type:     domain.RoomType(r.Type),
			Building: building,
		})
	}

	faculties := make([]*domain.Faculty, 0, len(in.Faculties))
	for i, f := range in.Faculties {
		if f.ID == "" {
			return nil, inputInvalid(fmt.Sprintf("faculties[%d].id", i), fmt.Errorf("faculty id must not be empty"))
		}
		avail := domain.NewAvailability(f.AvailDays, f.AvailTimes)
		if avail.Malformed {
			return nil, inputInvalid(fmt.Sprintf("faculties[%d].avail_days/avail_times", i),
				fmt.Errorf("malformed availability spec (avail_days=%q avail_times=%q)", f.AvailDays, f.AvailTimes))
		}
		faculties = append(faculties, &domain.Faculty{
			ID:         domain.FacultyID(f.ID),
			Name:       f.Name,
			Department: f.Department,
			Avail:      avail,
		})
	}

	groups := make([]*domain.StudentGroup, 0, len(in.StudentGroups))
	for i, g := range in.StudentGroups {
		if g.ID == "" {
			return nil, inputInvalid(fmt.Sprintf("student_groups[%d].id", i), fmt.Errorf("group id must not be empty"))
		}
		if len(g.CourseIDs) != len(g.TeacherIDs) || len(g.CourseIDs) != len(g.HoursRequired) {
			return nil, inputInvalid(fmt.Sprintf("student_groups[%d]", i),
				fmt.Errorf("parallel-list invariant violated: len(course_ids)=%d len(teacher_ids)=%d len(hours_required)=%d",
					len(g.CourseIDs), len(g.TeacherIDs), len(g.HoursRequired)))
		}
		courseIDs := make([]domain.CourseID, len(g.CourseIDs))
		teacherIDs := make([]domain.FacultyID, len(g.TeacherIDs))
		for j := range g.CourseIDs {
			courseIDs[j] = domain.CourseID(g.CourseIDs[j])
			teacherIDs[j] = domain.FacultyID(g.TeacherIDs[j])
		}
		groups = append(groups, &domain.StudentGroup{
			ID:            domain.GroupID(g.ID),
			Name:          g.Name,
			Size:          g.Size,
			CourseIDs:     courseIDs,
			TeacherIDs:    teacherIDs,
			HoursRequired: append([]int(nil), g.HoursRequired...),
		})
	}

	input, err := domain.NewInput(courses, rooms, groups, faculties, in.Days, in.Hours)
	if err != nil {
		return nil, inputInvalid("student_groups", err)
	}
	return input, nil
}
