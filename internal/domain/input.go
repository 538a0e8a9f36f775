package domain

import "fmt"

// Input is the ingestion collaborator's contract (§6.1): the full catalog of
// courses, rooms, student groups, and faculty for one scheduling job, plus
// the grid shape (Days x Hours). It is constructed once per job and shared
// read-only by every chromosome, builder invocation, and evaluator call —
// there is no package-level singleton anywhere in this module (§9).
type Input struct {
	Courses       []*Course
	Rooms         []*Room
	StudentGroups []*StudentGroup
	Faculties     []*Faculty
	Days          int
	Hours         int

	coursesByID  map[CourseID]*Course
	roomsByID    map[RoomID]*Room
	facultyByID  map[FacultyID]*Faculty
	groupsByID   map[GroupID]*StudentGroup
}

// NewInput validates the parallel-list invariant on every student group and
// builds the O(1) lookup maps consumed by GetCourse/GetRoom/GetFaculty/
// GetStudentGroup. It never panics on bad data — malformed input is always
// a returned error (§7: "data problems never panic").
func NewInput(courses []*Course, rooms []*Room, groups []*StudentGroup, faculties []*Faculty, days, hours int) (*Input, error) {
	if days <= 0 {
		days = DaysPerWeek
	}
	if hours <= 0 {
		hours = 8
	}

	in := &Input{
		Courses:       courses,
		Rooms:         rooms,
		StudentGroups: groups,
		Faculties:     faculties,
		Days:          days,
		Hours:         hours,
		coursesByID:   make(map[CourseID]*Course, len(courses)),
		roomsByID:     make(map[RoomID]*Room, len(rooms)),
		facultyByID:   make(map[FacultyID]*Faculty, len(faculties)),
		groupsByID:    make(map[GroupID]*StudentGroup, len(groups)),
	}

	for _, c := range courses {
		in.coursesByID[c.Code] = c
	}
	for _, r := range rooms {
		in.roomsByID[r.ID] = r
	}
	for _, f := range faculties {
		in.facultyByID[f.ID] = f
	}
	for _, g := range groups {
		in.groupsByID[g.ID] = g
	}

	for _, g := range groups {
		nc, nt, nh := len(g.CourseIDs), len(g.TeacherIDs), len(g.HoursRequired)
		if nc != nt || nc != nh {
			return nil, fmt.Errorf("student_groups[%s]: parallel-list invariant violated: len(course_ids)=%d len(teacher_ids)=%d len(hours_required)=%d", g.ID, nc, nt, nh)
		}
		for i, cid := range g.CourseIDs {
			if _, ok := in.coursesByID[cid]; !ok {
				return nil, fmt.Errorf("student_groups[%s].course_ids[%d]: unknown course %q", g.ID, i, cid)
			}
		}
	}

	return in, nil
}

// GetCourse returns the course with the given code, or (nil, false).
func (in *Input) GetCourse(id CourseID) (*Course, bool) {
	c, ok := in.coursesByID[id]
	return c, ok
}

// GetRoom returns the room with the given id, or (nil, false).
func (in *Input) GetRoom(id RoomID) (*Room, bool) {
	r, ok := in.roomsByID[id]
	return r, ok
}

// GetFaculty returns the faculty with the given id, or (nil, false).
func (in *Input) GetFaculty(id FacultyID) (*Faculty, bool) {
	f, ok := in.facultyByID[id]
	return f, ok
}

// GetStudentGroup returns the student group with the given id, or (nil, false).
func (in *Input) GetStudentGroup(id GroupID) (*StudentGroup, bool) {
	g, ok := in.groupsByID[id]
	return g, ok
}

// TimeSlots returns T = Days*Hours deterministically constructed slots.
func (in *Input) TimeSlots() []TimeSlot {
	return BuildTimeSlots(in.Days, in.Hours)
}

// SlotCount returns T = Days * Hours.
func (in *Input) SlotCount() int {
	return in.Days * in.Hours
}
