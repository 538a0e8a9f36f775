package domain

// EventID indexes into the Event list; it is the value stored in chromosome
// cells. EmptyEvent is the sentinel for an unoccupied cell.
type EventID int32

// EmptyEvent marks an unoccupied chromosome cell.
const EmptyEvent EventID = -1

// Event is one required class hour for a (group, course) pair.
type Event struct {
	Group   GroupID
	Faculty FacultyID
	Course  CourseID
}

// ExpectedHours returns the number of class hours a (group, course-index)
// pair requires, applying the 1-credit override exactly once. Both event
// construction and the allocation-completeness check call this single
// function so the two can never disagree (§9 open-question resolution).
func ExpectedHours(course *Course, group *StudentGroup, courseIndex int) int {
	if course != nil && course.Credits == 1 {
		return 3
	}
	return group.HoursRequired[courseIndex]
}

// BuildEvents constructs the derived event list E from the input's student
// groups, in group order and then course-index order, repeating each event
// ExpectedHours times.
//
// Supplemented from original_source/differential_evolution_api.py's
// create_events: when a group's recorded teacher for a course slot is empty,
// fall back to the course's primary faculty so a sparse teacher_ids entry
// doesn't silently produce an unteachable event.
func BuildEvents(in *Input) []Event {
	var events []Event
	for _, group := range in.StudentGroups { // group is *StudentGroup
		for i, courseID := range group.CourseIDs {
			course, _ := in.GetCourse(courseID)
			faculty := group.TeacherIDs[i]
			if faculty == "" && course != nil {
				faculty = course.PrimaryFacultyID()
			}
			hours := ExpectedHours(course, group, i)
			for h := 0; h < hours; h++ {
				events = append(events, Event{
					Group:   group.ID,
					Faculty: faculty,
					Course:  courseID,
				})
			}
		}
	}
	return events
}
