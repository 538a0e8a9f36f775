package evaluator

import "github.com/campusplan/scheduler-engine/internal/domain"

// EventAt resolves the event occupying (room, slot), or nil. Exported for
// the builder and repair packages, which share this lookup with the
// evaluator's own checks.
func (ctx *Context) EventAt(x *domain.Chromosome, room, slot int) *domain.Event {
	return ctx.eventAt(x, room, slot)
}

// EventFaculty returns the faculty teaching event idx, or "" if idx is the
// empty sentinel or out of range.
func (ctx *Context) EventFaculty(idx domain.EventID) domain.FacultyID {
	if idx == domain.EmptyEvent || int(idx) < 0 || int(idx) >= len(ctx.Events) {
		return ""
	}
	return ctx.Events[idx].Faculty
}

// GroupClashAt reports whether group already occupies some room in slot.
func (ctx *Context) GroupClashAt(x *domain.Chromosome, slot int, group domain.GroupID) bool {
	for room := 0; room < x.Rooms; room++ {
		if ev := ctx.eventAt(x, room, slot); ev != nil && ev.Group == group {
			return true
		}
	}
	return false
}

// LecturerClashAt reports whether faculty already teaches some room in slot.
func (ctx *Context) LecturerClashAt(x *domain.Chromosome, slot int, faculty domain.FacultyID) bool {
	for room := 0; room < x.Rooms; room++ {
		if ev := ctx.eventAt(x, room, slot); ev != nil && ev.Faculty == faculty {
			return true
		}
	}
	return false
}

// RoomTypeSuitable reports whether room can host course (empty required
// type means any room qualifies).
func (ctx *Context) RoomTypeSuitable(course *domain.Course, room *domain.Room) bool {
	if course == nil || room == nil {
		return false
	}
	return course.RequiredRoomType == "" || room.Type == course.RequiredRoomType
}

// CellFeasible is the shared "Perfect strategy" predicate used by both the
// builder (§4.2 step 4b) and the repair operators' R2 strategy 1 (§4.3):
// the cell must be non-break, within the event's lecturer's availability,
// and — unless relaxed — free of group and lecturer clash. It does not
// check room type or occupancy; callers that need those check them
// separately since the builder pre-filters by room type.
func (ctx *Context) CellFeasible(x *domain.Chromosome, eventIdx domain.EventID, group domain.GroupID, day domain.Day, hour, slot int, allowGroupClash, allowLecturerClash bool) bool {
	if domain.IsBreakHour(day, hour) {
		return false
	}
	faculty := ctx.EventFaculty(eventIdx)
	if faculty != "" {
		f, ok := ctx.Input.GetFaculty(faculty)
		clockHour := domain.DayStartHour + hour
		if !ok || !f.Avail.Allows(day, clockHour) {
			return false
		}
	}
	if !allowGroupClash && ctx.GroupClashAt(x, slot, group) {
		return false
	}
	if !allowLecturerClash && faculty != "" && ctx.LecturerClashAt(x, slot, faculty) {
		return false
	}
	return true
}
