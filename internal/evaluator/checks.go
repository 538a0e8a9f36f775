package evaluator

import "github.com/campusplan/scheduler-engine/internal/domain"

type adder func(Violation)

func (ctx *Context) roomAt(idx int) *domain.Room {
	if idx < 0 || idx >= len(ctx.Input.Rooms) {
		return nil
	}
	return ctx.Input.Rooms[idx]
}

// checkRoomFit is H1: a room must have the required type and capacity.
// Type mismatch and undercapacity are two independent incidents, matching
// original_source/constraints_api.py's check_room_constraints, which keeps
// separate counters for the two failure modes.
func checkRoomFit(ctx *Context, x *domain.Chromosome, add adder) {
	for room := 0; room < x.Rooms; room++ {
		r := ctx.roomAt(room)
		if r == nil {
			continue
		}
		for slot := 0; slot < x.Slots; slot++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil {
				continue
			}
			course, _ := ctx.Input.GetCourse(ev.Course)
			group, _ := ctx.Input.GetStudentGroup(ev.Group)
			if course == nil || group == nil {
				continue
			}
			ts := ctx.TimeSlots[slot]
			if !r.CanAccommodate(group.Size) {
				add(Violation{Kind: RoomFit, Weight: weightRoomFit, Day: ts.Day, Hour: ts.Hour,
					Group: ev.Group, Course: ev.Course, Room: r.ID, Note: "capacity"})
			}
			if course.RequiredRoomType != "" && r.Type != course.RequiredRoomType {
				add(Violation{Kind: RoomFit, Weight: weightRoomFit, Day: ts.Day, Hour: ts.Hour,
					Group: ev.Group, Course: ev.Course, Room: r.ID, Note: "type"})
			}
		}
	}
}

// checkGroupOverlap is H2 and checkLecturerOverlap is H3: within one
// timeslot, scan rooms in order and flag every re-occurrence of an id
// already seen in that slot. This is the "watch set" counting scheme of
// original_source's check_student_group_constraints /
// check_lecturer_availability — n occurrences in a slot yield n-1
// incidents, not C(n,2) pairwise combinations.
func checkGroupOverlap(ctx *Context, x *domain.Chromosome, add adder) {
	for slot := 0; slot < x.Slots; slot++ {
		ts := ctx.TimeSlots[slot]
		seen := make(map[domain.GroupID]bool)
		for room := 0; room < x.Rooms; room++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil {
				continue
			}
			if seen[ev.Group] {
				r := ctx.roomAt(room)
				var rid domain.RoomID
				if r != nil {
					rid = r.ID
				}
				add(Violation{Kind: GroupNoOverlap, Weight: weightGroupOverlap, Day: ts.Day, Hour: ts.Hour,
					Group: ev.Group, Course: ev.Course, Room: rid})
			} else {
				seen[ev.Group] = true
			}
		}
	}
}

func checkLecturerOverlap(ctx *Context, x *domain.Chromosome, add adder) {
	for slot := 0; slot < x.Slots; slot++ {
		ts := ctx.TimeSlots[slot]
		seen := make(map[domain.FacultyID]bool)
		for room := 0; room < x.Rooms; room++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil || ev.Faculty == "" {
				continue
			}
			if seen[ev.Faculty] {
				add(Violation{Kind: LecturerNoOverlap, Weight: weightLecturerOverlap, Day: ts.Day, Hour: ts.Hour,
					Faculty: ev.Faculty, Group: ev.Group, Course: ev.Course})
			} else {
				seen[ev.Faculty] = true
			}
		}
	}
}

// checkOneEventPerCell is H4. The chromosome's grid representation makes a
// cell hold at most one EventID structurally — a second write to the same
// (room, slot) simply overwrites the first. There is no way to observe the
// corruption this constraint describes, so it never fires; it is kept as
// its own check for symmetry with the constraint table and as a landing
// spot should the grid representation ever change.
func checkOneEventPerCell(ctx *Context, x *domain.Chromosome, add adder) {}

// checkBuildingPolicy is H5: engineering-classified groups belong in SST,
// everyone else outside SST (a TYD or unclassified room is accepted for a
// non-engineering group), except computer-lab sessions which are exempt.
func checkBuildingPolicy(ctx *Context, x *domain.Chromosome, add adder) {
	for room := 0; room < x.Rooms; room++ {
		r := ctx.roomAt(room)
		if r == nil {
			continue
		}
		for slot := 0; slot < x.Slots; slot++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil {
				continue
			}
			course, _ := ctx.Input.GetCourse(ev.Course)
			if course == nil || needsComputerLab(course, r) {
				continue
			}
			building := ctx.RoomBuilding[r.ID]
			isEng := ctx.EngineeringGroups[ev.Group]
			mismatched := (building == domain.BuildingSST && !isEng) || (building != domain.BuildingSST && isEng)
			if mismatched {
				ts := ctx.TimeSlots[slot]
				add(Violation{Kind: BuildingPolicy, Weight: weightBuildingPolicy, Day: ts.Day, Hour: ts.Hour,
					Group: ev.Group, Course: ev.Course, Room: r.ID})
			}
		}
	}
}

// checkSameCourseSameRoomPerDay is H6: a (group, course) pair's sessions on
// one day must all sit in the same room.
func checkSameCourseSameRoomPerDay(ctx *Context, x *domain.Chromosome, add adder) {
	type key struct {
		group  domain.GroupID
		course domain.CourseID
		day    domain.Day
	}
	roomsUsed := make(map[key]map[int]bool)
	for room := 0; room < x.Rooms; room++ {
		for slot := 0; slot < x.Slots; slot++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil {
				continue
			}
			k := key{ev.Group, ev.Course, ctx.TimeSlots[slot].Day}
			if roomsUsed[k] == nil {
				roomsUsed[k] = make(map[int]bool)
			}
			roomsUsed[k][room] = true
		}
	}
	for k, rooms := range roomsUsed {
		if len(rooms) > 1 {
			for i := 0; i < len(rooms)-1; i++ {
				add(Violation{Kind: SameCourseSameRoomPerDay, Weight: weightSameRoomPerDay, Day: k.day,
					Group: k.group, Course: k.course})
			}
		}
	}
}

// checkNoBreakScheduling is H7: the hour_index == 4 slot on Mon/Wed/Fri is
// reserved; nothing may be scheduled there.
func checkNoBreakScheduling(ctx *Context, x *domain.Chromosome, add adder) {
	for slot := 0; slot < x.Slots; slot++ {
		ts := ctx.TimeSlots[slot]
		if !ts.IsBreak() {
			continue
		}
		for room := 0; room < x.Rooms; room++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil {
				continue
			}
			r := ctx.roomAt(room)
			var rid domain.RoomID
			if r != nil {
				rid = r.ID
			}
			add(Violation{Kind: NoBreakScheduling, Weight: weightNoBreak, Day: ts.Day, Hour: ts.Hour,
				Group: ev.Group, Course: ev.Course, Room: rid})
		}
	}
}

// checkAllocationCompleteness is H8: every (group, course) pair must be
// scheduled exactly ExpectedHours times, counted regardless of room or day.
func checkAllocationCompleteness(ctx *Context, x *domain.Chromosome, add adder) {
	type key struct {
		group  domain.GroupID
		course domain.CourseID
	}
	actual := make(map[key]int)
	for room := 0; room < x.Rooms; room++ {
		for slot := 0; slot < x.Slots; slot++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil {
				continue
			}
			actual[key{ev.Group, ev.Course}]++
		}
	}
	for _, group := range ctx.Input.StudentGroups {
		for i, courseID := range group.CourseIDs {
			course, _ := ctx.Input.GetCourse(courseID)
			expected := domain.ExpectedHours(course, group, i)
			got := actual[key{group.ID, courseID}]
			if got == expected {
				continue
			}
			if got == 0 {
				add(Violation{Kind: AllocationCompleteness, Weight: weightAllocAbsent * float64(expected),
					Group: group.ID, Course: courseID, Note: "absent"})
				continue
			}
			diff := expected - got
			if diff < 0 {
				diff = -diff
			}
			add(Violation{Kind: AllocationCompleteness, Weight: weightAllocMissing * float64(diff),
				Group: group.ID, Course: courseID, Note: "partial"})
		}
	}
}

// checkLecturerAvailability is H9: an event must sit within its faculty's
// declared availability windows. An unknown faculty id or malformed
// availability is treated as unavailable everywhere.
func checkLecturerAvailability(ctx *Context, x *domain.Chromosome, add adder) {
	for room := 0; room < x.Rooms; room++ {
		for slot := 0; slot < x.Slots; slot++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil || ev.Faculty == "" {
				continue
			}
			ts := ctx.TimeSlots[slot]
			faculty, ok := ctx.Input.GetFaculty(ev.Faculty)
			if !ok || !faculty.Avail.Allows(ts.Day, ts.ClockHour()) {
				add(Violation{Kind: LecturerAvailability, Weight: weightLecturerAvail, Day: ts.Day, Hour: ts.Hour,
					Faculty: ev.Faculty, Group: ev.Group, Course: ev.Course})
			}
		}
	}
}

// checkLecturerWorkload is H10: at most 4 teaching hours per lecturer per
// day, and at most 3 consecutive hours in one run.
func checkLecturerWorkload(ctx *Context, x *domain.Chromosome, add adder) {
	type dayKey struct {
		faculty domain.FacultyID
		day     domain.Day
	}
	hoursByDay := make(map[dayKey]map[int]bool)
	for room := 0; room < x.Rooms; room++ {
		for slot := 0; slot < x.Slots; slot++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil || ev.Faculty == "" {
				continue
			}
			ts := ctx.TimeSlots[slot]
			k := dayKey{ev.Faculty, ts.Day}
			if hoursByDay[k] == nil {
				hoursByDay[k] = make(map[int]bool)
			}
			hoursByDay[k][ts.Hour] = true
		}
	}
	for k, hourSet := range hoursByDay {
		hours := sortedInts(hourSet)
		total := len(hours)
		if total > 4 {
			add(Violation{Kind: LecturerWorkload, Weight: weightWorkloadDaily * float64(total-4),
				Faculty: k.faculty, Day: k.day, Note: "daily-total"})
		}
		for _, run := range consecutiveRuns(hours) {
			if extra := run - 3; extra > 0 {
				add(Violation{Kind: LecturerWorkload, Weight: weightWorkloadConsecutive * float64(extra),
					Faculty: k.faculty, Day: k.day, Note: "consecutive-run"})
			}
		}
	}
}

// checkOneEventPerDayPerGroup is S1: a group should see at most one event
// per day; each additional one is penalized.
func checkOneEventPerDayPerGroup(ctx *Context, x *domain.Chromosome, add adder) {
	type key struct {
		group domain.GroupID
		day   domain.Day
	}
	count := make(map[key]int)
	for room := 0; room < x.Rooms; room++ {
		for slot := 0; slot < x.Slots; slot++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil {
				continue
			}
			count[key{ev.Group, ctx.TimeSlots[slot].Day}]++
		}
	}
	for k, n := range count {
		if n > 1 {
			add(Violation{Kind: OneEventPerDayPerGroup, Weight: weightOneEventPerDay * float64(n-1),
				Group: k.group, Day: k.day})
		}
	}
}

type occurrence struct {
	day, room, hour int
}

// checkConsecutiveBlocks is S2: 2-credit courses want their two hours back
// to back in the same room; 3-credit courses want at least two of their
// three hours back to back.
func checkConsecutiveBlocks(ctx *Context, x *domain.Chromosome, add adder) {
	type key struct {
		group  domain.GroupID
		course domain.CourseID
	}
	occurrences := make(map[key][]occurrence)
	for room := 0; room < x.Rooms; room++ {
		for slot := 0; slot < x.Slots; slot++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil {
				continue
			}
			ts := ctx.TimeSlots[slot]
			k := key{ev.Group, ev.Course}
			occurrences[k] = append(occurrences[k], occurrence{day: int(ts.Day), room: room, hour: ts.Hour})
		}
	}
	for k, occ := range occurrences {
		course, _ := ctx.Input.GetCourse(k.course)
		if course == nil {
			continue
		}
		switch course.Credits {
		case 2:
			if len(occ) != 2 {
				continue
			}
			if !adjacentPair(occ[0], occ[1]) {
				add(Violation{Kind: ConsecutiveBlocks, Weight: weightConsecutiveUnit * 2, Group: k.group, Course: k.course})
			}
		case 3:
			if len(occ) != 3 {
				continue
			}
			hasPair := adjacentPair(occ[0], occ[1]) || adjacentPair(occ[0], occ[2]) || adjacentPair(occ[1], occ[2])
			if !hasPair {
				add(Violation{Kind: ConsecutiveBlocks, Weight: weightConsecutiveUnit * 3, Group: k.group, Course: k.course})
			}
		}
	}
}

func adjacentPair(a, b occurrence) bool {
	if a.day != b.day || a.room != b.room {
		return false
	}
	diff := a.hour - b.hour
	return diff == 1 || diff == -1
}

// checkSpreadAcrossWeek is S3: each group should be scheduled on at least
// half the week's days, rounded up.
func checkSpreadAcrossWeek(ctx *Context, x *domain.Chromosome, add adder) {
	daysUsed := make(map[domain.GroupID]map[domain.Day]bool)
	for room := 0; room < x.Rooms; room++ {
		for slot := 0; slot < x.Slots; slot++ {
			ev := ctx.eventAt(x, room, slot)
			if ev == nil {
				continue
			}
			if daysUsed[ev.Group] == nil {
				daysUsed[ev.Group] = make(map[domain.Day]bool)
			}
			daysUsed[ev.Group][ctx.TimeSlots[slot].Day] = true
		}
	}
	threshold := (ctx.Input.Days + 1) / 2
	for _, group := range ctx.Input.StudentGroups {
		if len(daysUsed[group.ID]) < threshold {
			add(Violation{Kind: SpreadAcrossWeek, Weight: weightSpread, Group: group.ID})
		}
	}
}

func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// consecutiveRuns returns the length of each maximal run of contiguous
// integers in a sorted slice.
func consecutiveRuns(sorted []int) []int {
	if len(sorted) == 0 {
		return nil
	}
	var runs []int
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i] != sorted[i-1]+1 {
			runs = append(runs, i-start)
			start = i
		}
	}
	return runs
}
