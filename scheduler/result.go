package scheduler

import (
	"fmt"

	"github.com/campusplan/scheduler-engine/internal/domain"
	"github.com/campusplan/scheduler-engine/internal/evaluator"
)

// ViolationRecord is the public projection of one evaluator.Violation
// (§6.2 constraint_violations).
type ViolationRecord struct {
	Weight  float64
	Day     string
	Hour    int
	Group   string
	Course  string
	Faculty string
	Room    string
	Note    string
}

// GridRow is one time-labelled row of a per-group timetable grid: a
// time_label plus one rendered cell per day, Mon..Fri (§6.2).
type GridRow struct {
	TimeLabel string
	DayCells  []string
}

// GroupGrid is the convenience per-group projection of the schedule (§6.2
// per_group_grids).
type GroupGrid struct {
	GroupID   string
	GroupName string
	Rows      []GridRow
}

// Summary is the engine's roll-up of completion and constraint-satisfaction
// metrics (§6.2 summary).
type Summary struct {
	TotalEvents                 int
	ScheduledEvents             int
	CompletionRatePercent       float64
	SchedulingEfficiencyPercent float64
	HardConstraintsSatisfied    bool
	GroupsFullyScheduled        int
}

// Result is the engine's terminal output (§6.2), with the event-reference
// grid, the per-group convenience projection, fitness diagnostics, and the
// violation breakdown.
type Result struct {
	RunID string

	Schedule      *domain.Chromosome
	PerGroupGrids []GroupGrid

	FitnessScore         float64
	GenerationsCompleted int
	FitnessHistory       []float64 // last 20 values

	ConstraintViolations map[string][]ViolationRecord

	Summary Summary

	// Timetables/ManualCells mirror the §6.4 persistence document shape:
	// {timetables, manual_cells}. ManualCells is always empty from the
	// engine — it is reserved for the (out-of-scope) interactive editor.
	Timetables  []GroupGrid
	ManualCells []interface{}

	Cancelled bool
}

func buildViolations(raw map[evaluator.Kind][]evaluator.Violation) map[string][]ViolationRecord {
	out := make(map[string][]ViolationRecord, len(raw))
	for kind, vs := range raw {
		records := make([]ViolationRecord, 0, len(vs))
		for _, v := range vs {
			records = append(records, ViolationRecord{
				Weight:  v.Weight,
				Day:     v.Day.String(),
				Hour:    v.Hour,
				Group:   string(v.Group),
				Course:  string(v.Course),
				Faculty: string(v.Faculty),
				Room:    string(v.Room),
				Note:    v.Note,
			})
		}
		out[string(kind)] = records
	}
	return out
}

// facultyDisplay returns the faculty's name if known, else the bare id
// (§6.2 cell payload "faculty_display").
func facultyDisplay(in *domain.Input, id domain.FacultyID) string {
	if id == "" {
		return ""
	}
	if f, ok := in.GetFaculty(id); ok && f.Name != "" {
		return f.Name
	}
	return string(id)
}

// buildGroupGrids renders the §6.2 per_group_grids projection: one row per
// hour, one cell per day, each either "FREE", "BREAK", or the three-line
// course/room/faculty payload.
func buildGroupGrids(ctx *evaluator.Context, x *domain.Chromosome) []GroupGrid {
	in := ctx.Input
	grids := make([]GroupGrid, 0, len(in.StudentGroups))

	// cellByGroupSlot[group][slotIndex] = rendered cell, resolved once by scanning
	// every placement in the chromosome.
	cellByGroupSlot := make(map[domain.GroupID]map[int]string)
	for _, p := range x.Placements() {
		ev := ctx.Events[p.Event]
		room := in.Rooms[p.Room]
		payload := fmt.Sprintf("%s\n%s\n%s", string(ev.Course), room.Name, facultyDisplay(in, ev.Faculty))
		if cellByGroupSlot[ev.Group] == nil {
			cellByGroupSlot[ev.Group] = make(map[int]string)
		}
		cellByGroupSlot[ev.Group][p.Slot] = payload
	}

	for _, group := range in.StudentGroups {
		grid := GroupGrid{GroupID: string(group.ID), GroupName: group.Name}
		for h := 0; h < in.Hours; h++ {
			row := GridRow{
				TimeLabel: fmt.Sprintf("%02d:00", domain.DayStartHour+h),
				DayCells:  make([]string, in.Days),
			}
			for d := 0; d < in.Days; d++ {
				slot := domain.SlotIndex(domain.Day(d), h, in.Hours)
				switch {
				case domain.IsBreakHour(domain.Day(d), h):
					row.DayCells[d] = "BREAK"
				default:
					if cell, ok := cellByGroupSlot[group.ID][slot]; ok {
						row.DayCells[d] = cell
					} else {
						row.DayCells[d] = "FREE"
					}
				}
			}
			grid.Rows = append(grid.Rows, row)
		}
		grids = append(grids, grid)
	}
	return grids
}
