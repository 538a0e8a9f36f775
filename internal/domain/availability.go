package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// HourRange is a half-open [Start, End) range of absolute clock hours, e.g.
// 09:00-12:00 parses to {9, 12} and matches hours 9, 10, 11.
type HourRange struct {
	Start int
	End   int
}

// Contains reports whether hour falls in [Start, End).
func (r HourRange) Contains(hour int) bool {
	return hour >= r.Start && hour < r.End
}

// Availability is the parsed form of a faculty's avail_days/avail_times
// pair. Parsing happens once, at ingestion (NewInput); the evaluator only
// ever performs integer/bitset comparisons against it, per the §9 redesign
// note against dynamic string parsing on the hot path.
type Availability struct {
	All      bool
	Days     [DaysPerWeek]bool
	Windows  []HourRange
	Malformed bool // true if the raw spec could not be parsed; treated as unavailable
}

// Allows reports whether the availability spec permits day/hour.
func (a Availability) Allows(day Day, hour int) bool {
	if a.Malformed {
		return false
	}
	if !a.All && !a.Days[day] {
		return false
	}
	if len(a.Windows) == 0 {
		return true
	}
	for _, w := range a.Windows {
		if w.Contains(hour) {
			return true
		}
	}
	return false
}

// ParseAvailDays parses the "ALL" sentinel or a comma-separated list of day
// abbreviations into an Availability's day component.
func ParseAvailDays(raw string) (all bool, days [DaysPerWeek]bool, malformed bool) {
	trimmed := strings.TrimSpace(raw)
	if equalFold(trimmed, "ALL") {
		return true, days, false
	}
	if trimmed == "" {
		return false, days, true
	}
	for _, part := range strings.Split(trimmed, ",") {
		d, ok := ParseDay(strings.TrimSpace(part))
		if !ok {
			return false, days, true
		}
		days[d] = true
	}
	return false, days, false
}

// ParseAvailTimes parses the "ALL" sentinel, a singleton "HH:MM", or a
// half-open range "HH:MM-HH:MM" into zero or more HourRanges. An empty
// Windows slice (with malformed=false) means "all hours" once combined with
// a non-malformed day spec.
func ParseAvailTimes(raw string) (windows []HourRange, malformed bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || equalFold(trimmed, "ALL") {
		return nil, false
	}
	parts := strings.SplitN(trimmed, "-", 2)
	if len(parts) == 1 {
		h, err := parseHour(parts[0])
		if err != nil {
			return nil, true
		}
		return []HourRange{{Start: h, End: h + 1}}, false
	}
	start, err := parseHour(parts[0])
	if err != nil {
		return nil, true
	}
	end, err := parseHour(parts[1])
	if err != nil {
		return nil, true
	}
	if end <= start {
		return nil, true
	}
	return []HourRange{{Start: start, End: end}}, false
}

func parseHour(hhmm string) (int, error) {
	hhmm = strings.TrimSpace(hhmm)
	colon := strings.IndexByte(hhmm, ':')
	if colon != 2 || len(hhmm) != 5 {
		return 0, fmt.Errorf("malformed time %q", hhmm)
	}
	h, err := strconv.Atoi(hhmm[:2])
	if err != nil {
		return 0, err
	}
	if _, err := strconv.Atoi(hhmm[3:]); err != nil {
		return 0, err
	}
	return h, nil
}

// NewAvailability builds an Availability from raw day/time specs, following
// the same format rules the evaluator relies on.
func NewAvailability(rawDays, rawTimes string) Availability {
	all, days, daysMalformed := ParseAvailDays(rawDays)
	windows, timesMalformed := ParseAvailTimes(rawTimes)
	return Availability{
		All:       all,
		Days:      days,
		Windows:   windows,
		Malformed: daysMalformed || timesMalformed,
	}
}
