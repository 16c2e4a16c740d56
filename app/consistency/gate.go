package consistency

import (
	"strings"
	"time"

	"school-ops/app/models"
)

// The gate takes a proposed mutation plus the entity's current persisted
// siblings and returns nil or a typed conflict. All engines route their
// invariant checks through here so the error vocabulary stays uniform.

// Interval is a half-open [Start,End) wall-clock time range.
type Interval struct {
	ID    string
	Start string
	End   string
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && i.End > other.Start
}

// ValidateTimeRange checks HH:MM formatting and start < end.
func ValidateTimeRange(start, end string) error {
	if _, err := time.Parse("15:04", start); err != nil {
		return Validationf("invalid start time %q, expected HH:MM", start)
	}
	if _, err := time.Parse("15:04", end); err != nil {
		return Validationf("invalid end time %q, expected HH:MM", end)
	}
	if start >= end {
		return Validationf("start time must be before end time")
	}
	return nil
}

// ValidateDayOfWeek checks the 1-7 (Monday=1) range.
func ValidateDayOfWeek(day int) error {
	if day < 1 || day > 7 {
		return Validationf("day_of_week must be between 1 and 7, got %d", day)
	}
	return nil
}

// ValidateAttendanceStatus normalizes and checks the attendance enum.
func ValidateAttendanceStatus(status string) (models.AttendanceStatus, error) {
	switch models.AttendanceStatus(strings.ToLower(status)) {
	case models.Present:
		return models.Present, nil
	case models.Absent:
		return models.Absent, nil
	case models.Late:
		return models.Late, nil
	default:
		return "", Validationf("invalid attendance status %q, must be present, absent or late", status)
	}
}

// ValidateYearStatus checks the academic year lifecycle enum.
func ValidateYearStatus(status string) (models.YearStatus, error) {
	switch models.YearStatus(strings.ToLower(status)) {
	case models.YearUpcoming:
		return models.YearUpcoming, nil
	case models.YearActive:
		return models.YearActive, nil
	case models.YearCompleted:
		return models.YearCompleted, nil
	default:
		return "", Validationf("invalid academic year status %q, must be upcoming, active or completed", status)
	}
}

// CheckSlotOverlap rejects the candidate interval if it intersects any sibling
// slot of the same class and day. The candidate's own ID is skipped so updates
// do not collide with themselves.
func CheckSlotOverlap(siblings []Interval, candidate Interval) error {
	for _, s := range siblings {
		if candidate.ID != "" && s.ID == candidate.ID {
			continue
		}
		if s.Overlaps(candidate) {
			return Conflictf(ReasonOverlap, "time conflict: overlaps existing slot %s-%s", s.Start, s.End)
		}
	}
	return nil
}

// CheckDuplicateName rejects a name already taken among siblings
// (case-insensitive, the way class and year names are compared).
func CheckDuplicateName(existing []string, name string) error {
	for _, n := range existing {
		if strings.EqualFold(n, name) {
			return Conflictf(ReasonDuplicateName, "name %q is already in use", name)
		}
	}
	return nil
}

// CheckSingleActive rejects an activation when the branch already holds an
// active year.
func CheckSingleActive(activeCount int) error {
	if activeCount > 0 {
		return Conflictf(ReasonAlreadyActive, "an active academic year already exists for this branch")
	}
	return nil
}

// CheckTeacherExclusivity rejects assigning a teacher who is already the class
// teacher of another class in the same branch and year. assignedTo is the name
// of that class, empty when the teacher is free.
func CheckTeacherExclusivity(assignedTo string) error {
	if assignedTo != "" {
		return Exclusivityf("teacher is already assigned to class %q for this academic year", assignedTo)
	}
	return nil
}
