package models

import "time"

// TimetableSlot is a weekly recurring lesson for one class.
// Times are wall-clock HH:MM values; day_of_week is 1-7 with Monday=1.
// For a fixed class and day no two slots may overlap as [start,end) intervals.
type TimetableSlot struct {
	ID           string    `json:"id"`
	ClassID      string    `json:"class_id"`
	BranchID     string    `json:"branch_id"`
	Subject      string    `json:"subject"`
	TeacherID    string    `json:"teacher_id"`
	DayOfWeek    int       `json:"day_of_week"`
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	Room         string    `json:"room"`
	AcademicYear string    `json:"academic_year"`
	Semester     string    `json:"semester"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	TeacherName  string    `json:"teacher_name,omitempty"`
	DayName      string    `json:"day_name,omitempty"`
}
