package models

import "time"

// AttendanceRecord represents a student's attendance for one calendar date.
// At most one record exists per (student, date); a repeated submission for the
// same pair updates the existing row.
type AttendanceRecord struct {
	ID           string           `json:"id"`
	StudentID    string           `json:"student_id"`
	ClassID      string           `json:"class_id"`
	TeacherID    string           `json:"teacher_id"`
	Date         CustomTime       `json:"date"`
	Status       AttendanceStatus `json:"status"`
	Subject      *string          `json:"subject,omitempty"`
	Remarks      string           `json:"remarks"`
	AcademicYear string           `json:"academic_year"`
	MarkedAt     time.Time        `json:"marked_at"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	StudentName  string           `json:"student_name,omitempty"`
}
