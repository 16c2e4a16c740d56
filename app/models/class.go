package models

import "time"

// Class is a branch-scoped roster unit bound to one academic year by name.
type Class struct {
	ID           string      `json:"id"`
	BranchID     string      `json:"branch_id"`
	Name         string      `json:"name" validate:"required"`
	Standard     string      `json:"standard"`
	TeacherID    *string     `json:"teacher_id,omitempty"`
	Capacity     int         `json:"capacity"`
	Room         string      `json:"room"`
	Schedule     string      `json:"schedule"`
	Semester     string      `json:"semester"`
	AcademicYear string      `json:"academic_year"`
	Status       ClassStatus `json:"status"`
	StudentCount int         `json:"student_count,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	Teacher      *User       `json:"teacher,omitempty"`
}
