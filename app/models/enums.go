package models

// AttendanceStatus defines the possible status values for attendance.
type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
	Late    AttendanceStatus = "late"
)

// YearStatus defines the lifecycle states of an academic year.
type YearStatus string

const (
	YearUpcoming  YearStatus = "upcoming"
	YearActive    YearStatus = "active"
	YearCompleted YearStatus = "completed"
)

// ClassStatus defines the possible states of a class.
type ClassStatus string

const (
	ClassActive   ClassStatus = "active"
	ClassInactive ClassStatus = "inactive"
)

// Role defines the caller roles resolved from the identity token.
type Role string

const (
	RoleTeacher    Role = "teacher"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// DayNames maps the stored 1-7 day-of-week integers (Monday=1) to display names.
var DayNames = map[int]string{
	1: "monday",
	2: "tuesday",
	3: "wednesday",
	4: "thursday",
	5: "friday",
	6: "saturday",
	7: "sunday",
}
