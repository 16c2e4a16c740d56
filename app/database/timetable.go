package database

import (
	"database/sql"

	"school-ops/app/consistency"
	"school-ops/app/models"
)

// Timetable Allocator: slot mutations for one class, validated against the
// class's sibling slots inside the same transaction so two concurrent callers
// cannot both pass the overlap check.

// SlotRequest carries the caller-supplied fields of a slot mutation.
type SlotRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	Subject   string `json:"subject" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	Room      string `json:"room"`
}

func (r *SlotRequest) validate() error {
	if r.Subject == "" {
		return consistency.Validationf("subject is required")
	}
	if err := consistency.ValidateDayOfWeek(r.DayOfWeek); err != nil {
		return err
	}
	return consistency.ValidateTimeRange(r.StartTime, r.EndTime)
}

// classScope is the slice of class state slot mutations depend on.
type classScope struct {
	ID           string
	AcademicYear string
	Semester     string
}

func classForUpdate(tx *sql.Tx, branchID, classID string) (*classScope, error) {
	var cs classScope
	err := tx.QueryRow(
		`SELECT id, academic_year, semester FROM classes WHERE id = $1 AND branch_id = $2 AND status = 'active'`,
		classID, branchID,
	).Scan(&cs.ID, &cs.AcademicYear, &cs.Semester)
	if err == sql.ErrNoRows {
		return nil, consistency.NotFoundf("class not found")
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func validateTeacher(tx *sql.Tx, branchID, teacherID string) error {
	var role models.Role
	var isActive bool
	var teacherBranch string
	err := tx.QueryRow(`SELECT role, is_active, branch_id FROM users WHERE id = $1`, teacherID).
		Scan(&role, &isActive, &teacherBranch)
	if err == sql.ErrNoRows {
		return consistency.Validationf("teacher not found")
	}
	if err != nil {
		return err
	}
	if role != models.RoleTeacher {
		return consistency.Validationf("user is not a teacher")
	}
	if !isActive {
		return consistency.Validationf("teacher is not active")
	}
	if teacherBranch != branchID {
		return consistency.Validationf("teacher belongs to a different branch")
	}
	return nil
}

// siblingSlots loads the [start,end) intervals of the class's slots on a day.
func siblingSlots(tx *sql.Tx, classID string, dayOfWeek int) ([]consistency.Interval, error) {
	rows, err := tx.Query(
		`SELECT id, start_time, end_time FROM timetable_slots WHERE class_id = $1 AND day_of_week = $2`,
		classID, dayOfWeek,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var siblings []consistency.Interval
	for rows.Next() {
		var iv consistency.Interval
		if err := rows.Scan(&iv.ID, &iv.Start, &iv.End); err != nil {
			return nil, err
		}
		siblings = append(siblings, iv)
	}
	return siblings, rows.Err()
}

// AllocateSlot inserts a new slot after the ownership, field, teacher and
// overlap checks pass. Only the class's own slots are consulted: a teacher may
// be scheduled in two different classes at the same time.
func AllocateSlot(db *sql.DB, branchID string, req *SlotRequest) (*models.TimetableSlot, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, consistency.Transaction("allocate slot", err)
	}
	defer tx.Rollback()

	class, err := classForUpdate(tx, branchID, req.ClassID)
	if err != nil {
		return nil, err
	}
	if err := validateTeacher(tx, branchID, req.TeacherID); err != nil {
		return nil, err
	}

	siblings, err := siblingSlots(tx, class.ID, req.DayOfWeek)
	if err != nil {
		return nil, err
	}
	candidate := consistency.Interval{Start: req.StartTime, End: req.EndTime}
	if err := consistency.CheckSlotOverlap(siblings, candidate); err != nil {
		return nil, err
	}

	slot := &models.TimetableSlot{
		ClassID:      class.ID,
		BranchID:     branchID,
		Subject:      req.Subject,
		TeacherID:    req.TeacherID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Room:         req.Room,
		AcademicYear: class.AcademicYear,
		Semester:     class.Semester,
	}

	insertQuery := `INSERT INTO timetable_slots (class_id, branch_id, subject, teacher_id, day_of_week, start_time, end_time, room, academic_year, semester, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			  RETURNING id, created_at, updated_at`

	err = tx.QueryRow(insertQuery, slot.ClassID, slot.BranchID, slot.Subject, slot.TeacherID,
		slot.DayOfWeek, slot.StartTime, slot.EndTime, slot.Room, slot.AcademicYear, slot.Semester).
		Scan(&slot.ID, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, consistency.Transaction("allocate slot", err)
	}
	slot.DayName = models.DayNames[slot.DayOfWeek]
	return slot, nil
}

// UpdateSlot re-runs the allocation checks with the slot itself excluded from
// the overlap query.
func UpdateSlot(db *sql.DB, branchID, slotID string, req *SlotRequest) (*models.TimetableSlot, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, consistency.Transaction("update slot", err)
	}
	defer tx.Rollback()

	var classID string
	err = tx.QueryRow(`SELECT class_id FROM timetable_slots WHERE id = $1 AND branch_id = $2`,
		slotID, branchID).Scan(&classID)
	if err == sql.ErrNoRows {
		return nil, consistency.NotFoundf("timetable slot not found")
	}
	if err != nil {
		return nil, err
	}

	class, err := classForUpdate(tx, branchID, classID)
	if err != nil {
		return nil, err
	}
	if err := validateTeacher(tx, branchID, req.TeacherID); err != nil {
		return nil, err
	}

	siblings, err := siblingSlots(tx, class.ID, req.DayOfWeek)
	if err != nil {
		return nil, err
	}
	candidate := consistency.Interval{ID: slotID, Start: req.StartTime, End: req.EndTime}
	if err := consistency.CheckSlotOverlap(siblings, candidate); err != nil {
		return nil, err
	}

	slot := &models.TimetableSlot{
		ID:           slotID,
		ClassID:      class.ID,
		BranchID:     branchID,
		Subject:      req.Subject,
		TeacherID:    req.TeacherID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Room:         req.Room,
		AcademicYear: class.AcademicYear,
		Semester:     class.Semester,
	}

	updateQuery := `UPDATE timetable_slots
			  SET subject = $1, teacher_id = $2, day_of_week = $3, start_time = $4, end_time = $5, room = $6, updated_at = NOW()
			  WHERE id = $7
			  RETURNING created_at, updated_at`

	err = tx.QueryRow(updateQuery, slot.Subject, slot.TeacherID, slot.DayOfWeek,
		slot.StartTime, slot.EndTime, slot.Room, slotID).
		Scan(&slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, consistency.Transaction("update slot", err)
	}
	slot.DayName = models.DayNames[slot.DayOfWeek]
	return slot, nil
}

// DeleteSlot is unconditional once ownership is verified; nothing references a
// slot.
func DeleteSlot(db *sql.DB, branchID, slotID string) error {
	result, err := db.Exec(`DELETE FROM timetable_slots WHERE id = $1 AND branch_id = $2`, slotID, branchID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return consistency.NotFoundf("timetable slot not found")
	}
	return nil
}

// GetSlotsByClass lists a class's slots ordered for weekly display.
func GetSlotsByClass(db *sql.DB, branchID, classID string) ([]*models.TimetableSlot, error) {
	query := `SELECT ts.id, ts.class_id, ts.branch_id, ts.subject, ts.teacher_id, ts.day_of_week,
			  ts.start_time, ts.end_time, ts.room, ts.academic_year, ts.semester, ts.created_at, ts.updated_at,
			  u.first_name || ' ' || u.last_name AS teacher_name
			  FROM timetable_slots ts
			  LEFT JOIN users u ON ts.teacher_id = u.id
			  WHERE ts.class_id = $1 AND ts.branch_id = $2
			  ORDER BY ts.day_of_week, ts.start_time`

	rows, err := db.Query(query, classID, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := []*models.TimetableSlot{}
	for rows.Next() {
		slot := &models.TimetableSlot{}
		err := rows.Scan(&slot.ID, &slot.ClassID, &slot.BranchID, &slot.Subject, &slot.TeacherID,
			&slot.DayOfWeek, &slot.StartTime, &slot.EndTime, &slot.Room, &slot.AcademicYear,
			&slot.Semester, &slot.CreatedAt, &slot.UpdatedAt, &slot.TeacherName)
		if err != nil {
			return nil, err
		}
		slot.DayName = models.DayNames[slot.DayOfWeek]
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}
