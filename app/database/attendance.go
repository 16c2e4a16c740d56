package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"school-ops/app/consistency"
	"school-ops/app/models"
)

// Attendance Recorder: per-student daily entries, upserted so a repeated
// submission for the same (student, date) updates in place.

// AttendanceEntry is one student's mark within a batch submission.
type AttendanceEntry struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required"`
	Remarks   string `json:"remarks"`
}

// MarkResult reports how a batch was applied.
type MarkResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Total   int `json:"total"`
}

// MarkAttendance records a class's attendance for one date as a single atomic
// batch. The whole batch is validated before any write; each entry then does a
// lookup-then-update-or-insert on (student, date) inside the transaction. The
// unique index on (student_id, date) is the backstop if a concurrent caller
// wins the lookup-then-insert race, in which case the insert is retried as an
// update under a savepoint.
func MarkAttendance(db *sql.DB, branchID, markedBy, classID string, date time.Time, subject *string, entries []AttendanceEntry) (*MarkResult, error) {
	if len(entries) == 0 {
		return nil, consistency.Validationf("attendance entries are required")
	}

	class, err := GetClassByID(db, branchID, classID)
	if err != nil {
		return nil, err
	}

	// All-or-nothing validation before any mutation.
	statuses := make([]models.AttendanceStatus, len(entries))
	studentIDs := make([]string, len(entries))
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		status, err := consistency.ValidateAttendanceStatus(e.Status)
		if err != nil {
			return nil, err
		}
		statuses[i] = status
		if e.StudentID == "" {
			return nil, consistency.Validationf("entry %d is missing a student id", i)
		}
		if seen[e.StudentID] {
			return nil, consistency.Validationf("duplicate entry for student %s", e.StudentID)
		}
		seen[e.StudentID] = true
		studentIDs[i] = e.StudentID
	}

	known, err := knownStudents(db, classID, studentIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range studentIDs {
		if !known[id] {
			return nil, consistency.Validationf("student %s is not enrolled in this class", id)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, consistency.Transaction("mark attendance", err)
	}
	defer tx.Rollback()

	result := &MarkResult{}
	for i, e := range entries {
		created, err := upsertEntry(tx, i, class, markedBy, date, subject, e.StudentID, statuses[i], e.Remarks)
		if err != nil {
			return nil, err
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(); err != nil {
		return nil, consistency.Transaction("mark attendance", err)
	}
	return result, nil
}

func upsertEntry(tx *sql.Tx, n int, class *models.Class, markedBy string, date time.Time, subject *string, studentID string, status models.AttendanceStatus, remarks string) (created bool, err error) {
	var existingID string
	err = tx.QueryRow(`SELECT id FROM attendance_records WHERE student_id = $1 AND date = $2`,
		studentID, date).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return false, err
	}

	if err == nil {
		return false, updateEntry(tx, existingID, markedBy, status, subject, remarks)
	}

	// A failed insert aborts the surrounding Postgres transaction, so the
	// race-retry path needs a savepoint to fall back to.
	savepoint := fmt.Sprintf("attendance_entry_%d", n)
	if _, err := tx.Exec("SAVEPOINT " + savepoint); err != nil {
		return false, err
	}

	insertQuery := `INSERT INTO attendance_records (student_id, class_id, teacher_id, date, status, subject, remarks, academic_year, marked_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW(), NOW())`
	_, err = tx.Exec(insertQuery, studentID, class.ID, markedBy, date, status, subject, remarks, class.AcademicYear)
	if err == nil {
		return true, nil
	}
	if !isUniqueViolation(err) {
		return false, err
	}

	// Lost the race: another caller inserted this (student, date) first.
	if _, err := tx.Exec("ROLLBACK TO SAVEPOINT " + savepoint); err != nil {
		return false, err
	}
	err = tx.QueryRow(`SELECT id FROM attendance_records WHERE student_id = $1 AND date = $2`,
		studentID, date).Scan(&existingID)
	if err != nil {
		return false, err
	}
	return false, updateEntry(tx, existingID, markedBy, status, subject, remarks)
}

func updateEntry(tx *sql.Tx, id, markedBy string, status models.AttendanceStatus, subject *string, remarks string) error {
	_, err := tx.Exec(
		`UPDATE attendance_records SET status = $1, subject = $2, remarks = $3, teacher_id = $4, marked_at = NOW(), updated_at = NOW() WHERE id = $5`,
		status, subject, remarks, markedBy, id,
	)
	return err
}

func knownStudents(db *sql.DB, classID string, studentIDs []string) (map[string]bool, error) {
	rows, err := db.Query(
		`SELECT id FROM students WHERE id = ANY($1) AND class_id = $2 AND is_active = true`,
		pq.Array(studentIDs), classID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]bool, len(studentIDs))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		known[id] = true
	}
	return known, rows.Err()
}

// UpdateAttendanceRecord is the single-row correction path; only the status
// enum is re-validated. The record is addressed through its class so callers
// can only touch records of their own branch.
func UpdateAttendanceRecord(db *sql.DB, branchID, id, status string, subject *string, remarks string) error {
	normalized, err := consistency.ValidateAttendanceStatus(status)
	if err != nil {
		return err
	}

	result, err := db.Exec(
		`UPDATE attendance_records AS a
		 SET status = $1, subject = $2, remarks = $3, marked_at = NOW(), updated_at = NOW()
		 FROM classes c
		 WHERE a.id = $4 AND a.class_id = c.id AND c.branch_id = $5`,
		normalized, subject, remarks, id, branchID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return consistency.NotFoundf("attendance record not found")
	}
	return nil
}

// GetAttendanceByClassAndDate lists a class's records for one date.
func GetAttendanceByClassAndDate(db *sql.DB, branchID, classID string, date time.Time) ([]*models.AttendanceRecord, error) {
	query := `SELECT a.id, a.student_id, a.class_id, a.teacher_id, a.date, a.status, a.subject,
			  a.remarks, a.academic_year, a.marked_at, a.created_at, a.updated_at,
			  s.first_name || ' ' || s.last_name AS student_name
			  FROM attendance_records a
			  JOIN students s ON a.student_id = s.id
			  JOIN classes c ON a.class_id = c.id
			  WHERE a.class_id = $1 AND c.branch_id = $2 AND a.date = $3
			  ORDER BY student_name`

	rows, err := db.Query(query, classID, branchID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*models.AttendanceRecord{}
	for rows.Next() {
		rec := &models.AttendanceRecord{}
		err := rows.Scan(&rec.ID, &rec.StudentID, &rec.ClassID, &rec.TeacherID, &rec.Date,
			&rec.Status, &rec.Subject, &rec.Remarks, &rec.AcademicYear, &rec.MarkedAt,
			&rec.CreatedAt, &rec.UpdatedAt, &rec.StudentName)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetStudentsByClass returns the active roster used when marking attendance.
func GetStudentsByClass(db *sql.DB, branchID, classID string) ([]*models.Student, error) {
	query := `SELECT id, branch_id, class_id, first_name, last_name, is_active, created_at, updated_at
			  FROM students
			  WHERE class_id = $1 AND branch_id = $2 AND is_active = true
			  ORDER BY first_name, last_name`

	rows, err := db.Query(query, classID, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		s := &models.Student{}
		err := rows.Scan(&s.ID, &s.BranchID, &s.ClassID, &s.FirstName, &s.LastName,
			&s.IsActive, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}
