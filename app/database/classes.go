package database

import (
	"database/sql"

	"school-ops/app/consistency"
	"school-ops/app/models"
)

func GetClassesByBranch(db *sql.DB, branchID, academicYear string) ([]*models.Class, error) {
	query := `SELECT c.id, c.branch_id, c.name, c.standard, c.teacher_id, c.capacity, c.room,
			  c.schedule, c.semester, c.academic_year, c.status, c.created_at, c.updated_at,
			  COALESCE(s.student_count, 0) AS student_count
			  FROM classes c
			  LEFT JOIN (
				  SELECT class_id, COUNT(*) AS student_count
				  FROM students
				  WHERE is_active = true
				  GROUP BY class_id
			  ) s ON c.id = s.class_id
			  WHERE c.branch_id = $1 AND ($2 = '' OR c.academic_year = $2)
			  ORDER BY c.name`

	rows, err := db.Query(query, branchID, academicYear)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := []*models.Class{}
	for rows.Next() {
		class := &models.Class{}
		err := rows.Scan(&class.ID, &class.BranchID, &class.Name, &class.Standard, &class.TeacherID,
			&class.Capacity, &class.Room, &class.Schedule, &class.Semester, &class.AcademicYear,
			&class.Status, &class.CreatedAt, &class.UpdatedAt, &class.StudentCount)
		if err != nil {
			return nil, err
		}
		classes = append(classes, class)
	}
	return classes, rows.Err()
}

func GetClassByID(db *sql.DB, branchID, classID string) (*models.Class, error) {
	query := `SELECT id, branch_id, name, standard, teacher_id, capacity, room, schedule,
			  semester, academic_year, status, created_at, updated_at
			  FROM classes WHERE id = $1 AND branch_id = $2`

	class := &models.Class{}
	err := db.QueryRow(query, classID, branchID).Scan(&class.ID, &class.BranchID, &class.Name,
		&class.Standard, &class.TeacherID, &class.Capacity, &class.Room, &class.Schedule,
		&class.Semester, &class.AcademicYear, &class.Status, &class.CreatedAt, &class.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, consistency.NotFoundf("class not found")
	}
	if err != nil {
		return nil, err
	}
	return class, nil
}

// teacherAssignedClass returns the name of another class in the same branch
// and year that the teacher is already class teacher of, or "".
func teacherAssignedClass(tx *sql.Tx, branchID, academicYear, teacherID, excludeClassID string) (string, error) {
	var name string
	err := tx.QueryRow(
		`SELECT name FROM classes
		 WHERE branch_id = $1 AND academic_year = $2 AND teacher_id = $3 AND status = 'active' AND id <> $4
		 LIMIT 1`,
		branchID, academicYear, teacherID, excludeClassID,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// CreateClass persists a class after the duplicate-name and
// teacher-exclusivity checks pass inside the insert transaction.
func CreateClass(db *sql.DB, branchID string, class *models.Class) error {
	if class.Name == "" {
		return consistency.Validationf("class name is required")
	}
	if class.AcademicYear == "" {
		return consistency.Validationf("academic year is required")
	}
	if class.Status == "" {
		class.Status = models.ClassActive
	}

	tx, err := db.Begin()
	if err != nil {
		return consistency.Transaction("create class", err)
	}
	defer tx.Rollback()

	var names []string
	rows, err := tx.Query(`SELECT name FROM classes WHERE branch_id = $1 AND academic_year = $2`,
		branchID, class.AcademicYear)
	if err != nil {
		return err
	}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return err
		}
		names = append(names, n)
	}
	rows.Close()
	if err := consistency.CheckDuplicateName(names, class.Name); err != nil {
		return err
	}

	if class.TeacherID != nil && *class.TeacherID != "" {
		assigned, err := teacherAssignedClass(tx, branchID, class.AcademicYear, *class.TeacherID, "")
		if err != nil {
			return err
		}
		if err := consistency.CheckTeacherExclusivity(assigned); err != nil {
			return err
		}
	}

	insertQuery := `INSERT INTO classes (branch_id, name, standard, teacher_id, capacity, room, schedule, semester, academic_year, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			  RETURNING id, created_at, updated_at`

	err = tx.QueryRow(insertQuery, branchID, class.Name, class.Standard, class.TeacherID,
		class.Capacity, class.Room, class.Schedule, class.Semester, class.AcademicYear, class.Status).
		Scan(&class.ID, &class.CreatedAt, &class.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return consistency.Conflictf(consistency.ReasonDuplicateName,
				"class %q already exists for this branch and year", class.Name)
		}
		return err
	}
	class.BranchID = branchID

	if err := tx.Commit(); err != nil {
		return consistency.Transaction("create class", err)
	}
	return nil
}

// UpdateClass re-runs the create-time checks excluding the class itself.
func UpdateClass(db *sql.DB, branchID string, class *models.Class) error {
	if class.Name == "" {
		return consistency.Validationf("class name is required")
	}

	tx, err := db.Begin()
	if err != nil {
		return consistency.Transaction("update class", err)
	}
	defer tx.Rollback()

	current, err := classYearInBranch(tx, branchID, class.ID)
	if err != nil {
		return err
	}

	var names []string
	rows, err := tx.Query(`SELECT name FROM classes WHERE branch_id = $1 AND academic_year = $2 AND id <> $3`,
		branchID, current, class.ID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return err
		}
		names = append(names, n)
	}
	rows.Close()
	if err := consistency.CheckDuplicateName(names, class.Name); err != nil {
		return err
	}

	if class.TeacherID != nil && *class.TeacherID != "" {
		assigned, err := teacherAssignedClass(tx, branchID, current, *class.TeacherID, class.ID)
		if err != nil {
			return err
		}
		if err := consistency.CheckTeacherExclusivity(assigned); err != nil {
			return err
		}
	}

	updateQuery := `UPDATE classes
			  SET name = $1, standard = $2, teacher_id = $3, capacity = $4, room = $5, schedule = $6, semester = $7, status = $8, updated_at = NOW()
			  WHERE id = $9 AND branch_id = $10`

	if _, err := tx.Exec(updateQuery, class.Name, class.Standard, class.TeacherID, class.Capacity,
		class.Room, class.Schedule, class.Semester, class.Status, class.ID, branchID); err != nil {
		if isUniqueViolation(err) {
			return consistency.Conflictf(consistency.ReasonDuplicateName,
				"class %q already exists for this branch and year", class.Name)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return consistency.Transaction("update class", err)
	}
	return nil
}

func classYearInBranch(tx *sql.Tx, branchID, classID string) (string, error) {
	var year string
	err := tx.QueryRow(`SELECT academic_year FROM classes WHERE id = $1 AND branch_id = $2`,
		classID, branchID).Scan(&year)
	if err == sql.ErrNoRows {
		return "", consistency.NotFoundf("class not found")
	}
	return year, err
}

// DeleteClass removes a class only when it has no active enrollments and no
// timetable slots.
func DeleteClass(db *sql.DB, branchID, classID string) error {
	if _, err := GetClassByID(db, branchID, classID); err != nil {
		return err
	}

	var students, slots int
	err := db.QueryRow(
		`SELECT
			(SELECT COUNT(*) FROM students WHERE class_id = $1 AND is_active = true),
			(SELECT COUNT(*) FROM timetable_slots WHERE class_id = $1)`,
		classID,
	).Scan(&students, &slots)
	if err != nil {
		return err
	}
	if students > 0 {
		return consistency.Conflictf("", "class has %d active student enrollments", students)
	}
	if slots > 0 {
		return consistency.Conflictf("", "class has %d timetable slots", slots)
	}

	_, err = db.Exec(`DELETE FROM classes WHERE id = $1 AND branch_id = $2`, classID, branchID)
	return err
}

// RolloverResult reports what a roster rollover created.
type RolloverResult struct {
	Created    int    `json:"created"`
	SourceYear string `json:"source_year"`
	TargetYear string `json:"target_year"`
}

// RolloverClasses duplicates the branch's active-year roster into newYearName
// as one atomic batch. Slots and attendance are year-specific and are not
// copied.
func RolloverClasses(db *sql.DB, branchID, newYearName string) (*RolloverResult, error) {
	if newYearName == "" {
		return nil, consistency.Validationf("target academic year name is required")
	}

	source, err := ResolveActiveYear(db, branchID)
	if err != nil {
		if consistency.IsNotFound(err) {
			return nil, consistency.Validationf("no active academic year for this branch")
		}
		return nil, err
	}

	classes, err := GetClassesByBranch(db, branchID, source.Name)
	if err != nil {
		return nil, err
	}
	active := classes[:0]
	for _, c := range classes {
		if c.Status == models.ClassActive {
			active = append(active, c)
		}
	}
	if len(active) == 0 {
		return nil, consistency.NotFoundf("no active classes to roll over for year %q", source.Name)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, consistency.Transaction("rollover classes", err)
	}
	defer tx.Rollback()

	// Idempotence guard, re-checked inside the transaction: a second rollover
	// to the same target year must fail before inserting anything.
	var existing int
	err = tx.QueryRow(`SELECT COUNT(*) FROM classes WHERE branch_id = $1 AND academic_year = $2`,
		branchID, newYearName).Scan(&existing)
	if err != nil {
		return nil, err
	}
	if existing > 0 {
		return nil, consistency.Conflictf(consistency.ReasonDuplicateName,
			"classes already exist for year %q, rollover already ran", newYearName)
	}

	insertQuery := `INSERT INTO classes (branch_id, name, standard, teacher_id, capacity, room, schedule, semester, academic_year, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'active', NOW(), NOW())`

	created := 0
	for _, c := range active {
		_, err := tx.Exec(insertQuery, branchID, c.Name, c.Standard, c.TeacherID, c.Capacity,
			c.Room, c.Schedule, c.Semester, newYearName)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, consistency.Conflictf(consistency.ReasonDuplicateName,
					"class %q already exists for year %q", c.Name, newYearName)
			}
			return nil, err
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return nil, consistency.Transaction("rollover classes", err)
	}

	return &RolloverResult{Created: created, SourceYear: source.Name, TargetYear: newYearName}, nil
}
