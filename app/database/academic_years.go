package database

import (
	"database/sql"

	"school-ops/app/consistency"
	"school-ops/app/models"
)

// Academic Year Registry: owns the per-branch year records and the
// single-active-year invariant.

func GetAcademicYearsByBranch(db *sql.DB, branchID string) ([]*models.AcademicYear, error) {
	query := `SELECT id, branch_id, name, start_date, end_date, status, created_at, updated_at
			  FROM academic_years
			  WHERE branch_id = $1 OR branch_id IS NULL
			  ORDER BY start_date DESC`

	rows, err := db.Query(query, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	years := []*models.AcademicYear{}
	for rows.Next() {
		year := &models.AcademicYear{}
		err := rows.Scan(&year.ID, &year.BranchID, &year.Name, &year.StartDate, &year.EndDate,
			&year.Status, &year.CreatedAt, &year.UpdatedAt)
		if err != nil {
			return nil, err
		}
		years = append(years, year)
	}
	return years, rows.Err()
}

func GetAcademicYearByID(db *sql.DB, id string) (*models.AcademicYear, error) {
	query := `SELECT id, branch_id, name, start_date, end_date, status, created_at, updated_at
			  FROM academic_years WHERE id = $1`

	year := &models.AcademicYear{}
	err := db.QueryRow(query, id).Scan(&year.ID, &year.BranchID, &year.Name, &year.StartDate,
		&year.EndDate, &year.Status, &year.CreatedAt, &year.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, consistency.NotFoundf("academic year not found")
	}
	if err != nil {
		return nil, err
	}
	return year, nil
}

// CreateAcademicYear validates and persists a new year for the branch. The
// duplicate-name and single-active checks run inside the insert transaction;
// the unique indexes on (branch_id, name) and the active partial index are the
// backstop if a concurrent caller wins the race.
func CreateAcademicYear(db *sql.DB, branchID string, year *models.AcademicYear) error {
	status, err := consistency.ValidateYearStatus(string(year.Status))
	if err != nil {
		return err
	}
	year.Status = status

	if year.Name == "" {
		return consistency.Validationf("academic year name is required")
	}
	if !year.StartDate.Time.Before(year.EndDate.Time) {
		return consistency.Validationf("start date must be before end date")
	}

	tx, err := db.Begin()
	if err != nil {
		return consistency.Transaction("create academic year", err)
	}
	defer tx.Rollback()

	var names []string
	rows, err := tx.Query(`SELECT name FROM academic_years WHERE branch_id = $1`, branchID)
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
	if err := consistency.CheckDuplicateName(names, year.Name); err != nil {
		return err
	}

	if year.Status == models.YearActive {
		var activeCount int
		err = tx.QueryRow(`SELECT COUNT(*) FROM academic_years WHERE branch_id = $1 AND status = 'active'`,
			branchID).Scan(&activeCount)
		if err != nil {
			return err
		}
		if err := consistency.CheckSingleActive(activeCount); err != nil {
			return err
		}
	}

	insertQuery := `INSERT INTO academic_years (branch_id, name, start_date, end_date, status, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			  RETURNING id, created_at, updated_at`

	err = tx.QueryRow(insertQuery, branchID, year.Name, year.StartDate, year.EndDate, year.Status).
		Scan(&year.ID, &year.CreatedAt, &year.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return consistency.Conflictf(consistency.ReasonDuplicateName,
				"academic year %q already exists for this branch", year.Name)
		}
		return err
	}
	year.BranchID = &branchID

	if err := tx.Commit(); err != nil {
		return consistency.Transaction("create academic year", err)
	}
	return nil
}

// ActivateAcademicYear promotes the target year within one transaction,
// demoting the branch's currently active year first so the single-active
// invariant holds at every observable point. A missing target rolls the
// demotion back.
func ActivateAcademicYear(db *sql.DB, branchID, yearID string) error {
	tx, err := db.Begin()
	if err != nil {
		return consistency.Transaction("activate academic year", err)
	}
	defer tx.Rollback()

	demoteQuery := `UPDATE academic_years SET status = 'completed', updated_at = NOW()
			  WHERE branch_id = $1 AND status = 'active' AND id <> $2`
	if _, err := tx.Exec(demoteQuery, branchID, yearID); err != nil {
		return err
	}

	promoteQuery := `UPDATE academic_years SET status = 'active', branch_id = $1, updated_at = NOW()
			  WHERE id = $2 AND (branch_id = $1 OR branch_id IS NULL)`
	result, err := tx.Exec(promoteQuery, branchID, yearID)
	if err != nil {
		if isUniqueViolation(err) {
			return consistency.Conflictf(consistency.ReasonAlreadyActive,
				"an active academic year already exists for this branch")
		}
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return consistency.NotFoundf("academic year not found")
	}

	if err := tx.Commit(); err != nil {
		return consistency.Transaction("activate academic year", err)
	}
	return nil
}

// ResolveActiveYear returns the branch's single active year.
func ResolveActiveYear(db *sql.DB, branchID string) (*models.AcademicYear, error) {
	query := `SELECT id, branch_id, name, start_date, end_date, status, created_at, updated_at
			  FROM academic_years WHERE branch_id = $1 AND status = 'active'`

	year := &models.AcademicYear{}
	err := db.QueryRow(query, branchID).Scan(&year.ID, &year.BranchID, &year.Name, &year.StartDate,
		&year.EndDate, &year.Status, &year.CreatedAt, &year.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, consistency.NotFoundf("no active academic year for this branch")
	}
	if err != nil {
		return nil, err
	}
	return year, nil
}

// DeleteAcademicYear removes a year that nothing references. Classes and
// students reference years by name, so both are checked, inside the delete
// transaction so a concurrent class create cannot slip between check and
// delete. Years of other branches are not visible to the caller.
func DeleteAcademicYear(db *sql.DB, branchID, yearID string) error {
	tx, err := db.Begin()
	if err != nil {
		return consistency.Transaction("delete academic year", err)
	}
	defer tx.Rollback()

	var name string
	err = tx.QueryRow(`SELECT name FROM academic_years WHERE id = $1 AND (branch_id = $2 OR branch_id IS NULL)`,
		yearID, branchID).Scan(&name)
	if err == sql.ErrNoRows {
		return consistency.NotFoundf("academic year not found")
	}
	if err != nil {
		return err
	}

	refQuery := `SELECT
			(SELECT COUNT(*) FROM classes WHERE academic_year = $1) +
			(SELECT COUNT(*) FROM students s JOIN classes c ON s.class_id = c.id WHERE c.academic_year = $1)`
	var refs int
	if err := tx.QueryRow(refQuery, name).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return consistency.Conflictf("",
			"academic year %q is still referenced by classes or students", name)
	}

	if _, err := tx.Exec(`DELETE FROM academic_years WHERE id = $1`, yearID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return consistency.Transaction("delete academic year", err)
	}
	return nil
}
