package database

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-ops/app/consistency"
	"school-ops/app/models"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func testYear(status models.YearStatus) *models.AcademicYear {
	return &models.AcademicYear{
		Name:      "2025-26",
		StartDate: models.CustomTime{Time: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)},
		EndDate:   models.CustomTime{Time: time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)},
		Status:    status,
	}
}

func TestCreateAcademicYearValidation(t *testing.T) {
	db, mock := newMock(t)

	t.Run("start after end", func(t *testing.T) {
		year := testYear(models.YearUpcoming)
		year.StartDate, year.EndDate = year.EndDate, year.StartDate
		err := CreateAcademicYear(db, "branch-1", year)
		require.Error(t, err)
		assert.True(t, consistency.IsValidation(err))
	})

	t.Run("bad status", func(t *testing.T) {
		year := testYear("archived")
		err := CreateAcademicYear(db, "branch-1", year)
		require.Error(t, err)
		assert.True(t, consistency.IsValidation(err))
	})

	t.Run("missing name", func(t *testing.T) {
		year := testYear(models.YearUpcoming)
		year.Name = ""
		err := CreateAcademicYear(db, "branch-1", year)
		require.Error(t, err)
		assert.True(t, consistency.IsValidation(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAcademicYearDuplicateName(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM academic_years").
		WithArgs("branch-1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("2025-26"))
	mock.ExpectRollback()

	err := CreateAcademicYear(db, "branch-1", testYear(models.YearUpcoming))
	require.Error(t, err)
	reason, ok := consistency.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, consistency.ReasonDuplicateName, reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAcademicYearRejectsSecondActive(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM academic_years").
		WithArgs("branch-1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("2024-25"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM academic_years")).
		WithArgs("branch-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	err := CreateAcademicYear(db, "branch-1", testYear(models.YearActive))
	require.Error(t, err)
	reason, ok := consistency.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, consistency.ReasonAlreadyActive, reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAcademicYearPersists(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM academic_years").
		WithArgs("branch-1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("2024-25"))
	mock.ExpectQuery("INSERT INTO academic_years").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow("year-1", now, now))
	mock.ExpectCommit()

	year := testYear(models.YearUpcoming)
	err := CreateAcademicYear(db, "branch-1", year)
	require.NoError(t, err)
	assert.Equal(t, "year-1", year.ID)
	require.NotNil(t, year.BranchID)
	assert.Equal(t, "branch-1", *year.BranchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Activation must demote the branch's active year before promoting the
// target; the ordered expectations prove the sequence.
func TestActivateAcademicYearDemotesThenPromotes(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE academic_years SET status = 'completed'").
		WithArgs("branch-1", "year-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE academic_years SET status = 'active'").
		WithArgs("branch-1", "year-2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := ActivateAcademicYear(db, "branch-1", "year-2")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A missing target must roll the demotion back so the branch keeps its
// previously active year.
func TestActivateAcademicYearMissingTargetRollsBack(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE academic_years SET status = 'completed'").
		WithArgs("branch-1", "year-9").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE academic_years SET status = 'active'").
		WithArgs("branch-1", "year-9").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := ActivateAcademicYear(db, "branch-1", "year-9")
	require.Error(t, err)
	assert.True(t, consistency.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A year owned by another branch must never match the promote; the caller
// only sees NotFound and the demotion is rolled back.
func TestActivateAcademicYearIgnoresForeignBranchYear(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE academic_years SET status = 'completed'").
		WithArgs("branch-a", "year-of-branch-b").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("AND (branch_id = $1 OR branch_id IS NULL)")).
		WithArgs("branch-a", "year-of-branch-b").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := ActivateAcademicYear(db, "branch-a", "year-of-branch-b")
	require.Error(t, err)
	assert.True(t, consistency.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveActiveYearNotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery("FROM academic_years WHERE branch_id").
		WithArgs("branch-1").
		WillReturnError(sql.ErrNoRows)

	_, err := ResolveActiveYear(db, "branch-1")
	require.Error(t, err)
	assert.True(t, consistency.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The reference check and the delete run in one transaction so a class
// created in between cannot leave a dangling year reference.
func TestDeleteAcademicYearStillReferenced(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM academic_years WHERE id").
		WithArgs("year-1", "branch-1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("2024-25"))
	mock.ExpectQuery("SELECT").
		WithArgs("2024-25").
		WillReturnRows(sqlmock.NewRows([]string{"refs"}).AddRow(3))
	mock.ExpectRollback()

	err := DeleteAcademicYear(db, "branch-1", "year-1")
	require.Error(t, err)
	assert.True(t, consistency.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAcademicYearRemovesUnreferenced(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM academic_years WHERE id").
		WithArgs("year-1", "branch-1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("2023-24"))
	mock.ExpectQuery("SELECT").
		WithArgs("2023-24").
		WillReturnRows(sqlmock.NewRows([]string{"refs"}).AddRow(0))
	mock.ExpectExec("DELETE FROM academic_years").
		WithArgs("year-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := DeleteAcademicYear(db, "branch-1", "year-1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAcademicYearForeignBranchNotVisible(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM academic_years WHERE id").
		WithArgs("year-of-branch-b", "branch-a").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := DeleteAcademicYear(db, "branch-a", "year-of-branch-b")
	require.Error(t, err)
	assert.True(t, consistency.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
