package database

import (
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-ops/app/consistency"
	"school-ops/app/models"
)

func testClass(name string) *models.Class {
	return &models.Class{
		Name:         name,
		Standard:     "P2",
		Capacity:     30,
		Room:         "R2",
		Semester:     "S1",
		AcademicYear: "2024-25",
	}
}

func expectActiveYear(mock sqlmock.Sqlmock, name string) {
	now := time.Now()
	mock.ExpectQuery("FROM academic_years WHERE branch_id").
		WithArgs("branch-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "branch_id", "name", "start_date", "end_date", "status", "created_at", "updated_at",
		}).AddRow("year-1", "branch-1", name, now, now, "active", now, now))
}

func classRows(names ...string) *sqlmock.Rows {
	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "branch_id", "name", "standard", "teacher_id", "capacity", "room",
		"schedule", "semester", "academic_year", "status", "created_at", "updated_at", "student_count",
	})
	for i, name := range names {
		rows.AddRow("class-"+name, "branch-1", name, "P"+name, nil, 30+i, "R"+name,
			"", "S1", "2024-25", "active", now, now, 12)
	}
	return rows
}

func TestRolloverCreatesAllClasses(t *testing.T) {
	db, mock := newMock(t)

	expectActiveYear(mock, "2024-25")
	mock.ExpectQuery("FROM classes c").
		WithArgs("branch-1", "2024-25").
		WillReturnRows(classRows("1", "2", "3"))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes")).
		WithArgs("branch-1", "2025-26").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	for i := 0; i < 3; i++ {
		mock.ExpectExec("INSERT INTO classes").
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	result, err := RolloverClasses(db, "branch-1", "2025-26")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, "2024-25", result.SourceYear)
	assert.Equal(t, "2025-26", result.TargetYear)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A second rollover to the same target year must fail before inserting
// anything.
func TestRolloverIdempotenceGuard(t *testing.T) {
	db, mock := newMock(t)

	expectActiveYear(mock, "2024-25")
	mock.ExpectQuery("FROM classes c").
		WithArgs("branch-1", "2024-25").
		WillReturnRows(classRows("1", "2", "3"))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes")).
		WithArgs("branch-1", "2025-26").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	_, err := RolloverClasses(db, "branch-1", "2025-26")
	require.Error(t, err)
	reason, ok := consistency.ReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, consistency.ReasonDuplicateName, reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A failure on any row must leave zero new classes for the target year.
func TestRolloverFailureRollsBackWholeBatch(t *testing.T) {
	db, mock := newMock(t)

	expectActiveYear(mock, "2024-25")
	mock.ExpectQuery("FROM classes c").
		WithArgs("branch-1", "2024-25").
		WillReturnRows(classRows("1", "2", "3"))

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM classes")).
		WithArgs("branch-1", "2025-26").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec("INSERT INTO classes").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO classes").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := RolloverClasses(db, "branch-1", "2025-26")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRolloverWithoutActiveYear(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery("FROM academic_years WHERE branch_id").
		WithArgs("branch-1").
		WillReturnError(sql.ErrNoRows)

	_, err := RolloverClasses(db, "branch-1", "2025-26")
	require.Error(t, err)
	assert.True(t, consistency.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRolloverWithoutClasses(t *testing.T) {
	db, mock := newMock(t)

	expectActiveYear(mock, "2024-25")
	mock.ExpectQuery("FROM classes c").
		WithArgs("branch-1", "2024-25").
		WillReturnRows(classRows())

	_, err := RolloverClasses(db, "branch-1", "2025-26")
	require.Error(t, err)
	assert.True(t, consistency.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateClassTeacherExclusivity(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT name FROM classes").
		WithArgs("branch-1", "2024-25").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Primary One"))
	mock.ExpectQuery("SELECT name FROM classes").
		WithArgs("branch-1", "2024-25", "teacher-1", "").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Primary One"))
	mock.ExpectRollback()

	teacherID := "teacher-1"
	class := testClass("Primary Two")
	class.TeacherID = &teacherID

	err := CreateClass(db, "branch-1", class)
	require.Error(t, err)
	kind, _ := consistency.KindOf(err)
	assert.Equal(t, consistency.KindExclusivity, kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteClassBlockedBySlots(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("FROM classes WHERE id").
		WithArgs("class-1", "branch-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "branch_id", "name", "standard", "teacher_id", "capacity", "room",
			"schedule", "semester", "academic_year", "status", "created_at", "updated_at",
		}).AddRow("class-1", "branch-1", "Primary One", "P1", nil, 30, "R1", "", "S1", "2024-25", "active", now, now))
	mock.ExpectQuery("SELECT").
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"students", "slots"}).AddRow(0, 4))

	err := DeleteClass(db, "branch-1", "class-1")
	require.Error(t, err)
	assert.True(t, consistency.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
