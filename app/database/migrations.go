package database

import (
	"database/sql"
	"log"
)

// RunMigrations applies the schema idempotently on startup.
func RunMigrations(db *sql.DB) error {
	log.Println("Running database migrations...")

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			branch_id UUID NOT NULL,
			role TEXT NOT NULL DEFAULT 'teacher',
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS academic_years (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			branch_id UUID,
			name TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			status TEXT NOT NULL DEFAULT 'upcoming',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_academic_years_branch_name
			ON academic_years (branch_id, name)`,
		// Backstop for the single-active-year invariant; the activate
		// transaction is the primary enforcement.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_academic_years_one_active
			ON academic_years (branch_id) WHERE status = 'active'`,

		`CREATE TABLE IF NOT EXISTS classes (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			branch_id UUID NOT NULL,
			name TEXT NOT NULL,
			standard TEXT NOT NULL DEFAULT '',
			teacher_id UUID REFERENCES users(id),
			capacity INTEGER NOT NULL DEFAULT 0,
			room TEXT NOT NULL DEFAULT '',
			schedule TEXT NOT NULL DEFAULT '',
			semester TEXT NOT NULL DEFAULT '',
			academic_year TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_classes_branch_year_name
			ON classes (branch_id, academic_year, LOWER(name))`,

		`CREATE TABLE IF NOT EXISTS students (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			branch_id UUID NOT NULL,
			class_id UUID REFERENCES classes(id) ON DELETE SET NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS timetable_slots (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
			branch_id UUID NOT NULL,
			subject TEXT NOT NULL,
			teacher_id UUID NOT NULL REFERENCES users(id),
			day_of_week INTEGER NOT NULL CHECK (day_of_week BETWEEN 1 AND 7),
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			room TEXT NOT NULL DEFAULT '',
			academic_year TEXT NOT NULL,
			semester TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_timetable_slots_class_day
			ON timetable_slots (class_id, day_of_week)`,

		`CREATE TABLE IF NOT EXISTS attendance_records (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			student_id UUID NOT NULL REFERENCES students(id),
			class_id UUID NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
			teacher_id UUID NOT NULL,
			date DATE NOT NULL,
			status TEXT NOT NULL,
			subject TEXT,
			remarks TEXT NOT NULL DEFAULT '',
			academic_year TEXT NOT NULL,
			marked_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		// Final backstop for attendance idempotence: one record per student/day.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_attendance_student_date
			ON attendance_records (student_id, date)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Printf("Migration failed: %v", err)
			return err
		}
	}

	log.Println("Database migrations completed successfully")
	return nil
}
