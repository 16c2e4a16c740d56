package classes

import (
	"database/sql"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"school-ops/app/consistency"
	"school-ops/app/database"
	"school-ops/app/models"
	"school-ops/app/routes/auth"
)

var validate = validator.New()

func respondError(c *fiber.Ctx, err error) error {
	return c.Status(consistency.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
}

type classRequest struct {
	Name         string  `json:"name" validate:"required"`
	Standard     string  `json:"standard"`
	TeacherID    *string `json:"teacher_id"`
	Capacity     int     `json:"capacity" validate:"min=0"`
	Room         string  `json:"room"`
	Schedule     string  `json:"schedule"`
	Semester     string  `json:"semester"`
	AcademicYear string  `json:"academic_year"`
	Status       string  `json:"status"`
}

// GetClassesHandler lists the branch's classes, optionally filtered by year.
// With no filter the branch's active year is used when one exists.
func GetClassesHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		year := c.Query("academic_year")
		if year == "" {
			if active, err := database.ResolveActiveYear(db, user.BranchID); err == nil {
				year = active.Name
			}
		}

		classes, err := database.GetClassesByBranch(db, user.BranchID, year)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to retrieve classes"})
		}

		return c.JSON(fiber.Map{"classes": classes, "count": len(classes), "academic_year": year})
	}
}

// GetClassHandler returns one class scoped to the caller's branch.
func GetClassHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		class, err := database.GetClassByID(db, user.BranchID, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(class)
	}
}

// GetClassStudentsHandler returns the active roster of a class.
func GetClassStudentsHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		students, err := database.GetStudentsByClass(db, user.BranchID, c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to retrieve students"})
		}

		return c.JSON(fiber.Map{"students": students, "count": len(students)})
	}
}

// CreateClassHandler creates a class for the caller's branch. When no year is
// given the branch's active year is used.
func CreateClassHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		var req classRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		if req.AcademicYear == "" {
			active, err := database.ResolveActiveYear(db, user.BranchID)
			if err != nil {
				return respondError(c, consistency.Validationf("academic_year is required when no active year exists"))
			}
			req.AcademicYear = active.Name
		}
		if req.Status == "" {
			req.Status = string(models.ClassActive)
		}

		class := &models.Class{
			Name:         req.Name,
			Standard:     req.Standard,
			TeacherID:    req.TeacherID,
			Capacity:     req.Capacity,
			Room:         req.Room,
			Schedule:     req.Schedule,
			Semester:     req.Semester,
			AcademicYear: req.AcademicYear,
			Status:       models.ClassStatus(req.Status),
		}

		if err := database.CreateClass(db, user.BranchID, class); err != nil {
			return respondError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(class)
	}
}

// UpdateClassHandler updates a class, re-running the name and
// teacher-exclusivity checks.
func UpdateClassHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		var req classRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if req.Status == "" {
			req.Status = string(models.ClassActive)
		}

		class := &models.Class{
			ID:        c.Params("id"),
			Name:      req.Name,
			Standard:  req.Standard,
			TeacherID: req.TeacherID,
			Capacity:  req.Capacity,
			Room:      req.Room,
			Schedule:  req.Schedule,
			Semester:  req.Semester,
			Status:    models.ClassStatus(req.Status),
		}

		if err := database.UpdateClass(db, user.BranchID, class); err != nil {
			return respondError(c, err)
		}

		updated, err := database.GetClassByID(db, user.BranchID, class.ID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(updated)
	}
}

// DeleteClassHandler deletes a class that has no enrollments and no slots.
func DeleteClassHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		if err := database.DeleteClass(db, user.BranchID, c.Params("id")); err != nil {
			return respondError(c, err)
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// RolloverHandler duplicates the branch's active-year roster into a new year.
func RolloverHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		type RolloverRequest struct {
			NewYearName string `json:"new_year_name" validate:"required"`
		}

		var req RolloverRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		result, err := database.RolloverClasses(db, user.BranchID, req.NewYearName)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"message":  "Rollover completed successfully",
			"rollover": result,
		})
	}
}
