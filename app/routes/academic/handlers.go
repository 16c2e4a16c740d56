package academic

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

// GetAllAcademicYearsHandler returns the branch's academic years.
func GetAllAcademicYearsHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		years, err := database.GetAcademicYearsByBranch(db, user.BranchID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to retrieve academic years"})
		}

		return c.JSON(fiber.Map{"academic_years": years, "count": len(years)})
	}
}

// GetCurrentAcademicYearHandler resolves the branch's single active year.
func GetCurrentAcademicYearHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		year, err := database.ResolveActiveYear(db, user.BranchID)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(year)
	}
}

// GetAcademicYearHandler returns one academic year by ID.
func GetAcademicYearHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := database.GetAcademicYearByID(db, c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(year)
	}
}

// CreateAcademicYearHandler creates a new academic year for the caller's
// branch.
func CreateAcademicYearHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		type CreateYearRequest struct {
			Name      string            `json:"name" validate:"required"`
			StartDate models.CustomTime `json:"start_date"`
			EndDate   models.CustomTime `json:"end_date"`
			Status    string            `json:"status"`
		}

		var req CreateYearRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		if req.Status == "" {
			req.Status = string(models.YearUpcoming)
		}

		year := &models.AcademicYear{
			Name:      req.Name,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Status:    models.YearStatus(req.Status),
		}

		if err := database.CreateAcademicYear(db, user.BranchID, year); err != nil {
			return respondError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(year)
	}
}

// ActivateAcademicYearHandler promotes the target year, demoting the branch's
// currently active year in the same transaction.
func ActivateAcademicYearHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)
		yearID := c.Params("id")

		if err := database.ActivateAcademicYear(db, user.BranchID, yearID); err != nil {
			return respondError(c, err)
		}

		year, err := database.GetAcademicYearByID(db, yearID)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"message":       "Academic year activated successfully",
			"academic_year": year,
		})
	}
}

// DeleteAcademicYearHandler deletes a year that nothing references.
func DeleteAcademicYearHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		if err := database.DeleteAcademicYear(db, user.BranchID, c.Params("id")); err != nil {
			return respondError(c, err)
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
