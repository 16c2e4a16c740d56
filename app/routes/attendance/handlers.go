package attendance

import (
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"school-ops/app/consistency"
	"school-ops/app/database"
	"school-ops/app/routes/auth"
)

var validate = validator.New()

func respondError(c *fiber.Ctx, err error) error {
	return c.Status(consistency.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
}

// GetAttendanceHandler lists a class's records for one date.
func GetAttendanceHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)
		classID := c.Params("classId")
		dateStr := c.Params("date")

		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
		}

		records, err := database.GetAttendanceByClassAndDate(db, user.BranchID, classID, date)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch attendance records"})
		}

		return c.JSON(fiber.Map{
			"attendance": records,
			"count":      len(records),
			"date":       dateStr,
			"class_id":   classID,
		})
	}
}

// MarkAttendanceHandler records one class's attendance for a date as an
// atomic batch; repeated submissions update existing records in place.
func MarkAttendanceHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)
		classID := c.Params("classId")

		type MarkRequest struct {
			Date    string                     `json:"date" validate:"required"`
			Subject *string                    `json:"subject"`
			Entries []database.AttendanceEntry `json:"entries" validate:"required,dive"`
		}

		var req MarkRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid date format. Use YYYY-MM-DD"})
		}

		result, err := database.MarkAttendance(db, user.BranchID, user.ID, classID, date, req.Subject, req.Entries)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{
			"message": "Attendance saved successfully",
			"result":  result,
		})
	}
}

// UpdateAttendanceRecordHandler corrects a single record after the fact.
func UpdateAttendanceRecordHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		type UpdateRequest struct {
			Status  string  `json:"status" validate:"required"`
			Subject *string `json:"subject"`
			Remarks string  `json:"remarks"`
		}

		var req UpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		if err := database.UpdateAttendanceRecord(db, user.BranchID, c.Params("id"), req.Status, req.Subject, req.Remarks); err != nil {
			return respondError(c, err)
		}

		return c.JSON(fiber.Map{"message": "Attendance record updated successfully"})
	}
}
