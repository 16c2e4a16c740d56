package timetable

import (
	"database/sql"

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

// GetClassSlotsHandler lists a class's weekly slots grouped for display.
func GetClassSlotsHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)
		classID := c.Params("classId")

		if _, err := database.GetClassByID(db, user.BranchID, classID); err != nil {
			return respondError(c, err)
		}

		slots, err := database.GetSlotsByClass(db, user.BranchID, classID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to retrieve timetable"})
		}

		return c.JSON(fiber.Map{"slots": slots, "count": len(slots), "class_id": classID})
	}
}

// AllocateSlotHandler creates one slot after the overlap and teacher checks.
func AllocateSlotHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		var req database.SlotRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		slot, err := database.AllocateSlot(db, user.BranchID, &req)
		if err != nil {
			return respondError(c, err)
		}

		return c.Status(fiber.StatusCreated).JSON(slot)
	}
}

// UpdateSlotHandler mutates one slot, excluding it from its own overlap check.
func UpdateSlotHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		var req database.SlotRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		slot, err := database.UpdateSlot(db, user.BranchID, c.Params("id"), &req)
		if err != nil {
			return respondError(c, err)
		}

		return c.JSON(slot)
	}
}

// DeleteSlotHandler removes one slot.
func DeleteSlotHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		if err := database.DeleteSlot(db, user.BranchID, c.Params("id")); err != nil {
			return respondError(c, err)
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
