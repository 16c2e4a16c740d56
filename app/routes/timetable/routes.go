package timetable

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"school-ops/app/models"
	"school-ops/app/routes/auth"
)

// RegisterRoutes registers the timetable allocator routes.
func RegisterRoutes(app *fiber.App, db *sql.DB) {
	api := app.Group("/api", auth.AuthMiddleware)

	api.Get("/classes/:classId/slots", GetClassSlotsHandler(db))

	staff := auth.RequireRole(models.RoleTeacher, models.RoleAdmin, models.RoleSuperadmin)
	api.Post("/slots", staff, AllocateSlotHandler(db))
	api.Put("/slots/:id", staff, UpdateSlotHandler(db))
	api.Delete("/slots/:id", staff, DeleteSlotHandler(db))
}
