package attendance

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"school-ops/app/models"
	"school-ops/app/routes/auth"
)

// RegisterRoutes registers the attendance recorder routes.
func RegisterRoutes(app *fiber.App, db *sql.DB) {
	api := app.Group("/api", auth.AuthMiddleware)

	staff := auth.RequireRole(models.RoleTeacher, models.RoleAdmin, models.RoleSuperadmin)
	api.Get("/classes/:classId/attendance/:date", staff, GetAttendanceHandler(db))
	api.Post("/classes/:classId/attendance", staff, MarkAttendanceHandler(db))
	api.Put("/attendance/:id", staff, UpdateAttendanceRecordHandler(db))
}
