package academic

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"school-ops/app/models"
	"school-ops/app/routes/auth"
)

// RegisterRoutes registers the academic year registry routes.
func RegisterRoutes(app *fiber.App, db *sql.DB) {
	years := app.Group("/api/academic-years", auth.AuthMiddleware)

	years.Get("/", GetAllAcademicYearsHandler(db))
	years.Get("/current", GetCurrentAcademicYearHandler(db))
	years.Get("/:id", GetAcademicYearHandler(db))

	admin := auth.RequireRole(models.RoleAdmin, models.RoleSuperadmin)
	years.Post("/", admin, CreateAcademicYearHandler(db))
	years.Put("/:id/activate", admin, ActivateAcademicYearHandler(db))
	years.Delete("/:id", admin, DeleteAcademicYearHandler(db))
}
