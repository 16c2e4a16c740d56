package classes

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"school-ops/app/models"
	"school-ops/app/routes/auth"
)

// RegisterRoutes registers class roster and rollover routes.
func RegisterRoutes(app *fiber.App, db *sql.DB) {
	classes := app.Group("/api/classes", auth.AuthMiddleware)

	classes.Get("/", GetClassesHandler(db))
	classes.Get("/:id", GetClassHandler(db))
	classes.Get("/:id/students", GetClassStudentsHandler(db))

	admin := auth.RequireRole(models.RoleAdmin, models.RoleSuperadmin)
	classes.Post("/", admin, CreateClassHandler(db))
	classes.Put("/:id", admin, UpdateClassHandler(db))
	classes.Delete("/:id", admin, DeleteClassHandler(db))
	classes.Post("/rollover", admin, RolloverHandler(db))
}
