package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"school-ops/app/config"
	"school-ops/app/database"
	"school-ops/app/routes/academic"
	"school-ops/app/routes/attendance"
	"school-ops/app/routes/auth"
	"school-ops/app/routes/classes"
	"school-ops/app/routes/timetable"
)

// errorHandler turns unhandled fiber errors into the uniform JSON shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
		"code":    code,
	})
}

func main() {
	config.Load()
	config.InitDB()

	if err := database.RunMigrations(config.GetDB()); err != nil {
		log.Fatal("Migrations failed:", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(logger.New())

	corsCfg := cors.Config{}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	app.Use(cors.New(corsCfg))

	db := config.GetDB()
	auth.RegisterRoutes(app, db)
	academic.RegisterRoutes(app, db)
	classes.RegisterRoutes(app, db)
	timetable.RegisterRoutes(app, db)
	attendance.RegisterRoutes(app, db)

	app.Use("*", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not found")
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Server starting on :" + port)
	log.Fatal(app.Listen(":" + port))
}
