package auth

import (
	"database/sql"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"school-ops/app/database"
	"school-ops/app/models"
)

var validate = validator.New()

// RegisterRoutes registers the login endpoint.
func RegisterRoutes(app *fiber.App, db *sql.DB) {
	app.Post("/api/auth/login", LoginHandler(db))
}

// LoginHandler checks credentials and issues the identity token the engines
// trust.
func LoginHandler(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		type LoginRequest struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		}

		var req LoginRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if err := validate.Struct(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}

		user, err := database.GetUserByEmail(db, req.Email)
		if err != nil || !CheckPasswordHash(req.Password, user.Password) {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid email or password"})
		}

		token, err := GenerateJWT(user)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "Failed to generate token"})
		}

		return c.JSON(fiber.Map{
			"token": token,
			"user":  user,
		})
	}
}

// AuthMiddleware validates the JWT and puts the caller identity in context.
func AuthMiddleware(c *fiber.Ctx) error {
	var tokenString string

	tokenString = c.Cookies("jwt_token")
	if tokenString == "" {
		auth := c.Get("Authorization")
		if strings.HasPrefix(auth, "Bearer ") {
			tokenString = strings.TrimPrefix(auth, "Bearer ")
		}
	}

	if tokenString == "" {
		return c.Status(401).JSON(fiber.Map{"error": "No token found"})
	}

	claims, err := ValidateJWT(tokenString)
	if err != nil {
		return c.Status(401).JSON(fiber.Map{"error": "Invalid token"})
	}

	user := &models.User{
		ID:        claims.UserID,
		Email:     claims.Email,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
		BranchID:  claims.BranchID,
		Role:      claims.Role,
		IsActive:  true,
	}
	c.Locals("user", user)

	return c.Next()
}

// RequireRole is the single capability check each operation performs.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals("user").(*models.User)
		if !ok {
			return c.Status(401).JSON(fiber.Map{"error": "Not authenticated"})
		}
		if !user.HasRole(roles...) {
			return c.Status(403).JSON(fiber.Map{"error": "Insufficient role"})
		}
		return c.Next()
	}
}

// CurrentUser returns the caller identity set by AuthMiddleware.
func CurrentUser(c *fiber.Ctx) *models.User {
	return c.Locals("user").(*models.User)
}
