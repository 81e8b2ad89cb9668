package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const publicPrefix = "/api/public"

// CORS allows the dashboard origins to call the API with credentials.
// Public widget routes are skipped; PublicCORS covers them.
func CORS(allowedOrigins []string) fiber.Handler {
	return cors.New(cors.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), publicPrefix)
		},
		AllowOrigins:     strings.Join(allowedOrigins, ","),
		AllowCredentials: true,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,X-Requested-With",
		ExposeHeaders:    "Content-Length,X-Request-ID",
		MaxAge:           3600,
	})
}

// PublicCORS lets embedded widgets on any site read forms and post leads.
// No credentials are involved.
func PublicCORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
		MaxAge:       3600,
	})
}
