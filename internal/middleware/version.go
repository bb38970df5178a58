package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// HeaderAPIVersion carries the API version requested by, and reported to, clients
const HeaderAPIVersion = "X-Api-Version"

// CurrentAPIVersion is the version served when a client asks for none
const CurrentAPIVersion = "1.0.0"

// VersionMiddleware parses the X-Api-Version header, stores it in context
// and echoes it on the response
func VersionMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		version := c.Get(HeaderAPIVersion, CurrentAPIVersion)

		// Support version aliases
		switch version {
		case "1", "1.0":
			version = CurrentAPIVersion
		}

		c.Locals("apiVersion", version)
		c.Set(HeaderAPIVersion, version)

		return c.Next()
	}
}
