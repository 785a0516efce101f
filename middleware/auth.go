package middleware

import (
	"courier-booking/constants"

	"github.com/gofiber/fiber/v2"
)

// RequirePermissions guards a route with specific permissions.
func RequirePermissions(permissions ...string) fiber.Handler {
	return IsAuthenticated(permissions)
}

// RequireAuthentication only requires a valid token, no specific permission.
func RequireAuthentication() fiber.Handler {
	return IsAuthenticated([]string{constants.PermAny})
}
