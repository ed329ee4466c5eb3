package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const principalKey = "principal"

// Principal is the authenticated caller attached to the request context.
// TelemetryKey is the caller's GPS-server API credential; endpoints that
// talk to the provider require it.
type Principal struct {
	UserID       string
	Name         string
	Role         string
	TelemetryKey string
}

// Claims is the token payload issued by the identity service.
type Claims struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	TelemetryKey string `json:"api_key"`
	jwt.RegisteredClaims
}

// FromCtx returns the principal stored by the middleware, or nil on
// unauthenticated routes.
func FromCtx(c *fiber.Ctx) *Principal {
	p, _ := c.Locals(principalKey).(*Principal)
	return p
}

// Store attaches a principal to the request. The middleware uses it; handler
// tests use it to fake an authenticated caller.
func Store(c *fiber.Ctx, p *Principal) {
	c.Locals(principalKey, p)
}
