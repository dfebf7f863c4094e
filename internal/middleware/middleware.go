package middleware

import (
	"context"
	"strings"

	"foodgram/domain"
	"foodgram/internal/api/presenters"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	LocalUserID  = "user_id"
	LocalIsAdmin = "is_admin"
	LocalToken   = "token"
)

type (
	Middleware interface {
		AuthMiddleware(auth Authenticator) fiber.Handler
		OptionalAuthMiddleware(auth Authenticator) fiber.Handler
		CORSMiddleware() fiber.Handler
		MetricsMiddleware() fiber.Handler
	}

	// Authenticator resolves a bearer token to its actor.
	Authenticator interface {
		Authenticate(ctx context.Context, token string) (domain.Actor, error)
	}

	middleware struct {
		corsOrigins string
	}
)

func NewMiddleware(corsOrigins string) Middleware {
	if corsOrigins == "" {
		corsOrigins = "*"
	}
	return &middleware{corsOrigins: corsOrigins}
}

func (m *middleware) AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedGetToken, domain.ErrTokenNotFound)
		}
		return m.authenticate(c, auth, token)
	}
}

// OptionalAuthMiddleware lets anonymous requests through. A token that is
// present but bad is still rejected.
func (m *middleware) OptionalAuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}
		return m.authenticate(c, auth, token)
	}
}

func (m *middleware) authenticate(c *fiber.Ctx, auth Authenticator, token string) error {
	actor, err := auth.Authenticate(c.UserContext(), token)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageFailedTokenInvalid, err)
	}

	c.Locals(LocalUserID, actor.UserID)
	c.Locals(LocalIsAdmin, actor.IsAdmin)
	c.Locals(LocalToken, token)
	return c.Next()
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: m.corsOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	})
}

// Actor returns the caller stored by the auth middlewares; anonymous
// requests get the zero Actor.
func Actor(c *fiber.Ctx) domain.Actor {
	userID, _ := c.Locals(LocalUserID).(uint)
	isAdmin, _ := c.Locals(LocalIsAdmin).(bool)
	return domain.Actor{UserID: userID, IsAdmin: isAdmin}
}

func Token(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalToken).(string)
	return token
}

// bearerToken accepts both "Token <t>" and "Bearer <t>".
func bearerToken(c *fiber.Ctx) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(c.Get(fiber.HeaderAuthorization)), " ")
	if !ok {
		return ""
	}
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		return strings.TrimSpace(token)
	default:
		return ""
	}
}
