package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"foodgram/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator map[string]domain.Actor

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (domain.Actor, error) {
	actor, ok := s[token]
	if !ok {
		return domain.Actor{}, domain.ErrTokenInvalid
	}
	return actor, nil
}

func newApp(optional bool) *fiber.App {
	auth := stubAuthenticator{
		"good":  {UserID: 7},
		"admin": {UserID: 1, IsAdmin: true},
	}
	m := NewMiddleware("")

	handler := m.AuthMiddleware(auth)
	if optional {
		handler = m.OptionalAuthMiddleware(auth)
	}

	app := fiber.New()
	app.Get("/whoami", handler, func(c *fiber.Ctx) error {
		actor := Actor(c)
		return c.JSON(fiber.Map{"id": actor.UserID, "admin": actor.IsAdmin, "token": Token(c)})
	})
	return app
}

func get(t *testing.T, app *fiber.App, authorization string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authorization != "" {
		req.Header.Set(fiber.HeaderAuthorization, authorization)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp(false)

	tests := []struct {
		name          string
		authorization string
		status        int
		body          string
	}{
		{"token scheme", "Token good", fiber.StatusOK, `{"id":7,"admin":false,"token":"good"}`},
		{"bearer scheme", "bearer admin", fiber.StatusOK, `{"id":1,"admin":true,"token":"admin"}`},
		{"missing header", "", fiber.StatusUnauthorized, `{"detail":"authentication credentials were not provided"}`},
		{"unknown scheme", "Basic good", fiber.StatusUnauthorized, `{"detail":"authentication credentials were not provided"}`},
		{"bad token", "Token nope", fiber.StatusUnauthorized, `{"detail":"invalid token"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := get(t, app, tt.authorization)
			assert.Equal(t, tt.status, status)
			assert.JSONEq(t, tt.body, body)
		})
	}
}

func TestOptionalAuthMiddleware(t *testing.T) {
	app := newApp(true)

	status, body := get(t, app, "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"id":0,"admin":false,"token":""}`, body)

	status, body = get(t, app, "Token good")
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"id":7,"admin":false,"token":"good"}`, body)

	status, _ = get(t, app, "Token nope")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestCORSMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(NewMiddleware("").CORSMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(fiber.HeaderOrigin, "http://frontend.test")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
}
