package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(RequestLogger)
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString(RequestID(c))
	})
	return app
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	resp, err := newApp().Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)

	id := resp.Header.Get(RequestIDHeader)
	_, perr := uuid.Parse(id)
	assert.NoError(t, perr)
}

func TestRequestLogger_KeepsValidIncomingID(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, id)

	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.Equal(t, id, resp.Header.Get(RequestIDHeader))
}

func TestRequestLogger_ReplacesGarbageID(t *testing.T) {
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc")

	resp, err := newApp().Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "abc", resp.Header.Get(RequestIDHeader))
}
