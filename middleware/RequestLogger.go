package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDLocal  = "request_id"
)

// RequestLogger tags each request with an id and logs method, path, status and duration once it completes
func RequestLogger(c *fiber.Ctx) error {
	requestID := c.Get(RequestIDHeader)
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	c.Locals(requestIDLocal, requestID)
	c.Set(RequestIDHeader, requestID)

	startTime := time.Now()

	// Continue processing the request
	err := c.Next()

	duration := time.Since(startTime)
	status := c.Response().StatusCode()

	var event *zerolog.Event
	switch {
	case status >= fiber.StatusInternalServerError:
		event = log.Error()
	case status >= fiber.StatusBadRequest:
		event = log.Warn()
	default:
		event = log.Info()
	}

	event.
		Str("request_id", requestID).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", status).
		Dur("duration", duration).
		Msg("request")

	return err
}

// RequestID returns the id assigned by RequestLogger, or "" outside of it
func RequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocal).(string)
	return id
}
