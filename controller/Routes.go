package controller

import (
	"github.com/gofiber/fiber/v2"

	"otp-signup/middleware"
)

// SetupRoutes mounts the health check and the account endpoints.
// resendGuards run in front of /resend-otp.
func SetupRoutes(app *fiber.App, ac *AccountController, resendGuards ...fiber.Handler) {
	app.Use(middleware.RequestLogger)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/signup", ac.Signup)
	app.Post("/verify", ac.Verify)
	app.Post("/login", ac.Login)
	app.Post("/resend-otp", append(resendGuards, ac.ResendOTP)...)
}
