package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"otp-signup/dto"
	"otp-signup/middleware"
	"otp-signup/service"
	"otp-signup/util"
)

// AccountController provides handlers for signup, verification, resend and login
type AccountController struct {
	svc *service.AccountService
}

func NewAccountController(s *service.AccountService) *AccountController {
	return &AccountController{svc: s}
}

// Signup godoc
// @Summary      Register a new account
// @Description  Stores an unverified account with a hashed password and emails a 6-digit OTP valid for 5 minutes.
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        payload body dto.SignupRequest true "Signup payload"
// @Success      201  {object}  dto.MessageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /signup [post]
func (ac *AccountController) Signup(c *fiber.Ctx) error {
	var req dto.SignupRequest
	if msg := bindRequest(c, &req); msg != "" {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	if err := ac.svc.Signup(c.UserContext(), &req); err != nil {
		switch {
		case errors.Is(err, service.ErrAccountExists):
			return fail(c, fiber.StatusBadRequest, "User already exists")
		case errors.Is(err, service.ErrPasswordTooLong):
			return fail(c, fiber.StatusBadRequest, err.Error())
		}
		log.Error().Err(err).Str("request_id", middleware.RequestID(c)).Str("email", req.Email).Msg("signup failed")
		return fail(c, fiber.StatusInternalServerError, "Signup failed")
	}

	return c.Status(fiber.StatusCreated).JSON(dto.MessageResponse{Message: "OTP sent to your email"})
}

// Verify godoc
// @Summary      Verify email with OTP
// @Description  Accepts the outstanding code (string or number) and marks the account verified.
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        payload body dto.VerifyRequest true "Verification payload"
// @Success      200  {object}  dto.MessageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /verify [post]
func (ac *AccountController) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if msg := bindRequest(c, &req); msg != "" {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	if err := ac.svc.Verify(c.UserContext(), &req); err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			return fail(c, fiber.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrAlreadyVerified):
			return fail(c, fiber.StatusBadRequest, "Already verified")
		case errors.Is(err, service.ErrInvalidOrExpiredCode):
			log.Info().Str("request_id", middleware.RequestID(c)).Str("email", req.Email).Str("reason", err.Error()).Msg("otp rejected")
			return fail(c, fiber.StatusBadRequest, "Invalid or expired OTP")
		}
		log.Error().Err(err).Str("request_id", middleware.RequestID(c)).Str("email", req.Email).Msg("verification failed")
		return fail(c, fiber.StatusInternalServerError, "Verification failed")
	}

	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{Message: "Verified successfully"})
}

// Login godoc
// @Summary      Login with email and password
// @Description  Only verified accounts may log in. Returns an access token when the server has a JWT secret configured.
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        payload body dto.LoginRequest true "Login payload"
// @Success      200  {object}  dto.LoginResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /login [post]
func (ac *AccountController) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if msg := bindRequest(c, &req); msg != "" {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	res, err := ac.svc.Login(c.UserContext(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			return fail(c, fiber.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrNotVerified):
			return fail(c, fiber.StatusBadRequest, "User not verified")
		case errors.Is(err, service.ErrInvalidPassword):
			return fail(c, fiber.StatusUnauthorized, "Invalid password")
		}
		log.Error().Err(err).Str("request_id", middleware.RequestID(c)).Str("email", req.Email).Msg("login failed")
		return fail(c, fiber.StatusInternalServerError, "Login failed")
	}

	return c.Status(fiber.StatusOK).JSON(res)
}

// ResendOTP godoc
// @Summary      Resend verification code
// @Description  Replaces any outstanding code with a fresh one and emails it.
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        payload body dto.ResendOTPRequest true "Resend payload"
// @Success      200  {object}  dto.MessageResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      429  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /resend-otp [post]
func (ac *AccountController) ResendOTP(c *fiber.Ctx) error {
	var req dto.ResendOTPRequest
	if msg := bindRequest(c, &req); msg != "" {
		return fail(c, fiber.StatusBadRequest, msg)
	}

	if err := ac.svc.ResendOTP(c.UserContext(), &req); err != nil {
		switch {
		case errors.Is(err, service.ErrAccountNotFound):
			return fail(c, fiber.StatusNotFound, "User not found")
		case errors.Is(err, service.ErrAlreadyVerified):
			return fail(c, fiber.StatusBadRequest, "Already verified")
		}
		log.Error().Err(err).Str("request_id", middleware.RequestID(c)).Str("email", req.Email).Msg("resend otp failed")
		return fail(c, fiber.StatusInternalServerError, "Failed to resend OTP")
	}

	return c.Status(fiber.StatusOK).JSON(dto.MessageResponse{Message: "OTP resent"})
}

// bindRequest parses, normalizes and validates the JSON body, returning a client-facing message on failure
func bindRequest(c *fiber.Ctx, req interface{}) string {
	if err := c.BodyParser(req); err != nil {
		return "invalid request payload"
	}
	if n, ok := req.(dto.Normalizer); ok {
		n.Normalize()
	}
	if err := util.ValidateStruct(req); err != nil {
		return err.Error()
	}
	return ""
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Error: msg})
}
