package dto

import "otp-signup/util"

// Normalizer is implemented by requests that clean their fields before validation
type Normalizer interface {
	Normalize()
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,maxbytes=72"` // bcrypt limit
}

// VerifyRequest is the JSON payload sent to /verify
type VerifyRequest struct {
	Email string  `json:"email" validate:"required,email"`
	OTP   OTPCode `json:"otp" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ResendOTPRequest backs the "Resend Code" button
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (r *SignupRequest) Normalize() { r.Email = util.NormalizeEmail(r.Email) }
func (r *VerifyRequest) Normalize() { r.Email = util.NormalizeEmail(r.Email) }
func (r *LoginRequest) Normalize() { r.Email = util.NormalizeEmail(r.Email) }
func (r *ResendOTPRequest) Normalize() { r.Email = util.NormalizeEmail(r.Email) }

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginResponse carries the access token only when the server is configured to issue one.
type LoginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"` // seconds
}
