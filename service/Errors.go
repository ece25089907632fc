package service

import "errors"

var (
	ErrAccountExists        = errors.New("user already exists")
	ErrAccountNotFound      = errors.New("user not found")
	ErrAlreadyVerified      = errors.New("already verified")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired OTP")
	ErrNotVerified          = errors.New("user not verified")
	ErrInvalidPassword      = errors.New("invalid password")
	ErrPasswordTooLong      = errors.New("password must be at most 72 bytes")
)
