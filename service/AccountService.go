package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"otp-signup/dto"
	"otp-signup/model"
	"otp-signup/repository"
	"otp-signup/util"
)

const otpSubject = "Your OTP for Signup/Login"

// AccountService runs signup, verification, resend and login against the account store.
type AccountService struct {
	repo     repository.AccountRepository
	verifier *OTPVerifier
	notifier Notifier
	hasher   util.PasswordHasher
	tokens   *util.TokenIssuer // nil: login issues no token
	now      func() time.Time
}

func NewAccountService(
	repo repository.AccountRepository,
	verifier *OTPVerifier,
	notifier Notifier,
	hasher util.PasswordHasher,
	tokens *util.TokenIssuer,
) *AccountService {
	return &AccountService{
		repo:     repo,
		verifier: verifier,
		notifier: notifier,
		hasher:   hasher,
		tokens:   tokens,
		now:      time.Now,
	}
}

// Signup stores an unverified account carrying a fresh OTP, then mails the code.
func (s *AccountService) Signup(ctx context.Context, req *dto.SignupRequest) error {
	email := util.NormalizeEmail(req.Email)

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, util.ErrPasswordTooLong) {
			return ErrPasswordTooLong
		}
		return fmt.Errorf("hash password: %w", err)
	}

	otp, err := s.verifier.Issue()
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}

	account := &model.Account{
		Email:        email,
		PasswordHash: hashed,
		Verified:     false,
		PendingOTP:   &otp.Code,
		OTPExpiresAt: &otp.ExpiresAt,
		CreatedAt:    s.now(),
	}
	if err := s.repo.InsertIfAbsent(ctx, account); err != nil {
		if errors.Is(err, repository.ErrAccountExists) {
			return ErrAccountExists
		}
		return fmt.Errorf("insert account: %w", err)
	}

	s.sendOTP(ctx, email, otp)
	return nil
}

// Verify accepts the pending code and flips the account to verified.
func (s *AccountService) Verify(ctx context.Context, req *dto.VerifyRequest) error {
	email := util.NormalizeEmail(req.Email)

	account, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}

	outcome := s.verifier.Check(account, req.OTP.String(), s.now())
	switch outcome {
	case OutcomeNotFound:
		return ErrAccountNotFound
	case OutcomeAlreadyVerified:
		return ErrAlreadyVerified
	case OutcomeMismatch, OutcomeExpired:
		return fmt.Errorf("%w: %s", ErrInvalidOrExpiredCode, outcome)
	}

	// conditional on the checked code: a resend racing this write wins
	if err := s.repo.UpdateFields(ctx, email, model.MarkVerified(*account.PendingOTP)); err != nil {
		return mapUpdateError(err, "mark verified")
	}

	log.Info().Str("email", email).Msg("account verified")
	return nil
}

// ResendOTP replaces any outstanding code with a fresh one and mails it.
func (s *AccountService) ResendOTP(ctx context.Context, req *dto.ResendOTPRequest) error {
	email := util.NormalizeEmail(req.Email)

	account, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}
	if account.Verified {
		return ErrAlreadyVerified
	}

	otp, err := s.verifier.Issue()
	if err != nil {
		return fmt.Errorf("issue otp: %w", err)
	}

	if err := s.repo.UpdateFields(ctx, email, model.ReplaceOTP(otp.Code, otp.ExpiresAt)); err != nil {
		return mapUpdateError(err, "replace otp")
	}

	s.sendOTP(ctx, email, otp)
	return nil
}

// Login checks the password of a verified account. Unverified accounts are
// rejected before the hash is touched.
func (s *AccountService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	email := util.NormalizeEmail(req.Email)

	account, err := s.lookup(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if !account.Verified {
		return nil, ErrNotVerified
	}

	if err := s.hasher.Compare(account.PasswordHash, req.Password); err != nil {
		if errors.Is(err, util.ErrPasswordMismatch) {
			return nil, ErrInvalidPassword
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}

	res := &dto.LoginResponse{Message: "Login successful"}
	if s.tokens != nil {
		token, err := s.tokens.Issue(email)
		if err != nil {
			return nil, fmt.Errorf("issue access token: %w", err)
		}
		res.AccessToken = token
		res.ExpiresIn = int(s.tokens.TTL().Seconds())
	}
	return res, nil
}

// lookup returns (nil, nil) for an absent account.
func (s *AccountService) lookup(ctx context.Context, email string) (*model.Account, error) {
	account, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// sendOTP is best-effort: the code is already stored and can be resent.
func (s *AccountService) sendOTP(ctx context.Context, email string, otp IssuedOTP) {
	body := fmt.Sprintf("Your OTP is %d. It is valid for %s.", otp.Code, humanDuration(s.verifier.TTL()))

	if err := s.notifier.Send(ctx, email, otpSubject, body); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("failed to send OTP email")
		return
	}
	log.Info().Str("email", email).Msg("OTP email sent")
}

func mapUpdateError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		return ErrAccountNotFound
	case errors.Is(err, repository.ErrAccountVerified):
		return ErrAlreadyVerified
	case errors.Is(err, repository.ErrOTPChanged):
		return fmt.Errorf("%w: %s", ErrInvalidOrExpiredCode, OutcomeMismatch)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func humanDuration(d time.Duration) string {
	if d%time.Minute != 0 {
		return d.String()
	}
	if m := int(d / time.Minute); m != 1 {
		return fmt.Sprintf("%d minutes", m)
	}
	return "1 minute"
}
