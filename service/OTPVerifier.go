package service

import (
	"crypto/subtle"
	"io"
	"strconv"
	"time"

	"otp-signup/model"
	"otp-signup/util"
)

const (
	otpMin = 100000
	otpMax = 999999

	DefaultOTPTTL = 5 * time.Minute
)

// Outcome is the decision reached for a supplied code.
type Outcome int

const (
	OutcomeAccept Outcome = iota
	OutcomeExpired
	OutcomeMismatch
	OutcomeAlreadyVerified
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccept:
		return "accept"
	case OutcomeExpired:
		return "expired"
	case OutcomeMismatch:
		return "mismatch"
	case OutcomeAlreadyVerified:
		return "already verified"
	case OutcomeNotFound:
		return "not found"
	}
	return "unknown"
}

// IssuedOTP is a fresh code and the instant it stops being accepted.
type IssuedOTP struct {
	Code      int
	ExpiresAt time.Time
}

// OTPVerifier owns code generation and the accept/reject decision.
// It performs no I/O; persisting an issued code is the caller's job.
type OTPVerifier struct {
	ttl  time.Duration
	rand io.Reader // nil means crypto/rand
	now  func() time.Time
}

func NewOTPVerifier(ttl time.Duration) *OTPVerifier {
	if ttl <= 0 {
		ttl = DefaultOTPTTL
	}
	return &OTPVerifier{ttl: ttl, now: time.Now}
}

func (v *OTPVerifier) TTL() time.Duration {
	return v.ttl
}

// Issue draws a 6-digit code uniformly from [100000, 999999] and stamps it with now+TTL.
// It only fails if the random source does.
func (v *OTPVerifier) Issue() (IssuedOTP, error) {
	code, err := util.RandomIntInRange(v.rand, otpMin, otpMax)
	if err != nil {
		return IssuedOTP{}, err
	}
	return IssuedOTP{
		Code:      int(code),
		ExpiresAt: v.now().Add(v.ttl),
	}, nil
}

// Check decides what a supplied code means for record at instant now.
// A nil record is NotFound. The code is compared before expiry, so a wrong
// code on an expired record is Mismatch, never Expired. Expiry is exclusive:
// now == OTPExpiresAt is Expired. Only a plain base-10 integer is a code:
// "123456.0" and "1.23456e5" are Mismatch.
func (v *OTPVerifier) Check(record *model.Account, supplied string, now time.Time) Outcome {
	if record == nil {
		return OutcomeNotFound
	}
	if record.Verified {
		return OutcomeAlreadyVerified
	}
	if !record.HasPendingOTP() {
		return OutcomeMismatch
	}

	n, err := strconv.ParseInt(supplied, 10, 32)
	if err != nil {
		return OutcomeMismatch
	}
	if subtle.ConstantTimeEq(int32(n), int32(*record.PendingOTP)) != 1 {
		return OutcomeMismatch
	}

	if !now.Before(*record.OTPExpiresAt) {
		return OutcomeExpired
	}
	return OutcomeAccept
}
