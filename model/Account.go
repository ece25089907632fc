package model

import (
	"time"
)

// Account is the persisted record of one registered (or pending) user, keyed by email.
type Account struct {
	Email        string     `gorm:"primaryKey;size:255" dynamodbav:"email" json:"email"`
	PasswordHash string     `gorm:"type:text;not null" dynamodbav:"password" json:"password"` // never the plaintext
	Verified     bool       `gorm:"not null;default:false" dynamodbav:"verified" json:"verified"`
	PendingOTP   *int       `gorm:"column:pending_otp" dynamodbav:"otp,omitempty" json:"otp,omitempty"`
	OTPExpiresAt *time.Time `gorm:"column:otp_expires_at" dynamodbav:"otpExpiry,omitempty" json:"otpExpiry,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" dynamodbav:"createdAt" json:"createdAt"`
}

func (Account) TableName() string {
	return "accounts"
}

// HasPendingOTP reports whether a code is outstanding for the account.
func (a *Account) HasPendingOTP() bool {
	return a.PendingOTP != nil && a.OTPExpiresAt != nil
}

// AccountPatch is a partial update of an Account. Nil fields are left untouched.
type AccountPatch struct {
	Verified     *bool
	PendingOTP   *int
	OTPExpiresAt *time.Time

	// ClearOTP removes the pending code and its expiry.
	ClearOTP bool

	// RequireUnverified makes the write conditional on the stored record
	// still being unverified.
	RequireUnverified bool

	// ExpectOTP makes the write conditional on this code still being the
	// pending one. It is a guard only and is never written.
	ExpectOTP *int
}

// MarkVerified flips the account to verified and drops the pending code in
// the same write, provided code is still the outstanding one.
func MarkVerified(code int) AccountPatch {
	verified := true
	return AccountPatch{
		Verified:          &verified,
		ClearOTP:          true,
		RequireUnverified: true,
		ExpectOTP:         &code,
	}
}

// OTPMatches reports whether the stored record satisfies the ExpectOTP guard.
func (p AccountPatch) OTPMatches(a *Account) bool {
	if p.ExpectOTP == nil {
		return true
	}
	return a.PendingOTP != nil && *a.PendingOTP == *p.ExpectOTP
}

// ReplaceOTP overwrites any outstanding code with a fresh one.
func ReplaceOTP(code int, expiresAt time.Time) AccountPatch {
	return AccountPatch{
		PendingOTP:        &code,
		OTPExpiresAt:      &expiresAt,
		RequireUnverified: true,
	}
}

// Apply mutates a in place. Used by stores that rewrite the whole record.
func (p AccountPatch) Apply(a *Account) {
	if p.Verified != nil {
		a.Verified = *p.Verified
	}
	if p.ClearOTP {
		a.PendingOTP = nil
		a.OTPExpiresAt = nil
	}
	if p.PendingOTP != nil {
		code := *p.PendingOTP
		a.PendingOTP = &code
	}
	if p.OTPExpiresAt != nil {
		exp := *p.OTPExpiresAt
		a.OTPExpiresAt = &exp
	}
}
