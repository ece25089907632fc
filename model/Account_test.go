package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPatchApply(t *testing.T) {
	code := 123456
	exp := time.Now().Add(time.Minute)
	a := &Account{Email: "a@x.com", PendingOTP: &code, OTPExpiresAt: &exp}
	assert.True(t, a.HasPendingOTP())

	newExp := exp.Add(time.Minute)
	ReplaceOTP(654321, newExp).Apply(a)
	assert.Equal(t, 654321, *a.PendingOTP)
	assert.Equal(t, newExp, *a.OTPExpiresAt)
	assert.Equal(t, 123456, code, "patch must not alias caller values")

	MarkVerified(654321).Apply(a)
	assert.True(t, a.Verified)
	assert.Nil(t, a.PendingOTP)
	assert.Nil(t, a.OTPExpiresAt)
	assert.False(t, a.HasPendingOTP())
}

func TestPatchHelpersRequireUnverified(t *testing.T) {
	assert.True(t, MarkVerified(1).RequireUnverified)
	assert.True(t, ReplaceOTP(1, time.Now()).RequireUnverified)
}

func TestPatchOTPMatches(t *testing.T) {
	code := 123456
	exp := time.Now().Add(time.Minute)
	a := &Account{Email: "a@x.com", PendingOTP: &code, OTPExpiresAt: &exp}

	assert.True(t, MarkVerified(123456).OTPMatches(a))
	assert.False(t, MarkVerified(654321).OTPMatches(a))
	assert.True(t, ReplaceOTP(1, exp).OTPMatches(a), "no guard, always matches")

	a.PendingOTP = nil
	assert.False(t, MarkVerified(123456).OTPMatches(a))
}

func TestPatchApplyIgnoresExpectOTP(t *testing.T) {
	code := 123456
	a := &Account{Email: "a@x.com", PendingOTP: &code}

	AccountPatch{ExpectOTP: &code}.Apply(a)
	assert.Equal(t, 123456, *a.PendingOTP)
	assert.False(t, a.Verified)
}
