package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setSMTP(t *testing.T) {
	t.Setenv("SMTP_HOST", "smtp.mail.yahoo.com")
	t.Setenv("SMTP_USER", "sender@yahoo.com")
	t.Setenv("SMTP_PASS", "app-password")
}

func TestFromEnv_Defaults(t *testing.T) {
	setSMTP(t)

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, DriverDynamoDB, cfg.StoreDriver)
	assert.Equal(t, "webData", cfg.DynamoTable)
	assert.Equal(t, "ap-south-1", cfg.AWSRegion)
	assert.Equal(t, 5*time.Minute, cfg.OTPTTL)
	assert.Equal(t, HasherBcrypt, cfg.PasswordHasher)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, 3, cfg.ResendLimit)
	assert.Equal(t, 10*time.Minute, cfg.ResendWindow)
}

func TestFromEnv_Overrides(t *testing.T) {
	setSMTP(t)
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("OTP_TTL", "90s")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PASSWORD_HASHER", "argon2")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.StoreDriver)
	assert.Equal(t, 90*time.Second, cfg.OTPTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, HasherArgon2, cfg.PasswordHasher)
}

func TestFromEnv_ReportsEveryProblem(t *testing.T) {
	t.Setenv("SMTP_HOST", "")
	t.Setenv("SMTP_USER", "")
	t.Setenv("SMTP_PASS", "")
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("OTP_TTL", "five minutes")
	t.Setenv("SMTP_PORT", "abc")

	_, err := FromEnv()
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "missing env: SMTP_HOST, SMTP_USER, SMTP_PASS")
	assert.Contains(t, msg, `STORE_DRIVER: unknown driver "mongo"`)
	assert.Contains(t, msg, "OTP_TTL")
	assert.Contains(t, msg, "SMTP_PORT")
}

func TestFromEnv_ResendLimit(t *testing.T) {
	setSMTP(t)

	t.Setenv("RESEND_LIMIT", "0")
	t.Setenv("RESEND_WINDOW", "0s")
	cfg, err := FromEnv()
	require.NoError(t, err, "a disabled limiter needs no window")
	assert.Zero(t, cfg.ResendLimit)

	t.Setenv("RESEND_LIMIT", "-1")
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESEND_LIMIT")

	t.Setenv("RESEND_LIMIT", "5")
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RESEND_WINDOW")
}

func TestPostgresDSN(t *testing.T) {
	cfg := Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5433", DBSSLMode: "require"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5433 sslmode=require", cfg.PostgresDSN())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	assert.Error(t, LoadDotEnv(), "no .env in the working directory")

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OTP_TTL=2m\nPORT=9000\n"), 0o600))
	t.Setenv("PORT", "4100")
	t.Setenv("OTP_TTL", "")
	require.NoError(t, os.Unsetenv("OTP_TTL"))

	require.NoError(t, LoadDotEnv())
	assert.Equal(t, "2m", os.Getenv("OTP_TTL"))
	assert.Equal(t, "4100", os.Getenv("PORT"), "existing variables win")
}
