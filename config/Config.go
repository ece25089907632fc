package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverDynamoDB = "dynamodb"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	HasherBcrypt = "bcrypt"
	HasherArgon2 = "argon2"
)

type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	StoreDriver string

	DynamoTable    string
	AWSRegion      string
	DynamoEndpoint string
	AWSAccessKey   string
	AWSSecretKey   string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	SMTPSenderName string

	OTPTTL time.Duration

	ResendLimit  int // 0 disables the limiter
	ResendWindow time.Duration

	PasswordHasher string
	BcryptCost     int

	JWTSecret    string
	JWTAccessTTL time.Duration
}

// LoadDotEnv copies .env into the process environment without overriding
// variables that are already set. The error is for the caller to log once
// its logger is configured.
func LoadDotEnv() error {
	return godotenv.Load()
}

// FromEnv builds a Config from the process environment.
// Every missing or malformed key is reported in a single error.
func FromEnv() (Config, error) {
	var problems []string

	cfg := Config{
		Port:     getEnv("PORT", "4000"),
		AppEnv:   getEnv("APP_ENV", "local"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", DriverDynamoDB)),

		DynamoTable:    getEnv("DYNAMODB_TABLE", "webData"),
		AWSRegion:      getEnv("AWS_REGION", "ap-south-1"),
		DynamoEndpoint: os.Getenv("DYNAMODB_ENDPOINT"),
		AWSAccessKey:   os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:   os.Getenv("AWS_SECRET_ACCESS_KEY"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "accounts"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPass:       os.Getenv("SMTP_PASS"),
		SMTPSenderName: getEnv("SMTP_SENDER_NAME", "Account Service"),

		PasswordHasher: strings.ToLower(getEnv("PASSWORD_HASHER", HasherBcrypt)),

		JWTSecret: os.Getenv("JWT_SECRET"),
	}

	cfg.RedisDB = getEnvInt("REDIS_DB", 0, &problems)
	cfg.SMTPPort = getEnvInt("SMTP_PORT", 587, &problems)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10, &problems)
	cfg.OTPTTL = getEnvDuration("OTP_TTL", 5*time.Minute, &problems)
	cfg.JWTAccessTTL = getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute, &problems)
	cfg.ResendLimit = getEnvInt("RESEND_LIMIT", 3, &problems)
	cfg.ResendWindow = getEnvDuration("RESEND_WINDOW", 10*time.Minute, &problems)

	var missing []string
	if cfg.SMTPHost == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if cfg.SMTPUser == "" {
		missing = append(missing, "SMTP_USER")
	}
	if cfg.SMTPPass == "" {
		missing = append(missing, "SMTP_PASS")
	}
	if len(missing) > 0 {
		problems = append(problems, "missing env: "+strings.Join(missing, ", "))
	}

	switch cfg.StoreDriver {
	case DriverDynamoDB, DriverPostgres, DriverRedis:
	default:
		problems = append(problems, fmt.Sprintf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}

	switch cfg.PasswordHasher {
	case HasherBcrypt, HasherArgon2:
	default:
		problems = append(problems, fmt.Sprintf("PASSWORD_HASHER: unknown hasher %q", cfg.PasswordHasher))
	}

	if cfg.OTPTTL <= 0 {
		problems = append(problems, "OTP_TTL: must be positive")
	}

	if cfg.ResendLimit < 0 {
		problems = append(problems, "RESEND_LIMIT: must not be negative")
	}
	if cfg.ResendLimit > 0 && cfg.ResendWindow <= 0 {
		problems = append(problems, "RESEND_WINDOW: must be positive")
	}

	if len(problems) > 0 {
		return cfg, errors.New(strings.Join(problems, "; "))
	}
	return cfg, nil
}

// PostgresDSN formats the gorm/pgx connection string.
func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, problems *[]string) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %q is not an integer", key, value))
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration, problems *[]string) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("%s: %q is not a duration", key, value))
		return fallback
	}
	return parsed
}
