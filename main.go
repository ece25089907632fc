package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	swag "github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	_ "otp-signup/docs" // <-- required to register swagger spec

	"otp-signup/config"
	"otp-signup/controller"
	"otp-signup/middleware"
	"otp-signup/repository"
	"otp-signup/service"
	"otp-signup/util"
)

// @title           OTP Signup API
// @version         1.0
// @description     Account registration with one-time passcode email verification.

// @host            localhost:4000
// @BasePath        /
func main() {
	dotEnvErr := config.LoadDotEnv()
	cfg, err := config.FromEnv()
	util.InitLogger(cfg.AppEnv, cfg.LogLevel)
	if dotEnvErr != nil {
		log.Warn().Err(dotEnvErr).Msg("failed to load .env file, using system environment variables")
	}
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	repo, limiterStorage, closeStore, err := openAccountRepository(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open account store")
	}
	defer closeStore()

	var tokens *util.TokenIssuer
	if cfg.JWTSecret != "" {
		tokens = util.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessTTL)
	} else {
		log.Warn().Msg("JWT_SECRET not set, login will not issue access tokens")
	}

	emailService := service.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPSenderName)
	accountService := service.NewAccountService(
		repo,
		service.NewOTPVerifier(cfg.OTPTTL),
		emailService,
		newPasswordHasher(cfg),
		tokens,
	)

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.AppEnv != "local"})
	app.Get("/swagger/*", swag.HandlerDefault)

	var resendGuards []fiber.Handler
	if cfg.ResendLimit > 0 {
		resendGuards = append(resendGuards, middleware.ResendLimiter(cfg.ResendLimit, cfg.ResendWindow, limiterStorage))
	}
	controller.SetupRoutes(app, controller.NewAccountController(accountService), resendGuards...)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}

// openAccountRepository also returns the shared limiter storage when the
// driver has one (redis); nil keeps limiter counters in memory.
func openAccountRepository(ctx context.Context, cfg config.Config) (repository.AccountRepository, fiber.Storage, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverDynamoDB:
		client, err := repository.NewDynamoClient(ctx, repository.DynamoOptions{
			Region:    cfg.AWSRegion,
			Endpoint:  cfg.DynamoEndpoint,
			AccessKey: cfg.AWSAccessKey,
			SecretKey: cfg.AWSSecretKey,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return repository.NewDynamoAccountRepository(client, cfg.DynamoTable), nil, func() {}, nil

	case config.DriverPostgres:
		db, err := repository.OpenPostgres(cfg.PostgresDSN())
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		return repository.NewPostgresAccountRepository(db), nil, closeFn, nil

	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return repository.NewRedisAccountRepository(rdb), middleware.NewRedisLimiterStorage(rdb), func() { _ = rdb.Close() }, nil
	}

	return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func newPasswordHasher(cfg config.Config) util.PasswordHasher {
	if cfg.PasswordHasher == config.HasherArgon2 {
		return util.NewArgon2Hasher(util.DefaultArgon2Params())
	}
	return util.NewBcryptHasher(cfg.BcryptCost)
}
