package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"

	"otp-signup/dto"
	"otp-signup/util"
)

const limiterKeyPrefix = "limiter:"

// RedisLimiterStorage implements fiber.Storage on top of redis so every
// instance shares the same counters
type RedisLimiterStorage struct {
	client  redis.UniversalClient
	timeout time.Duration
}

func NewRedisLimiterStorage(client redis.UniversalClient) *RedisLimiterStorage {
	return &RedisLimiterStorage{client: client, timeout: 2 * time.Second}
}

func (s *RedisLimiterStorage) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// Get returns nil, nil for a missing key (fiber.Storage contract)
func (s *RedisLimiterStorage) Get(key string) ([]byte, error) {
	ctx, cancel := s.ctx()
	defer cancel()

	val, err := s.client.Get(ctx, limiterKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (s *RedisLimiterStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.Set(ctx, limiterKeyPrefix+key, val, exp).Err()
}

func (s *RedisLimiterStorage) Delete(key string) error {
	ctx, cancel := s.ctx()
	defer cancel()
	return s.client.Del(ctx, limiterKeyPrefix+key).Err()
}

// Reset drops every limiter key, leaving account records alone
func (s *RedisLimiterStorage) Reset() error {
	ctx, cancel := s.ctx()
	defer cancel()

	iter := s.client.Scan(ctx, 0, limiterKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the client belongs to the caller
func (s *RedisLimiterStorage) Close() error {
	return nil
}

// ResendLimiter allows limit OTP resends per email within window.
// Requests without a readable email fall back to the client IP.
// A nil storage keeps the counters in process memory.
func ResendLimiter(limit int, window time.Duration, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          limit,
		Expiration:   window,
		KeyGenerator: resendKey,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{
				Error: "Too many OTP requests, please try again later",
			})
		},
		Storage: storage,
	})
}

func resendKey(c *fiber.Ctx) string {
	var req dto.ResendOTPRequest
	if err := c.BodyParser(&req); err == nil {
		if email := util.NormalizeEmail(req.Email); email != "" {
			return "resend:" + email
		}
	}
	return "resend-ip:" + c.IP()
}
