package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"otp-signup/model"
)

const (
	accountKeyPrefix = "account:"
	maxUpdateRetries = 4
)

var errTooManyRetries = errors.New("account update: too many concurrent writers")

// redisAccountRepo keeps each account as a JSON document under account:<email>.
type redisAccountRepo struct {
	client redis.UniversalClient
}

func NewRedisAccountRepository(client redis.UniversalClient) AccountRepository {
	return &redisAccountRepo{client: client}
}

func (r *redisAccountRepo) key(email string) string {
	return accountKeyPrefix + email
}

func (r *redisAccountRepo) InsertIfAbsent(ctx context.Context, account *model.Account) error {
	encoded, err := json.Marshal(account)
	if err != nil {
		return err
	}

	created, err := r.client.SetNX(ctx, r.key(account.Email), encoded, 0).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !created {
		return ErrAccountExists
	}
	return nil
}

func (r *redisAccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	data, err := r.client.Get(ctx, r.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return decodeAccount(data)
}

// UpdateFields rewrites the document under WATCH so concurrent patches never interleave.
func (r *redisAccountRepo) UpdateFields(ctx context.Context, email string, patch model.AccountPatch) error {
	key := r.key(email)

	for i := 0; i < maxUpdateRetries; i++ {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrAccountNotFound
				}
				return err
			}

			account, err := decodeAccount(data)
			if err != nil {
				return err
			}
			if patch.RequireUnverified && account.Verified {
				return ErrAccountVerified
			}
			if !patch.OTPMatches(account) {
				return ErrOTPChanged
			}

			patch.Apply(account)
			encoded, err := json.Marshal(account)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, redis.KeepTTL)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}

	return errTooManyRetries
}

func decodeAccount(data []byte) (*model.Account, error) {
	var a model.Account
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}
	return &a, nil
}
