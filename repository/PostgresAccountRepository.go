package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"otp-signup/model"
)

type pgAccountRepo struct {
	db *gorm.DB
}

func NewPostgresAccountRepository(db *gorm.DB) AccountRepository {
	return &pgAccountRepo{db: db}
}

// OpenPostgres connects, migrates the accounts table and configures the pool
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	log.Info().Msg("running AutoMigrate")
	if err := db.AutoMigrate(&model.Account{}); err != nil {
		return nil, fmt.Errorf("migrate accounts: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying DB object: %w", err)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(50)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info().Msg("postgres connected, migrated, and pool configured")
	return db, nil
}

// gormConfig makes the postgres dialector translate SQLSTATE codes into gorm errors
func gormConfig() *gorm.Config {
	return &gorm.Config{TranslateError: true}
}

func (r *pgAccountRepo) InsertIfAbsent(ctx context.Context, account *model.Account) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if err != nil {
		if IsDuplicateKeyError(err) {
			return ErrAccountExists
		}
		return err
	}
	return nil
}

func (r *pgAccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *pgAccountRepo) UpdateFields(ctx context.Context, email string, patch model.AccountPatch) error {
	updates := patchColumns(patch)
	if len(updates) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&model.Account{}).Where("email = ?", email)
		if patch.RequireUnverified {
			q = q.Where("verified = ?", false)
		}
		if patch.ExpectOTP != nil {
			q = q.Where("pending_otp = ?", *patch.ExpectOTP)
		}

		res := q.Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		// Nothing matched: find out which guard rejected the write
		var existing model.Account
		if err := tx.Select("verified", "pending_otp").Where("email = ?", email).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}
		if patch.RequireUnverified && existing.Verified {
			return ErrAccountVerified
		}
		if !patch.OTPMatches(&existing) {
			return ErrOTPChanged
		}
		return nil
	})
}

// patchColumns maps a patch to gorm columns. It must stay a map: Updates
// skips zero fields of a struct, which would drop NULL and false.
func patchColumns(p model.AccountPatch) map[string]interface{} {
	cols := map[string]interface{}{}
	if p.Verified != nil {
		cols["verified"] = *p.Verified
	}
	if p.ClearOTP {
		cols["pending_otp"] = nil
		cols["otp_expires_at"] = nil
	}
	if p.PendingOTP != nil {
		cols["pending_otp"] = *p.PendingOTP
	}
	if p.OTPExpiresAt != nil {
		cols["otp_expires_at"] = *p.OTPExpiresAt
	}
	return cols
}

// IsDuplicateKeyError checks if the error is a unique constraint violation
func IsDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// This string check works for Postgres "SQLSTATE 23505"
	return strings.Contains(err.Error(), "duplicate key value") ||
		strings.Contains(err.Error(), "23505")
}
