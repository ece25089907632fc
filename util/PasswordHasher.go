package util

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordMismatch = errors.New("invalid password")
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d bytes", bcryptMaxBytes)
)

const bcryptMaxBytes = 72

// PasswordHasher turns plaintext into an opaque salted hash and checks candidates against it.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Compare returns nil on match, ErrPasswordMismatch on mismatch,
	// and any other error if the stored hash is unusable.
	Compare(hashed, plain string) error
}

// BcryptHasher hashes with bcrypt at a fixed cost
type BcryptHasher struct {
	Cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty password")
	}
	if len(plain) > bcryptMaxBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Compare(hashed, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

// Argon2Params tunes argon2id. Memory is in KiB.
type Argon2Params struct {
	Time      uint32
	Memory    uint32
	Threads   uint8
	KeyLength uint32
	SaltLen   uint32
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Time:      3,
		Memory:    64 * 1024, // 64 MB
		Threads:   4,
		KeyLength: 32,
		SaltLen:   16,
	}
}

// Argon2Hasher stores hashes as $argon2id$v=19$m=..,t=..,p=..$<salt hex>$<hash hex>
type Argon2Hasher struct {
	params Argon2Params
}

func NewArgon2Hasher(p Argon2Params) *Argon2Hasher {
	return &Argon2Hasher{params: p}
}

func (h *Argon2Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", errors.New("empty password")
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	p := h.params
	hash := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Threads, p.KeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads,
		hex.EncodeToString(salt), hex.EncodeToString(hash)), nil
}

func (h *Argon2Hasher) Compare(hashed, plain string) error {
	p, salt, hash, err := decodeArgon2Hash(hashed)
	if err != nil {
		return err
	}

	// Hash the candidate with the stored salt and parameters
	computed := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Threads, uint32(len(hash)))

	if subtle.ConstantTimeCompare(hash, computed) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

func decodeArgon2Hash(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errors.New("invalid argon2 hash format")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errors.New("unsupported argon2 version")
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, errors.New("invalid argon2 parameters")
	}

	salt, err := hex.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, errors.New("invalid salt encoding")
	}

	hash, err := hex.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return p, nil, nil, errors.New("invalid hash encoding")
	}

	return p, salt, hash, nil
}
