package util

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
)

// RandomIntInRange returns a uniformly distributed integer in [min, max] drawn from src.
// A nil src means crypto/rand.
func RandomIntInRange(src io.Reader, min, max int64) (int64, error) {
	if max < min {
		return 0, errors.New("empty range")
	}
	if src == nil {
		src = rand.Reader
	}
	n, err := rand.Int(src, big.NewInt(max-min+1))
	if err != nil {
		return 0, err
	}
	return min + n.Int64(), nil
}
