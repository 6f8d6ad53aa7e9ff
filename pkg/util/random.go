package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// RandomDigits returns a string of n uniformly random decimal digits.
// Leading zeros are kept, so the result always has length n.
func RandomDigits(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid length %d", n)
	}

	buf := make([]byte, n)
	ten := big.NewInt(10)
	for i := range buf {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generating digit: %w", err)
		}
		buf[i] = byte('0' + d.Int64())
	}
	return string(buf), nil
}
