package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const verificationCodeDigits = 6

// GenerateVerificationCode returns a 6-digit numeric code, zero-padded.
func GenerateVerificationCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < verificationCodeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}

	return fmt.Sprintf("%0*d", verificationCodeDigits, n), nil
}
