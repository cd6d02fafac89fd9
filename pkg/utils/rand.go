package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

const (
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digitChars  = "0123456789"
	randomChars = lowerChars + upperChars + digitChars

	MinRandomPasswordLength = 16
)

// RandomPassword returns a cryptographically secure alphanumeric string with at
// least one lowercase, one uppercase and three digit characters.
func RandomPassword(n int) (string, error) {
	if n < MinRandomPasswordLength {
		return "", fmt.Errorf("random password length must be at least %d, got %d", MinRandomPasswordLength, n)
	}
	for {
		s, err := randomString(randomChars, n)
		if err != nil {
			return "", err
		}
		if hasPasswordClasses(s) {
			return s, nil
		}
	}
}

func hasPasswordClasses(s string) bool {
	var lower, upper, digits int
	for _, c := range s {
		switch {
		case unicode.IsLower(c):
			lower++
		case unicode.IsUpper(c):
			upper++
		case unicode.IsDigit(c):
			digits++
		}
	}
	return lower >= 1 && upper >= 1 && digits >= 3
}

func randomString(chars string, n int) (string, error) {
	var b strings.Builder
	b.Grow(n)
	max := big.NewInt(int64(len(chars)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(chars[idx.Int64()])
	}
	return b.String(), nil
}
