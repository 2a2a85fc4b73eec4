package utils

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret returns a bcrypt hash of secret.
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckSecret compares a bcrypt hash with a candidate secret.
func CheckSecret(hashed, candidate string) bool {
	if hashed == "" || candidate == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(candidate)) == nil
}

// EqualSecrets compares two plaintext secrets in constant time.
func EqualSecrets(a, b string) bool {
	return a != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
