package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// bcryptCost of 10 provides a good balance between security and
	// performance for an access key checked once per session.
	bcryptCost = 10
)

// HashAccessKey generates a bcrypt hash of the operator access key,
// suitable for the access_key_hash config field.
func HashAccessKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash access key: %w", err)
	}
	return string(hash), nil
}

// CompareAccessKey compares the stored bcrypt hash with a presented key.
func CompareAccessKey(hashedKey, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(key))
}
