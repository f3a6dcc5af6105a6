package auth

import (
	"fmt"

	"github.com/jaevor/go-nanoid"
	"golang.org/x/crypto/bcrypt"
)

const refreshTokenLength = 40

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func NewRefreshToken() (string, error) {
	generateID, err := nanoid.Standard(refreshTokenLength)
	if err != nil {
		return "", fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}
	return generateID(), nil
}
