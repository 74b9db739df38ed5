package auth

import (
	"crypto/subtle"
	"fmt"

	"github.com/aydintok/gatehouse/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 12

// PasswordVerifier compares a presented password against the secret the
// directory holds for the account. The admission pipeline is agnostic to
// the hashing scheme behind this interface.
type PasswordVerifier interface {
	Verify(storedSecret, presented string) error
}

// BcryptVerifier expects stored secrets to be bcrypt hashes.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(storedSecret, presented string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(storedSecret), []byte(presented)); err != nil {
		return models.ErrBadCredentials
	}
	return nil
}

// PlaintextVerifier supports directories that still hold plaintext
// secrets. Comparison is constant-time; migrating such directories to
// hashed secrets is the expected end state.
type PlaintextVerifier struct{}

func (PlaintextVerifier) Verify(storedSecret, presented string) error {
	if subtle.ConstantTimeCompare([]byte(storedSecret), []byte(presented)) != 1 {
		return models.ErrBadCredentials
	}
	return nil
}

// NewVerifier selects a verifier by configured scheme name.
func NewVerifier(scheme string) (PasswordVerifier, error) {
	switch scheme {
	case "bcrypt":
		return BcryptVerifier{}, nil
	case "plaintext":
		return PlaintextVerifier{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme: %q", scheme)
	}
}

// HashPassword produces a bcrypt hash for account seeding tools.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}
