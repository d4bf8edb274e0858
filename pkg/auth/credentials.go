package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrWeakPassword      = errors.New("password must be at least 8 characters")
	ErrInvalidHash       = errors.New("invalid bcrypt hash")
	ErrInvalidCredential = errors.New("invalid username or password")
)

const (
	MinPasswordLength = 8
	BcryptCost        = 12 // Cost factor for bcrypt
)

// dummyHash is compared against when the user is unknown so that both paths cost one bcrypt comparison
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unknown-user-password"), bcrypt.MinCost)

// Credentials checks username/password pairs against bcrypt hashes
type Credentials struct {
	hashes map[string][]byte
}

// NewCredentials builds a checker from username -> bcrypt hash
func NewCredentials(users map[string]string) (*Credentials, error) {
	c := &Credentials{hashes: make(map[string][]byte, len(users))}
	for username, hash := range users {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("%w for user %q: %v", ErrInvalidHash, username, err)
		}
		c.hashes[username] = []byte(hash)
	}
	return c, nil
}

// Len returns the number of configured users
func (c *Credentials) Len() int {
	return len(c.hashes)
}

// Verify returns ErrInvalidCredential unless password matches the user's hash
func (c *Credentials) Verify(username, password string) error {
	hash, ok := c.hashes[username]
	if !ok {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		return ErrInvalidCredential
	}
	return nil
}

// HashPassword hashes a password for the users section of the config file
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
