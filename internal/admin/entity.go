package admin

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/ukane-philemon/studentmarks/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// Check that *Authenticator implements Repository.
var _ Repository = (*Authenticator)(nil)

// Authenticator implements Repository for a single configured admin account.
type Authenticator struct {
	username       string
	hashedPassword []byte
}

// NewAuthenticator returns a new instance of *Authenticator. hashedPassword
// must be a bcrypt hash, see HashPassword.
func NewAuthenticator(username, hashedPassword string) (*Authenticator, error) {
	if username == "" || hashedPassword == "" {
		return nil, errors.New("missing admin username or password hash")
	}

	if _, err := bcrypt.Cost([]byte(hashedPassword)); err != nil {
		return nil, fmt.Errorf("bcrypt.Cost error: %w", err)
	}

	return &Authenticator{
		username:       username,
		hashedPassword: []byte(hashedPassword),
	}, nil
}

// LoginAccount implements Repository.
func (a *Authenticator) LoginAccount(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("%w: missing username or password", db.ErrorInvalidRequest)
	}

	usernameMatch := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	err := bcrypt.CompareHashAndPassword(a.hashedPassword, []byte(password))
	if !usernameMatch || err != nil {
		return fmt.Errorf("%w: username or password is incorrect", db.ErrorInvalidRequest)
	}

	return nil
}

// HashPassword returns a bcrypt hash of password suitable for
// NewAuthenticator.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: missing password", db.ErrorInvalidRequest)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword error: %w", err)
	}

	return string(passwordHash), nil
}
