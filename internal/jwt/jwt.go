package jwt

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/cristalhq/jwt/v4"
	"github.com/google/uuid"
)

const (
	jwtIssuer = "STUDENTMARKS"

	JWTExpiry        = 24 * time.Hour
	jwtAudienceAdmin = "admin"
	jwtAlg           = jwt.HS256
)

type Manager struct {
	aud      string
	expiry   time.Duration
	builder  *jwt.Builder
	verifier jwt.Verifier
}

// NewJWTManager returns a new manager for jwt tokens signed with a random
// secret. Tokens do not survive a restart. Tokens expire after expiry, or
// JWTExpiry if expiry is not positive.
func NewJWTManager(expiry time.Duration) (*Manager, error) {
	jwtSecret := make([]byte, 32)
	_, err := rand.Read(jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("rand.Read error: %w", err)
	}

	signer, err := jwt.NewSignerHS(jwtAlg, jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("jwt.NewSignerHS error: %w", err)
	}

	verifier, err := jwt.NewVerifierHS(jwtAlg, jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("jwt.NewVerifierHS error: %w", err)
	}

	if expiry <= 0 {
		expiry = JWTExpiry
	}

	m := &Manager{
		aud:      jwtAudienceAdmin,
		expiry:   expiry,
		builder:  jwt.NewBuilder(signer),
		verifier: verifier,
	}

	return m, nil
}

// GenerateJWTToken generates a new jwt token for the specified subject.
func (m *Manager) GenerateJWTToken(subject string) (string, error) {
	now := time.Now()
	claims := &jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Audience:  jwt.Audience{m.aud},
		Issuer:    jwtIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
	}

	token, err := m.builder.Build(claims)
	if err != nil {
		return "", fmt.Errorf("m.builder.Build error: %w", err)
	}

	return token.String(), nil
}

// IsValidToken checks that the provided token is valid and returns the
// subject it was issued for.
func (m *Manager) IsValidToken(jwtToken string) (string, bool) {
	jwtClaims := new(jwt.RegisteredClaims)
	err := jwt.ParseClaims([]byte(jwtToken), m.verifier, jwtClaims)
	if err != nil || !(jwtClaims.IsIssuer(jwtIssuer) && jwtClaims.IsValidAt(time.Now())) || !jwtClaims.IsForAudience(m.aud) {
		return "", false
	}

	return jwtClaims.Subject, true
}
