// Package identity resolves the authenticated owner from a bearer token
// minted by the external auth collaborator. The core consumes only the
// opaque owner ID plus display fields; credentials never pass through here.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// Owner is the authenticated identity attached to every request.
type Owner struct {
	ID            string
	DisplayName   string
	Email         string
	EmailVerified bool
}

type ownerClaims struct {
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// Verifier validates HMAC-signed identity tokens.
type Verifier struct {
	secret []byte
	leeway time.Duration
}

// NewVerifier builds a verifier for the shared signing secret.
func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("identity secret required")
	}
	return &Verifier{secret: []byte(secret), leeway: defaultLeeway}, nil
}

// VerifyToken parses and validates a token, returning the owner it names.
func (v *Verifier) VerifyToken(token string) (Owner, error) {
	claims := ownerClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithLeeway(v.leeway), jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Owner{}, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return Owner{}, errors.New("invalid token")
	}
	ownerID := strings.TrimSpace(claims.Subject)
	if ownerID == "" {
		return Owner{}, errors.New("token subject missing")
	}
	return Owner{
		ID:            ownerID,
		DisplayName:   claims.Name,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
	}, nil
}

// MintToken issues a signed token. Used by tests and local development; the
// production issuer is the external auth service.
func (v *Verifier) MintToken(owner Owner, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := ownerClaims{
		Name:          owner.DisplayName,
		Email:         owner.Email,
		EmailVerified: owner.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   owner.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
