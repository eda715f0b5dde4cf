package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

var (
	// ErrInvalidToken covers every way a presented token can fail validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySecret is returned when a TokenService is built without a signing key.
	ErrEmptySecret = errors.New("token signing secret is empty")
)

// Claims binds a user id and a purpose tag into a signed token.
type Claims struct {
	UserID string `json:"_id"`
	Access string `json:"access"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 session tokens.
//
// Tokens carry no expiry. A token stays usable only while the owning user
// still holds it in their stored token list, so revocation is removal from
// that list rather than waiting out a lifetime.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret []byte) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenService{secret: key, now: time.Now}, nil
}

// Issue signs a token for userID restricted to the given purpose.
// Every call yields a distinct token, even within the same second.
func (s *TokenService) Issue(userID, access string) (string, error) {
	if userID == "" || access == "" {
		return "", fmt.Errorf("issue token: user id and access are required")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Access: access,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       ulid.Make().String(),
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies the signature of tokenString and that it was issued for
// the expected purpose. It does not consult any store.
func (s *TokenService) Validate(tokenString, access string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" || claims.Access != access {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
