// Package bridgeauth issues and verifies the bearer tokens that let the
// matching bridge pull the verification export.
package bridgeauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	Issuer   = "huella"
	Audience = "huella-export"
	Scope    = "verification:read"
)

var (
	ErrNoSecret     = errors.New("bridge token secret not configured")
	ErrInvalidToken = errors.New("bridge token is invalid")
	ErrExpiredToken = errors.New("bridge token expired")
)

// bridgeClaims is the internal claims type used for JWT parsing.
type bridgeClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// Claims is what a verified token says about its holder.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

type Authority struct {
	secret []byte
	ttl    time.Duration
}

func New(secret string, ttl time.Duration) (*Authority, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Authority{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs an HS256 token for subject valid from now for the configured TTL.
func (a *Authority) Issue(subject string, now time.Time) (string, error) {
	claims := bridgeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		Scope: Scope,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign bridge token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, audience, expiry and scope as of now.
func (a *Authority) Verify(token string, now time.Time) (Claims, error) {
	var parsed bridgeClaims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}
	if parsed.Scope != Scope {
		return Claims{}, ErrInvalidToken
	}

	c := Claims{Subject: parsed.Subject}
	if parsed.ExpiresAt != nil {
		c.ExpiresAt = parsed.ExpiresAt.Time
	}
	return c, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrExpiredToken
	}
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}
