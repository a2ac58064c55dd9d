// Package auth issues and verifies the HS256 access tokens handed out by the auth service.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abgdnv/shophub/pkg/config"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const (
	claimEmail = "email"
	claimName  = "name"
)

var ErrInvalidToken = errors.New("invalid token")

type Verifier interface {
	Verify(ctx context.Context, tokenString string) (jwt.Token, error)
}

// Claims are the identity facts carried by an access token.
type Claims struct {
	Subject string
	Email   string
	Name    string
}

// HMACSigner both signs and verifies tokens with a shared secret.
type HMACSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewHMACSigner creates a signer from the JWT configuration.
func NewHMACSigner(cfg config.JWTConfig) *HMACSigner {
	return &HMACSigner{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
}

// Issue returns a signed compact JWT for the given claims and its expiry.
func (s *HMACSigner) Issue(claims Claims) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	token, err := jwt.NewBuilder().
		Subject(claims.Subject).
		Issuer(s.issuer).
		IssuedAt(issuedAt).
		Expiration(expiresAt).
		Claim(claimEmail, claims.Email).
		Claim(claimName, claims.Name).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build token: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), s.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return string(signed), expiresAt, nil
}

// Verify parses tokenString, checks the signature, the issuer and the time based claims.
func (s *HMACSigner) Verify(_ context.Context, tokenString string) (jwt.Token, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), s.secret),
		jwt.WithValidate(true),
		jwt.WithIssuer(s.issuer),
		jwt.WithClock(jwt.ClockFunc(s.now)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if sub, ok := token.Subject(); !ok || sub == "" {
		return nil, fmt.Errorf("%w: no claim `sub`", ErrInvalidToken)
	}
	return token, nil
}

// ClaimsOf extracts Claims from a verified token. Missing private claims are left empty.
func ClaimsOf(token jwt.Token) Claims {
	var c Claims
	c.Subject, _ = token.Subject()
	_ = token.Get(claimEmail, &c.Email)
	_ = token.Get(claimName, &c.Name)
	return c
}
