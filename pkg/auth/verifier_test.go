package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abgdnv/shophub/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(issuer string, now time.Time) *HMACSigner {
	s := NewHMACSigner(config.JWTConfig{
		Secret: "0123456789abcdef0123456789abcdef",
		Issuer: issuer,
		TTL:    time.Hour,
	})
	s.now = func() time.Time { return now }
	return s
}

func TestHMACSigner_IssueAndVerify(t *testing.T) {
	// given
	now := time.Now().Truncate(time.Second)
	signer := newTestSigner("shophub", now)

	// when
	token, expiresAt, err := signer.Issue(Claims{Subject: "user-1", Email: "jane@example.com", Name: "Jane"})
	require.NoError(t, err)
	parsed, err := signer.Verify(context.Background(), token)

	// then
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)
	assert.Equal(t, Claims{Subject: "user-1", Email: "jane@example.com", Name: "Jane"}, ClaimsOf(parsed))
	iss, ok := parsed.Issuer()
	require.True(t, ok)
	assert.Equal(t, "shophub", iss)
}

func TestHMACSigner_VerifyFailures(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	signer := newTestSigner("shophub", now)
	valid, _, err := signer.Issue(Claims{Subject: "user-1"})
	require.NoError(t, err)

	otherSecret := NewHMACSigner(config.JWTConfig{Secret: "ffffffffffffffffffffffffffffffff", Issuer: "shophub", TTL: time.Hour})
	forged, _, err := otherSecret.Issue(Claims{Subject: "user-1"})
	require.NoError(t, err)

	otherIssuer, _, err := newTestSigner("someone-else", now).Issue(Claims{Subject: "user-1"})
	require.NoError(t, err)

	expired, _, err := newTestSigner("shophub", now.Add(-2*time.Hour)).Issue(Claims{Subject: "user-1"})
	require.NoError(t, err)

	noSubject, _, err := signer.Issue(Claims{})
	require.NoError(t, err)

	testCases := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-jwt"},
		{name: "wrong secret", token: forged},
		{name: "wrong issuer", token: otherIssuer},
		{name: "expired", token: expired},
		{name: "missing subject", token: noSubject},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := signer.Verify(context.Background(), tc.token)
			assert.True(t, errors.Is(err, ErrInvalidToken))
		})
	}

	_, err = signer.Verify(context.Background(), valid)
	assert.NoError(t, err)
}
