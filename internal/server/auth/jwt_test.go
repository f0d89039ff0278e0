package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/medconb/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T, secret string, now time.Time) *TokenService {
	t.Helper()
	s, err := NewTokenService(secret, 24*time.Hour)
	require.NoError(t, err)
	return s.WithClock(func() time.Time { return now })
}

func TestNewTokenService_EmptySecret(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	require.ErrorIs(t, err, ErrEmptySecret)
}

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(t, "super-secret", now)

	tok, err := s.Issue("user-123", "Alice")
	require.NoError(t, err)

	id := s.Verify(tok)
	assert.True(t, id.IsAuthenticated())
	assert.Equal(t, "user-123", id.Subject())
	assert.Equal(t, "Alice", id.Name())
	assert.Equal(t, []string{common.ScopeAuthenticated}, id.Scopes())
}

func TestIssue_Claims(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(t, "k", now)

	tok, err := s.Issue("u1", "Bob")
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(tok, claims)
	require.NoError(t, err)

	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "Bob", claims.Name)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := newTestTokenService(t, "secret", issued)

	tok, err := s.Issue("u1", "n")
	require.NoError(t, err)

	s.WithClock(func() time.Time { return issued.Add(24*time.Hour + time.Second) })
	assert.False(t, s.Verify(tok).IsAuthenticated())

	s.WithClock(func() time.Time { return issued.Add(23 * time.Hour) })
	assert.True(t, s.Verify(tok).IsAuthenticated())
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	now := time.Now()
	tok, err := newTestTokenService(t, "right-secret", now).Issue("u2", "n")
	require.NoError(t, err)

	id := newTestTokenService(t, "wrong-secret", now).Verify(tok)
	assert.False(t, id.IsAuthenticated())
	assert.Empty(t, id.Subject())
}

func TestVerify_TamperedSignature(t *testing.T) {
	t.Parallel()

	s := newTestTokenService(t, "secret", time.Now())
	tok, err := s.Issue("u3", "n")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	mid := len(sig) / 2
	sig[mid] ^= 0x01
	parts[2] = string(sig)

	assert.False(t, s.Verify(strings.Join(parts, ".")).IsAuthenticated())
}

func TestVerify_TamperedPayload(t *testing.T) {
	t.Parallel()

	s := newTestTokenService(t, "secret", time.Now())
	tok, err := s.Issue("u3", "n")
	require.NoError(t, err)

	other, err := s.Issue("admin", "n")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	parts[1] = strings.Split(other, ".")[1]

	assert.False(t, s.Verify(strings.Join(parts, ".")).IsAuthenticated())
}

func TestVerify_AlgorithmMismatch(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newTestTokenService(t, "secret", now)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u4",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	assert.False(t, s.Verify(hs512).IsAuthenticated())

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.False(t, s.Verify(none).IsAuthenticated())
}

func TestVerify_MissingClaims(t *testing.T) {
	t.Parallel()

	now := time.Now()
	s := newTestTokenService(t, "secret", now)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}}).SignedString([]byte("secret"))
	require.NoError(t, err)
	assert.False(t, s.Verify(noSubject).IsAuthenticated())

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "u5",
	}}).SignedString([]byte("secret"))
	require.NoError(t, err)
	assert.False(t, s.Verify(noExpiry).IsAuthenticated())
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	s := newTestTokenService(t, "k", time.Now())
	for _, tok := range []string{"", "not.a.jwt", "abc", "a.b.c.d"} {
		assert.False(t, s.Verify(tok).IsAuthenticated(), "token %q", tok)
	}
}
