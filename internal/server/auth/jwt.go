package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/medconb/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret is returned by NewTokenService when no signing key is set.
var ErrEmptySecret = errors.New("token secret is empty")

// Claims are the JWT claims of a bearer token: sub, exp and iat from the
// registered set plus the display name.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source. Tests only.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

func (s *TokenService) Issue(subjectID, name string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Name: name,
	})

	return token.SignedString(s.secret)
}

// Verify returns the Authenticated identity of a valid token and Anonymous
// for anything else.
func (s *TokenService) Verify(tokenString string) Identity {
	claims, err := s.parse(tokenString)
	if err != nil {
		return Anonymous()
	}
	return Authenticated(claims.Subject, claims.Name)
}

func (s *TokenService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
