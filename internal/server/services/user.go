// Package services contains server-side business logic. This file implements
// UserService, the password based registration and login of the public
// GraphQL surface.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/medconb/internal/common"
	"github.com/dmitrijs2005/medconb/internal/logging"
	"github.com/dmitrijs2005/medconb/internal/server/config"
	"github.com/dmitrijs2005/medconb/internal/server/metrics"
	"github.com/dmitrijs2005/medconb/internal/server/users"
)

// PasswordHasher is satisfied by *auth.Argon2idHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(digest, password string) (bool, error)
	NeedsRehash(digest string) bool
}

// TokenIssuer is satisfied by *auth.TokenService.
type TokenIssuer interface {
	Issue(subjectID, name string) (string, error)
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

type LoginInput struct {
	Email    string
	Password string
}

// TokenPayload is the result of a successful login.
type TokenPayload struct {
	Token string
}

// UserService registers password accounts and logs them in.
//
// Both operations check the password auth toggle on every call. Failures
// collapse into one error per use case (common.ErrRegistrationFailed,
// common.ErrLoginFailed) so callers cannot tell which check failed.
type UserService struct {
	repo    users.Repository
	hasher  PasswordHasher
	tokens  TokenIssuer
	cfg     *config.Config
	logger  logging.Logger
	metrics *metrics.Metrics

	dummyOnce sync.Once
	dummy     string
}

// NewUserService wires the service. tokens may be nil when password auth
// is disabled; m may be nil.
func NewUserService(repo users.Repository, hasher PasswordHasher, tokens TokenIssuer, cfg *config.Config, logger logging.Logger, m *metrics.Metrics) *UserService {
	return &UserService{
		repo:    repo,
		hasher:  hasher,
		tokens:  tokens,
		cfg:     cfg,
		logger:  logger.With("module", "users"),
		metrics: m,
	}
}

// Register creates a password account together with its workspace. It
// returns true on success; no token is issued.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (bool, error) {
	if !s.cfg.PasswordAuthEnabled() {
		s.metrics.Registration(metrics.ResultDisabled)
		return false, common.ErrFeatureDisabled
	}

	if in.Email == "" {
		return s.registrationFailed(ctx, "empty email")
	}

	_, err := s.repo.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return s.registrationFailed(ctx, "email already registered")
	case !errors.Is(err, common.ErrorNotFound):
		return s.registrationError(ctx, fmt.Errorf("lookup: %w", err))
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return s.registrationFailed(ctx, err.Error())
	}

	id, err := s.repo.NewID(ctx)
	if err != nil {
		return s.registrationError(ctx, fmt.Errorf("allocate user id: %w", err))
	}
	workspaceID, err := s.repo.NewWorkspaceID(ctx)
	if err != nil {
		return s.registrationError(ctx, fmt.Errorf("allocate workspace id: %w", err))
	}

	user := &users.User{
		ID:           id,
		Email:        in.Email,
		PasswordHash: hash,
		ExternalID:   common.ExternalIDPassword,
		Name:         in.Name,
		WorkspaceID:  workspaceID,
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return s.registrationFailed(ctx, "email already registered")
		}
		return s.registrationError(ctx, fmt.Errorf("insert: %w", err))
	}

	s.metrics.Registration(metrics.ResultSuccess)
	s.logger.Info(ctx, "user registered", "user_id", user.ID)

	return true, nil
}

func (s *UserService) registrationFailed(ctx context.Context, reason string) (bool, error) {
	s.metrics.Registration(metrics.ResultFailed)
	s.logger.Warn(ctx, "registration failed", "reason", reason)
	return false, common.ErrRegistrationFailed
}

func (s *UserService) registrationError(ctx context.Context, err error) (bool, error) {
	s.metrics.Registration(metrics.ResultError)
	s.logger.Error(ctx, "registration error", "error", err)
	return false, common.ErrorInternal
}

// Login verifies the password of the account bound to email and issues a
// bearer token. Digests produced with outdated parameters are upgraded.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*TokenPayload, error) {
	if !s.cfg.PasswordAuthEnabled() {
		s.metrics.Login(metrics.ResultDisabled)
		return nil, common.ErrFeatureDisabled
	}
	if s.tokens == nil {
		return s.loginError(ctx, errors.New("token issuer not configured"))
	}

	user, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(in.Password)
			return s.loginFailed(ctx, "unknown email")
		}
		return s.loginError(ctx, fmt.Errorf("lookup: %w", err))
	}

	if !user.HasPassword() {
		s.burnVerify(in.Password)
		return s.loginFailed(ctx, "no password credential")
	}

	ok, err := s.hasher.Verify(user.PasswordHash, in.Password)
	if err != nil {
		return s.loginFailed(ctx, "stored digest unreadable")
	}
	if !ok {
		return s.loginFailed(ctx, "password mismatch")
	}

	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, in.Password)
	}

	token, err := s.tokens.Issue(user.ID, user.Name)
	if err != nil {
		return s.loginError(ctx, fmt.Errorf("issue token: %w", err))
	}

	s.metrics.Login(metrics.ResultSuccess)
	s.logger.Info(ctx, "user logged in", "user_id", user.ID)

	return &TokenPayload{Token: token}, nil
}

// rehash is best effort: a failure is logged and the login goes on.
func (s *UserService) rehash(ctx context.Context, user *users.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Warn(ctx, "password rehash not persisted", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
	s.metrics.Rehashed()
}

// burnVerify spends the time of a real verification so that a missing
// account answers as slowly as a wrong password.
func (s *UserService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummy, _ = s.hasher.Hash("medconb-dummy-password")
	})
	if s.dummy != "" {
		_, _ = s.hasher.Verify(s.dummy, password)
	}
}

func (s *UserService) loginFailed(ctx context.Context, reason string) (*TokenPayload, error) {
	s.metrics.Login(metrics.ResultFailed)
	s.logger.Warn(ctx, "login failed", "reason", reason)
	return nil, common.ErrLoginFailed
}

func (s *UserService) loginError(ctx context.Context, err error) (*TokenPayload, error) {
	s.metrics.Login(metrics.ResultError)
	s.logger.Error(ctx, "login error", "error", err)
	return nil, common.ErrorInternal
}
