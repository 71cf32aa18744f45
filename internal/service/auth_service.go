package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sprintflow/internal/auth"
	"github.com/spec-kit/sprintflow/internal/config"
	"github.com/spec-kit/sprintflow/internal/domain"
	"github.com/spec-kit/sprintflow/internal/repository"
	apperrors "github.com/spec-kit/sprintflow/pkg/util/errorutil"
)

const invalidCredentialsMessage = "invalid credentials"

// AuthService coordinates registration, login and session resolution.
type AuthService struct {
	users       repository.UserRepository
	sessions    repository.SessionRepository
	tokenMgr    *auth.TokenManager
	logger      *zap.Logger
	bcryptCost  int
	defaultRole domain.UserRole

	dummyOnce sync.Once
	dummyHash string
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	SessionRepo repository.SessionRepository
	Logger      *zap.Logger
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AuthResult is returned by successful register and login calls.
type AuthResult struct {
	User    *domain.User
	Token   string
	Session *domain.Session
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	role := domain.UserRole(cfg.Auth.DefaultRole)
	if !role.Valid() {
		role = domain.UserRoleAdmin
	}
	return &AuthService{
		users:       deps.UserRepo,
		sessions:    deps.SessionRepo,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL()),
		logger:      logger,
		bcryptCost:  cfg.Auth.BcryptCost,
		defaultRole: role,
	}
}

// Register creates a new account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	_, err := s.users.GetByEmail(ctx, input.Email)
	if err == nil {
		return nil, errEmailInUse()
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         s.defaultRole,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errEmailInUse()
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))

	return s.issue(user)
}

// Login authenticates a user by email and password. Unknown emails and wrong passwords fail
// with the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		// Keep the response time of unknown emails close to that of wrong passwords.
		_ = auth.ComparePassword(s.placeholderHash(), password)
		return nil, apperrors.NewUnauthorized(invalidCredentialsMessage)
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(invalidCredentialsMessage)
	}
	return s.issue(user)
}

// Logout revokes the session described by token until it would have expired. Invalid tokens are
// ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" || s.sessions == nil {
		return nil
	}
	session, err := s.tokenMgr.ParseToken(token)
	if err != nil || session.ID == "" {
		return nil
	}
	ttl := time.Until(session.ExpiresAt)
	if err := s.sessions.Revoke(ctx, session.ID, ttl); err != nil {
		s.logger.Warn("failed to revoke session", zap.String("session_id", session.ID), zap.Error(err))
	}
	return nil
}

// CurrentUser resolves a session token to its user. Missing, malformed, expired or revoked tokens
// and deleted users all yield a nil user without error.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	if token == "" {
		return nil, nil, nil
	}
	session, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, nil, nil
	}
	if s.sessions != nil && session.ID != "" {
		revoked, err := s.sessions.IsRevoked(ctx, session.ID)
		if err != nil {
			s.logger.Warn("session revocation lookup failed", zap.String("session_id", session.ID), zap.Error(err))
			return nil, nil, nil
		}
		if revoked {
			return nil, nil, nil
		}
	}
	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// TokenManager exposes the underlying token manager.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, session, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, Session: session}, nil
}

func (s *AuthService) placeholderHash() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("sprintflow-placeholder", s.bcryptCost)
		if err != nil {
			s.logger.Warn("failed to build placeholder hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

func errEmailInUse() error {
	return apperrors.NewConflict("email already in use", nil)
}
