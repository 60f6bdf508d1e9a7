// internal/service/user_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-api/internal/config"
	"blog-api/internal/errs"
	"blog-api/internal/model"
	"blog-api/internal/repository"
	"blog-api/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type TokenIssuer interface {
	Issue(user *model.User) (string, time.Time, error)
}

type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// LoginGuard tracks failed logins per username.
type LoginGuard interface {
	IsAccountLocked(ctx context.Context, username string) (bool, error)
	IncrementLoginFailure(ctx context.Context, username string) error
	ClearLoginFailures(ctx context.Context, username string) error
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     model.Role
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expire"`
	User      *model.User `json:"user"`
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	GetUser(ctx context.Context, id uint) (*model.User, error)
	ListUsers(ctx context.Context, includeInactive bool, callerRole model.Role) ([]model.User, error)
	SoftDeleteUser(ctx context.Context, id uint) (bool, error)
	RestoreUser(ctx context.Context, id uint) (bool, error)
	UpdatePassword(ctx context.Context, id uint, password string) (bool, error)
	EnsureAdmin(ctx context.Context, admin config.AdminConfig) (bool, error)
}

type UserServiceImpl struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
	guard    LoginGuard
	revoker  TokenRevoker
	logger   logger.Logger
	cost     int
}

func NewUserService(
	userRepo repository.UserRepository,
	tokens TokenIssuer,
	guard LoginGuard,
	revoker TokenRevoker,
	log logger.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{
		userRepo: userRepo,
		tokens:   tokens,
		guard:    guard,
		revoker:  revoker,
		logger:   log.With(zap.String("module", "user_service")),
		cost:     bcrypt.DefaultCost,
	}
}

// hashPassword is applied by every operation that stores a plaintext password.
func (s *UserServiceImpl) hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password cannot exceed 72 bytes", errs.ErrValidation)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *UserServiceImpl) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	const op = "service.Register"

	if in.Role == "" {
		in.Role = model.RoleUser
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", errs.ErrValidation, in.Role)
	}

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		s.logger.Error("duplicate check failed", zap.String("username", in.Username), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, errs.ErrDuplicateCredential
	}

	hashed, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hashed,
		Role:         in.Role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, errs.ErrDuplicateCredential) {
			return nil, err
		}
		s.logger.Error("create user failed", zap.String("username", in.Username), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login answers every bad-credential case with the same ErrAuthentication so
// callers cannot tell a missing user from a wrong password.
func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	const op = "service.Login"

	locked, err := s.guard.IsAccountLocked(ctx, username)
	if err != nil {
		s.logger.Warn("login lock lookup failed", zap.Error(err))
	}
	if locked {
		s.logger.Warn("login attempt on locked account", zap.String("username", username))
		return nil, errs.ErrTooManyAttempts
	}

	user, err := s.userRepo.FindActiveByUsername(ctx, username)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		s.logger.Warn("login failed", zap.String("username", username))
		if err := s.guard.IncrementLoginFailure(ctx, username); err != nil {
			s.logger.Warn("record login failure", zap.Error(err))
		}
		return nil, errs.ErrAuthentication
	}

	if err := s.guard.ClearLoginFailures(ctx, username); err != nil {
		s.logger.Warn("clear login failures", zap.Error(err))
	}

	token, expire, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("issue token failed", zap.Uint("user_id", user.ID), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.logger.Info("login succeeded", zap.Uint("user_id", user.ID))
	return &LoginResult{Token: token, ExpiresAt: expire, User: user}, nil
}

func (s *UserServiceImpl) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if err := s.revoker.Revoke(ctx, jti, expiresAt); err != nil {
		return fmt.Errorf("service.Logout: %w", err)
	}
	return nil
}

func (s *UserServiceImpl) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

// ListUsers only honors includeInactive for admins.
func (s *UserServiceImpl) ListUsers(ctx context.Context, includeInactive bool, callerRole model.Role) ([]model.User, error) {
	users, err := s.userRepo.List(ctx, includeInactive && callerRole == model.RoleAdmin)
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, err
	}
	return users, nil
}

func (s *UserServiceImpl) SoftDeleteUser(ctx context.Context, id uint) (bool, error) {
	ok, err := s.userRepo.SetActive(ctx, id, false)
	if err != nil {
		s.logger.Error("deactivate user failed", zap.Uint("user_id", id), zap.Error(err))
		return false, err
	}
	if ok {
		s.logger.Info("user deactivated", zap.Uint("user_id", id))
	}
	return ok, nil
}

func (s *UserServiceImpl) RestoreUser(ctx context.Context, id uint) (bool, error) {
	ok, err := s.userRepo.SetActive(ctx, id, true)
	if err != nil {
		s.logger.Error("restore user failed", zap.Uint("user_id", id), zap.Error(err))
		return false, err
	}
	if ok {
		s.logger.Info("user restored", zap.Uint("user_id", id))
	}
	return ok, nil
}

func (s *UserServiceImpl) UpdatePassword(ctx context.Context, id uint, password string) (bool, error) {
	hashed, err := s.hashPassword(password)
	if err != nil {
		return false, fmt.Errorf("service.UpdatePassword: %w", err)
	}
	ok, err := s.userRepo.UpdatePasswordHash(ctx, id, hashed)
	if err != nil {
		s.logger.Error("update password failed", zap.Uint("user_id", id), zap.Error(err))
		return false, err
	}
	return ok, nil
}

// EnsureAdmin seeds the configured admin account into an empty users table.
// It reports whether an account was created.
func (s *UserServiceImpl) EnsureAdmin(ctx context.Context, admin config.AdminConfig) (bool, error) {
	if admin.Username == "" {
		return false, nil
	}
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("service.EnsureAdmin: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	user, err := s.Register(ctx, RegisterInput{
		Username: admin.Username,
		Email:    admin.Email,
		Password: admin.Password,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("service.EnsureAdmin: %w", err)
	}
	s.logger.Info("bootstrap admin created", zap.Uint("user_id", user.ID))
	return true, nil
}
