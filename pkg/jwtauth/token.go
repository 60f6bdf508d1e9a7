package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-api/internal/config"
	"blog-api/internal/errs"
	"blog-api/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTokenTTL = 24 * time.Hour

// UserFinder resolves the user a token was issued for.
type UserFinder interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
}

// RevocationChecker reports whether a token id was revoked before expiry.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) bool
}

// Identity is the verified caller behind a bearer token.
type Identity struct {
	ID        uint       `json:"id"`
	Username  string     `json:"username"`
	Role      model.Role `json:"role"`
	TokenID   string     `json:"-"`
	ExpiresAt time.Time  `json:"-"`
}

type Claims struct {
	UserID   uint       `json:"id"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 identity tokens. The signing key is
// read once from configuration and never leaves this struct.
type TokenService struct {
	key     []byte
	ttl     time.Duration
	issuer  string
	users   UserFinder
	revoked RevocationChecker

	// TimeFunc is used for issuance and expiry checks.
	TimeFunc func() time.Time
}

func NewTokenService(cfg *config.Config, users UserFinder, revoked RevocationChecker) (*TokenService, error) {
	if err := config.ValidateSigningKey(cfg.JWT.SigningKey); err != nil {
		return nil, err
	}
	ttl := cfg.JWT.Timeout
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		key:      []byte(cfg.JWT.SigningKey),
		ttl:      ttl,
		issuer:   cfg.App.Name,
		users:    users,
		revoked:  revoked,
		TimeFunc: time.Now,
	}, nil
}

// Issue signs a token carrying the user's id, username and role.
func (s *TokenService) Issue(user *model.User) (string, time.Time, error) {
	if len(s.key) == 0 {
		return "", time.Time{}, fmt.Errorf("%w: jwt signing key is not configured", errs.ErrConfiguration)
	}

	now := s.TimeFunc()
	expire := now.Add(s.ttl)
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expire),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("jwtauth.Issue: %w", err)
	}
	return signed, expire, nil
}

// Verify checks signature and expiry, then re-reads the user so that a
// deactivation takes effect on tokens that are still within their lifetime.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.TimeFunc),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: token expired", errs.ErrInvalidToken)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidToken, err)
	case !token.Valid:
		return nil, errs.ErrInvalidToken
	}

	if s.revoked != nil && s.revoked.IsRevoked(ctx, claims.ID) {
		return nil, fmt.Errorf("%w: token revoked", errs.ErrInvalidToken)
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrInactiveUser
		}
		return nil, fmt.Errorf("jwtauth.Verify: %w", err)
	}
	if !user.IsActive {
		return nil, errs.ErrInactiveUser
	}

	return &Identity{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
