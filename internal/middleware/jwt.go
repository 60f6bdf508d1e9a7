// internal/middleware/jwt.go
package middleware

import (
	"context"
	"strings"

	"blog-api/internal/errs"
	"blog-api/pkg/jwtauth"
	"blog-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	identityKey  = "identity"
	authErrorKey = "authError"
	bearerScheme = "Bearer"
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*jwtauth.Identity, error)
}

// JWT resolves the bearer token, if any, into an identity. It never rejects
// a request itself: RequireRoles decides whether a missing or bad token
// matters for the route.
type JWT struct {
	verifier TokenVerifier
	logger   logger.Logger
}

func NewJWT(verifier TokenVerifier, log logger.Logger) *JWT {
	return &JWT{
		verifier: verifier,
		logger:   log.With(zap.String("module", "jwt")),
	}
}

func (j *JWT) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := bearerToken(c.GetHeader("Authorization"))
		if !present {
			c.Next()
			return
		}
		if token == "" {
			c.Set(authErrorKey, errs.ErrInvalidToken)
			c.Next()
			return
		}

		identity, err := j.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			j.logger.Debug("token rejected",
				zap.String("path", c.FullPath()),
				zap.Error(err))
			c.Set(authErrorKey, err)
			c.Next()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// bearerToken reports whether an Authorization header was sent at all and,
// if it uses the Bearer scheme, the token it carries.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) {
		return "", true
	}
	return strings.TrimSpace(token), true
}

func CurrentIdentity(c *gin.Context) (*jwtauth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*jwtauth.Identity)
	return identity, ok && identity != nil
}

// AuthError is the verification failure recorded by Authenticate, if any.
func AuthError(c *gin.Context) error {
	v, ok := c.Get(authErrorKey)
	if !ok {
		return nil
	}
	err, _ := v.(error)
	return err
}
