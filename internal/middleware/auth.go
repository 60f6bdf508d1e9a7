// internal/middleware/auth.go
package middleware

import (
	"blog-api/internal/errs"
	"blog-api/internal/model"
	"blog-api/internal/utils"
	"blog-api/pkg/jwtauth"
	"blog-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authorize allows admins unconditionally; everyone else needs one of roles.
// An empty roles list admits any authenticated identity.
func Authorize(identity *jwtauth.Identity, roles ...model.Role) error {
	if identity == nil {
		return errs.ErrUnauthenticated
	}
	if identity.Role == model.RoleAdmin || len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if identity.Role == r {
			return nil
		}
	}
	return errs.ErrForbidden
}

type AuthMiddleware struct {
	logger logger.Logger
}

func NewAuthMiddleware(log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{logger: log.With(zap.String("module", "access"))}
}

// RequireRoles must run after JWT.Authenticate.
func (m *AuthMiddleware) RequireRoles(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, _ := CurrentIdentity(c)
		err := Authorize(identity, roles...)
		if err == nil {
			c.Next()
			return
		}

		// a presented but unusable token outranks "no token"
		if identity == nil {
			if verr := AuthError(c); verr != nil {
				err = verr
			}
		}

		actor := zap.String("user", "anonymous")
		if identity != nil {
			actor = zap.String("user", identity.Username)
		}
		m.logger.Warn("access denied",
			actor,
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))

		utils.Abort(c, err)
	}
}
