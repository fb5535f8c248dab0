package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cg-dump/datasrv/internal/apiserver/database"
	"github.com/cg-dump/datasrv/internal/auth"
	"github.com/cg-dump/datasrv/internal/auth/jwt"
	"github.com/cg-dump/datasrv/internal/common/cnst"
	"github.com/cg-dump/datasrv/internal/common/dto"
	"github.com/cg-dump/datasrv/internal/common/errorx"
)

// JWTAuthMiddleware validates the bearer token, re-reads the account and
// stores the caller's auth context. The account lookup catches users
// disabled or rebound after the token was issued.
func JWTAuthMiddleware(jwtService *jwt.Service, store database.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWith(c, errorx.Unauthorized("unauthorized"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortWith(c, errorx.Unauthorized("unauthorized"))
			return
		}

		claims, err := jwtService.ValidateToken(parts[1])
		if err != nil {
			abortWith(c, errorx.Unauthorized("unauthorized"))
			return
		}

		user, err := store.GetUserByUsername(c.Request.Context(), claims.Username)
		if err != nil || !user.IsActive {
			abortWith(c, errorx.Unauthorized("unauthorized"))
			return
		}

		c.Set(cnst.CtxClaims, claims)
		c.Set(cnst.CtxAuthUser, &auth.Context{
			UserID:   user.ID,
			Username: user.Username,
			Role:     auth.Role(user.Role),
			StateID:  user.StateID,
		})
		c.Next()
	}
}

// RequireAdmin rejects non-admin callers. It must run after
// JWTAuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := GetAuthContext(c)
		if caller == nil {
			abortWith(c, errorx.Unauthorized("unauthorized"))
			return
		}
		if !caller.IsAdmin() {
			abortWith(c, errorx.Forbidden("admin role required"))
			return
		}
		c.Next()
	}
}

// GetAuthContext returns the caller identity set by JWTAuthMiddleware,
// or nil when the request is unauthenticated.
func GetAuthContext(c *gin.Context) *auth.Context {
	v, ok := c.Get(cnst.CtxAuthUser)
	if !ok {
		return nil
	}
	caller, ok := v.(*auth.Context)
	if !ok {
		return nil
	}
	return caller
}

func abortWith(c *gin.Context, err *errorx.Error) {
	c.AbortWithStatusJSON(err.HTTPStatus(), dto.ErrorResponse{
		Error:   err.Message,
		Kind:    string(err.Kind),
		Details: err.Details,
	})
}
