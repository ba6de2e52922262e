package session

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"figureit/internal/domain/auth"
	"figureit/internal/middleware"
	"figureit/internal/pkg/response"
)

const ctxKey = "session"

// Middleware loads the session of the user authenticated by
// middleware.JWTAuth and stores it in the gin context.
func Middleware(loader Loader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.UserID(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		u, err := loader.GetUser(ctx, userID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				response.Error(c, http.StatusUnauthorized, "SESSION_INVALID", "User no longer exists")
			} else {
				response.Error(c, http.StatusInternalServerError, "FAILED_TO_LOAD", "Failed to load session")
				_ = c.Error(err)
			}
			c.Abort()
			return
		}

		s := &Session{User: u}
		if prof, err := loader.GetProfile(ctx, userID); err == nil {
			s.Profile = prof
		}
		Set(c, s)
		c.Next()
	}
}

// Set stores s in the gin context.
func Set(c *gin.Context, s *Session) {
	c.Set(ctxKey, s)
}

func FromContext(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(ctxKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*Session)
	return s, ok && s != nil && s.User != nil
}

// RequireAdmin admits sessions whose current profile is an administrator.
// It reads the profile loaded by Middleware, so a demoted account loses
// access before its token expires.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := FromContext(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			c.Abort()
			return
		}
		if !s.IsAdmin() {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied: insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
