package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"figureit/internal/pkg/jwt"
	"figureit/internal/pkg/response"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
)

// TokenValidator is the part of the JWT service the middleware needs.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// JWTAuth requires "Authorization: Bearer <token>" and stores the claims
// in the gin context.
func JWTAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Authorization header is required")
			c.Abort()
			return
		}

		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			response.Error(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be Bearer <token>")
			c.Abort()
			return
		}

		authenticate(c, tokens, strings.TrimSpace(raw))
	}
}

// JWTAuthQuery reads the token from a query parameter. Browsers cannot set
// headers on websocket upgrades.
func JWTAuthQuery(tokens TokenValidator, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query(param)
		if raw == "" {
			response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "Access token is required")
			c.Abort()
			return
		}
		authenticate(c, tokens, raw)
	}
}

func authenticate(c *gin.Context, tokens TokenValidator, raw string) {
	claims, err := tokens.ValidateToken(raw)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		c.Abort()
		return
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxRole, claims.Role)
	c.Next()
}

// UserID returns the authenticated user's ID set by JWTAuth.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}
