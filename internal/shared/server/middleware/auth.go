package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"internify/internal/shared/auth"
	"internify/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	sessionIDKey = "sessionId"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// Auth requires a valid bearer token and stores the identity in context.
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Authorization header missing", nil)
			return
		}
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid authentication scheme", nil)
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid token", nil)
			return
		}

		claims, err := verifier.Verify(token)
		if errors.Is(err, auth.ErrExpiredToken) {
			respond.Error(c, http.StatusUnauthorized, "token_expired", "Token has expired", nil)
			return
		}
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid token", nil)
			return
		}

		c.Set(userIDKey, claims.Sub)
		if claims.Email != "" {
			c.Set(userEmailKey, claims.Email)
		}
		if claims.SessionID != "" {
			c.Set(sessionIDKey, claims.SessionID)
		}
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	return stringFromContext(c, userIDKey)
}

// UserEmailFromContext fetches the user email set by the auth middleware.
func UserEmailFromContext(c *gin.Context) string {
	return stringFromContext(c, userEmailKey)
}

// SessionIDFromContext fetches the session the token was issued for.
func SessionIDFromContext(c *gin.Context) string {
	return stringFromContext(c, sessionIDKey)
}

func stringFromContext(c *gin.Context, key string) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(key)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
