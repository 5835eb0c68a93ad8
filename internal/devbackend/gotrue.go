package devbackend

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"internify/internal/shared/auth"
	"internify/internal/shared/server/middleware"
	"internify/internal/shared/server/respond"
	"internify/internal/shared/telemetry"
)

const minPasswordLength = 6

// providerError mirrors the GoTrue error shapes the auth client reads.
type providerError struct {
	Error       string `json:"error,omitempty"`
	Description string `json:"error_description,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	Msg         string `json:"msg,omitempty"`
	Message     string `json:"message,omitempty"`
}

type userResponse struct {
	ID          string     `json:"id"`
	Aud         string     `json:"aud"`
	Role        string     `json:"role"`
	Email       string     `json:"email"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (s *Server) registerProviderRoutes(r *gin.Engine) {
	g := r.Group("/auth/v1", s.requireAPIKey)
	limited := middleware.RateLimit(s.limiter, "auth", s.opts.AuthRateLimit)
	g.POST("/signup", limited, s.signUp)
	g.POST("/token", limited, s.token)
	g.GET("/user", s.currentUser)
	g.POST("/logout", s.logout)
}

func (s *Server) requireAPIKey(c *gin.Context) {
	if s.opts.AnonKey == "" {
		c.Next()
		return
	}
	key := c.GetHeader("apikey")
	switch {
	case key == "":
		c.AbortWithStatusJSON(http.StatusUnauthorized, providerError{Message: "No API key found in request"})
	case key != s.opts.AnonKey:
		c.AbortWithStatusJSON(http.StatusUnauthorized, providerError{Message: "Invalid API key"})
	default:
		c.Next()
	}
}

func (s *Server) signUp(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, providerError{ErrorCode: "validation_failed", Msg: "Unable to validate email address: invalid format"})
		return
	}
	if len(req.Password) < minPasswordLength {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, providerError{ErrorCode: "weak_password", Msg: "Password should be at least 6 characters."})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.opts.BcryptCost)
	if err != nil {
		telemetry.Error("devbackend.signup.hash_failed", map[string]any{"err": err})
		c.AbortWithStatusJSON(http.StatusInternalServerError, providerError{Msg: "Internal server error"})
		return
	}

	now := s.now().UTC()
	acct := account{Email: strings.TrimSpace(req.Email), PasswordHash: hash, CreatedAt: now}
	if s.opts.AutoConfirm {
		acct.ConfirmedAt = &now
	}
	acct, err = s.store.createAccount(c.Request.Context(), acct)
	if errors.Is(err, ErrExists) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, providerError{ErrorCode: "user_already_exists", Msg: "User already registered"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, providerError{Msg: "Internal server error"})
		return
	}
	telemetry.Info("devbackend.signup", map[string]any{"user_id": acct.ID, "confirmed": acct.ConfirmedAt != nil})

	if acct.ConfirmedAt == nil {
		c.JSON(http.StatusOK, toUserResponse(acct))
		return
	}
	s.issueSession(c, acct)
}

func (s *Server) token(c *gin.Context) {
	switch c.Query("grant_type") {
	case "password":
		s.passwordGrant(c)
	case "refresh_token":
		s.refreshGrant(c)
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, providerError{Error: "unsupported_grant_type", Description: "unsupported grant type"})
	}
}

func (s *Server) passwordGrant(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, providerError{Error: "invalid_request", Description: "email and password are required"})
		return
	}
	acct, err := s.store.accountByEmail(c.Request.Context(), req.Email)
	if err != nil || bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(req.Password)) != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, providerError{Error: "invalid_grant", Description: "Invalid login credentials"})
		return
	}
	if acct.ConfirmedAt == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, providerError{Error: "invalid_grant", ErrorCode: "email_not_confirmed", Description: "Email not confirmed"})
		return
	}
	s.issueSession(c, acct)
}

func (s *Server) refreshGrant(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, providerError{Error: "invalid_request", Description: "refresh_token is required"})
		return
	}
	sess, next, err := s.store.rotateRefresh(req.RefreshToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, providerError{Error: "invalid_grant", Description: "Invalid Refresh Token: Refresh Token Not Found"})
		return
	}
	acct, err := s.store.accountByID(c.Request.Context(), sess.UserID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, providerError{Error: "invalid_grant", Description: "User not found"})
		return
	}
	s.writeSession(c, acct, sess.ID, next)
}

func (s *Server) currentUser(c *gin.Context) {
	claims, ok := s.bearerClaims(c)
	if !ok {
		return
	}
	acct, err := s.store.accountByID(c.Request.Context(), claims.Sub)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, providerError{ErrorCode: "user_not_found", Msg: "User not found"})
		return
	}
	c.JSON(http.StatusOK, toUserResponse(acct))
}

func (s *Server) logout(c *gin.Context) {
	claims, ok := s.bearerClaims(c)
	if !ok {
		return
	}
	s.store.revokeSession(claims.SessionID)
	telemetry.Info("devbackend.logout", map[string]any{"user_id": claims.Sub, "session_id": claims.SessionID})
	respond.NoContent(c)
}

// bearerClaims validates the access token and that its session is still open.
func (s *Server) bearerClaims(c *gin.Context) (auth.Claims, bool) {
	scheme, token, _ := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
	if !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, providerError{ErrorCode: "no_authorization", Msg: "This endpoint requires a Bearer token"})
		return auth.Claims{}, false
	}
	claims, err := s.signer.Verify(strings.TrimSpace(token))
	if err != nil {
		msg := "invalid JWT: unable to parse or verify signature"
		if errors.Is(err, auth.ErrExpiredToken) {
			msg = "invalid JWT: token is expired"
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, providerError{ErrorCode: "bad_jwt", Msg: msg})
		return auth.Claims{}, false
	}
	if !s.store.sessionActive(claims.SessionID) {
		c.AbortWithStatusJSON(http.StatusForbidden, providerError{ErrorCode: "session_not_found", Msg: "Session from session_id claim in JWT does not exist"})
		return auth.Claims{}, false
	}
	return claims, true
}

func (s *Server) issueSession(c *gin.Context, acct account) {
	sessionID, refresh := s.store.openSession(acct.ID)
	s.writeSession(c, acct, sessionID, refresh)
}

func (s *Server) writeSession(c *gin.Context, acct account, sessionID, refresh string) {
	access, err := s.signer.Sign(auth.Claims{
		Sub:       acct.ID,
		Email:     acct.Email,
		Role:      "authenticated",
		SessionID: sessionID,
	})
	if err != nil {
		telemetry.Error("devbackend.token.sign_failed", map[string]any{"err": err})
		c.AbortWithStatusJSON(http.StatusInternalServerError, providerError{Msg: "Internal server error"})
		return
	}
	ttl := int64(s.signer.TTL() / time.Second)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  access,
		TokenType:    "bearer",
		ExpiresIn:    ttl,
		ExpiresAt:    s.now().Unix() + ttl,
		RefreshToken: refresh,
		User:         toUserResponse(acct),
	})
}

func toUserResponse(a account) userResponse {
	return userResponse{
		ID:          a.ID,
		Aud:         auth.Audience,
		Role:        "authenticated",
		Email:       a.Email,
		ConfirmedAt: a.ConfirmedAt,
		CreatedAt:   a.CreatedAt,
	}
}
