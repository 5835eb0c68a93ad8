package devbackend

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"internify/internal/models"
	"internify/internal/shared/server/middleware"
	"internify/internal/shared/server/respond"
)

func (s *Server) verifyIdentity(c *gin.Context) {
	respond.OK(c, gin.H{"success": true, "user": models.Identity{
		ID:    middleware.UserIDFromContext(c),
		Email: middleware.UserEmailFromContext(c),
	}})
}

func (s *Server) me(c *gin.Context) {
	acct, err := s.store.accountByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "User not found", nil)
		return
	}
	respond.OK(c, gin.H{"success": true, "user": models.Identity{ID: acct.ID, Email: acct.Email}})
}
