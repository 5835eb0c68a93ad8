package devbackend

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"internify/internal/shared/server/respond"
)

type searchQuery struct {
	Role     string `form:"role" binding:"required"`
	Location string `form:"location"`
	Limit    *int   `form:"limit" binding:"omitempty,min=1,max=50"`
}

func (s *Server) searchPostings(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respond.Error(c, http.StatusUnprocessableEntity, "validation_error", "role is required and limit must be between 1 and 50", nil)
		return
	}
	limit := 10
	if q.Limit != nil {
		limit = *q.Limit
	}

	found := s.catalog.Search(strings.TrimSpace(q.Role), q.Location, limit)
	if len(found) == 0 {
		respond.OK(c, gin.H{
			"success":     true,
			"internships": found,
			"message":     "No internships found matching your criteria. Try different keywords.",
		})
		return
	}
	respond.OK(c, gin.H{"success": true, "internships": found, "count": len(found)})
}

func (s *Server) getPosting(c *gin.Context) {
	p, ok := s.catalog.Get(c.Param("id"))
	if !ok {
		respond.Error(c, http.StatusNotFound, "not_found", "Internship not found", nil)
		return
	}
	respond.OK(c, gin.H{"success": true, "internship": p})
}

func (s *Server) postingsByCompany(c *gin.Context) {
	found := s.catalog.ByCompany(c.Param("name"), c.Query("role"))
	respond.OK(c, gin.H{"success": true, "internships": found, "count": len(found)})
}
