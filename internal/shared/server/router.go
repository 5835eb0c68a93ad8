package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"internify/internal/shared/server/middleware"
	"internify/internal/shared/server/respond"
)

// NewEngine constructs a Gin engine with the shared middleware chain, a health
// probe and a JSON 404. Callers register their own routes on the result.
func NewEngine(corsOrigins []string) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(corsOrigins),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.OK(c, gin.H{"status": "healthy"})
	})
	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "Not Found", nil)
	})

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
