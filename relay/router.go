package relay

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// SetRouter mounts the relay's routes on the engine.
func SetRouter(engine *gin.Engine, s *Server) {
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/v1")
	v1.POST("/chat/completions", s.ChatCompletions)
	v1.GET("/models", gzip.Gzip(gzip.DefaultCompression), s.ListModels)
}
