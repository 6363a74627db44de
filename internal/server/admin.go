package server

import (
	"net/http"

	"choria/internal/shared/security"
	"choria/internal/shared/transport/http/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterAdmin 运维接口，全部要求 admin 角色的 bearer token。
func (s *Server) RegisterAdmin(engine *gin.Engine) {
	g := engine.Group("/admin", middleware.RequireRole(security.RoleAdmin))
	g.GET("/online", s.online)
	g.POST("/stop", s.requestStop)
}

func (s *Server) online(c *gin.Context) {
	c.JSON(http.StatusOK, s.Snapshot())
}

func (s *Server) requestStop(c *gin.Context) {
	if !s.Submit(CommandStop) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "command queue full"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "stopping"})
}
