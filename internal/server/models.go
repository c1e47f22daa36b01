package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": s.models.List()})
}
