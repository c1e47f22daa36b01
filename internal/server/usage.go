package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) TodayUsage(c *gin.Context) {
	status, err := s.quota.Status(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
