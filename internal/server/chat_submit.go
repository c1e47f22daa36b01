package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	completiondomain "github.com/smallbiznis/lpt/internal/completion/domain"
)

func (s *Server) SubmitChat(c *gin.Context) {
	var req completiondomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	c.Set("model_id", strconv.Itoa(req.ModelID))

	resp, err := s.completionSvc.Submit(c.Request.Context(), userIDFromContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
