package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	chatdomain "github.com/smallbiznis/lpt/internal/chat/domain"
	"github.com/smallbiznis/lpt/pkg/db/pagination"
)

func (s *Server) SaveChat(c *gin.Context) {
	publish := false
	if raw := c.Query("publish"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			AbortWithError(c, newValidationError("publish", "invalid_publish", "publish must be a boolean"))
			return
		}
		publish = v
	}

	var req chatdomain.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	chat, err := s.chatSvc.Save(c.Request.Context(), userIDFromContext(c), req, publish)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"chat_id": chat.ID.String(),
		"slug":    chat.Slug,
	})
}

func (s *Server) PublishFromSaved(c *gin.Context) {
	var req chatdomain.PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.ChatID == 0 {
		AbortWithError(c, newValidationError("chat_id", "required", "chat_id is required"))
		return
	}

	chat, err := s.chatSvc.PublishFromSaved(c.Request.Context(), userIDFromContext(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"public_chat_id": chat.ID.String(),
		"slug":           chat.Slug,
	})
}

func (s *Server) GetSavedChat(c *gin.Context) {
	chat, err := s.chatSvc.GetBySlug(c.Request.Context(), userIDFromContext(c), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

func (s *Server) ListPublicChats(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.chatSvc.ListPublic(c.Request.Context(), chatdomain.ListPublicRequest{
		PageToken: page.PageToken,
		PageSize:  page.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
