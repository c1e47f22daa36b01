package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lpt/pkg/db/pagination"
)

const (
	MaxTitleLength  = 255
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var (
	ErrInvalidOwner     = errors.New("invalid_owner")
	ErrTitleTooLong     = errors.New("title_too_long")
	ErrUnknownModel     = errors.New("unknown_model")
	ErrInvalidRole      = errors.New("invalid_message_role")
	ErrInvalidHighlight = errors.New("invalid_highlight_range")
	ErrChatNotFound     = errors.New("chat_not_found")
	ErrNotOwner         = errors.New("not_chat_owner")
	ErrChatPrivate      = errors.New("chat_is_private")
	ErrSlugUnavailable  = errors.New("slug_unavailable")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)

type Service interface {
	Save(ctx context.Context, ownerID snowflake.ID, req SaveRequest, publish bool) (*Chat, error)
	PublishFromSaved(ctx context.Context, ownerID snowflake.ID, req PublishRequest) (*Chat, error)
	// GetBySlug returns the chat with messages and highlights. viewerID is
	// zero for anonymous readers.
	GetBySlug(ctx context.Context, viewerID snowflake.ID, slug string) (*Chat, error)
	ListPublic(ctx context.Context, req ListPublicRequest) (ListPublicResponse, error)
}

type HighlightInput struct {
	StartIndex int     `json:"starting_index"`
	EndIndex   int     `json:"ending_index"`
	Comment    *string `json:"comment"`
}

type MessageInput struct {
	Role       Role             `json:"role"`
	Content    string           `json:"content"`
	Highlights []HighlightInput `json:"highlights"`
}

type History struct {
	ModelID    int            `json:"model_id"`
	PrettyName string         `json:"pretty_name,omitempty"`
	Messages   []MessageInput `json:"messages"`
}

type SaveRequest struct {
	Title     string  `json:"title"`
	Anonymous bool    `json:"anonymous"`
	History   History `json:"history"`
}

type PublishRequest struct {
	ChatID    snowflake.ID `json:"chat_id"`
	NewTitle  string       `json:"new_title"`
	Anonymous bool         `json:"anonymous"`
}

type ListPublicRequest struct {
	PageToken string
	PageSize  int
}

type ListPublicResponse struct {
	Chats    []PublicChat        `json:"chats"`
	PageInfo pagination.PageInfo `json:"page_info"`
}
