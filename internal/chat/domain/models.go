package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Role int

const (
	RoleUser  Role = 0
	RoleModel Role = 1
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

// Chat is a saved conversation. Anonymous only takes effect once the chat
// is public.
type Chat struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	OwnerID     snowflake.ID `gorm:"not null;index" json:"owner_id"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Slug        string       `gorm:"type:varchar(255);not null;uniqueIndex:ux_chats_slug" json:"slug"`
	ModelID     int          `gorm:"not null" json:"model_id"`
	IsPublic    bool         `gorm:"not null;default:false;index" json:"is_public"`
	Anonymous   bool         `gorm:"not null;default:false" json:"anonymous"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	PublishedAt *time.Time   `json:"published_at"`
	Messages    []Message    `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"messages"`
}

func (Chat) TableName() string { return "chats" }

type Message struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ChatID     snowflake.ID `gorm:"not null;index" json:"chat_id"`
	Role       Role         `gorm:"not null" json:"role"`
	Content    string       `gorm:"type:text;not null" json:"content"`
	Highlights []Highlight  `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"highlights"`
}

func (Message) TableName() string { return "messages" }

// Highlight marks a rune range [StartIndex, EndIndex] of a message.
type Highlight struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	MessageID  snowflake.ID `gorm:"not null;index" json:"message_id"`
	StartIndex int          `gorm:"not null" json:"starting_index"`
	EndIndex   int          `gorm:"not null" json:"ending_index"`
	Comment    *string      `gorm:"type:text" json:"comment"`
}

func (Highlight) TableName() string { return "highlights" }

// PublicChat is a row of the public listing. Author is empty for anonymous chats.
type PublicChat struct {
	ID          snowflake.ID `json:"id"`
	Title       string       `json:"title"`
	Slug        string       `json:"slug"`
	ModelID     int          `json:"model_id"`
	Author      string       `json:"author"`
	Anonymous   bool         `json:"anonymous"`
	PublishedAt time.Time    `json:"published_at"`
}
