package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// ExistingSlugs returns base and every base-N slug already stored.
	ExistingSlugs(ctx context.Context, db *gorm.DB, base string) ([]string, error)
	Insert(ctx context.Context, db *gorm.DB, chat *Chat) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Chat, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Chat, error)
	UpdatePublication(ctx context.Context, db *gorm.DB, chat *Chat) error
	ListPublic(ctx context.Context, db *gorm.DB, after *PublicCursor, limit int) ([]*PublicChat, error)
}

// PublicCursor is the keyset position of the last row of a page.
type PublicCursor struct {
	ID          snowflake.ID
	PublishedAt time.Time
}
