package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lpt/internal/chat/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ExistingSlugs(ctx context.Context, db *gorm.DB, base string) ([]string, error) {
	var slugs []string
	err := db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &slugs).Error
	return slugs, err
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, chat *domain.Chat) error {
	return db.WithContext(ctx).Create(chat).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Chat, error) {
	var chat domain.Chat
	err := db.WithContext(ctx).Where("id = ?", id).Take(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Chat, error) {
	var chat domain.Chat
	err := db.WithContext(ctx).
		Preload("Messages", func(tx *gorm.DB) *gorm.DB { return tx.Order("messages.id ASC") }).
		Preload("Messages.Highlights", func(tx *gorm.DB) *gorm.DB { return tx.Order("highlights.id ASC") }).
		Where("slug = ?", slug).
		Take(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *repo) UpdatePublication(ctx context.Context, db *gorm.DB, chat *domain.Chat) error {
	return db.WithContext(ctx).
		Model(&domain.Chat{}).
		Where("id = ?", chat.ID).
		Updates(map[string]any{
			"title":        chat.Title,
			"slug":         chat.Slug,
			"is_public":    chat.IsPublic,
			"anonymous":    chat.Anonymous,
			"published_at": chat.PublishedAt,
		}).Error
}

type publicRow struct {
	ID          snowflake.ID
	Title       string
	Slug        string
	ModelID     int
	Anonymous   bool
	PublishedAt time.Time
	Pseudonym   *string
}

func (r *repo) ListPublic(ctx context.Context, db *gorm.DB, after *domain.PublicCursor, limit int) ([]*domain.PublicChat, error) {
	stmt := db.WithContext(ctx).
		Table("chats").
		Select("chats.id, chats.title, chats.slug, chats.model_id, chats.anonymous, chats.published_at, users.pseudonym").
		Joins("LEFT JOIN users ON users.id = chats.owner_id").
		Where("chats.is_public = ? AND chats.published_at IS NOT NULL", true)
	if after != nil {
		stmt = stmt.Where(
			"(chats.published_at < ?) OR (chats.published_at = ? AND chats.id < ?)",
			after.PublishedAt, after.PublishedAt, after.ID,
		)
	}

	var rows []publicRow
	err := stmt.
		Order("chats.published_at DESC, chats.id DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*domain.PublicChat, 0, len(rows))
	for _, row := range rows {
		item := &domain.PublicChat{
			ID:          row.ID,
			Title:       row.Title,
			Slug:        row.Slug,
			ModelID:     row.ModelID,
			Anonymous:   row.Anonymous,
			PublishedAt: row.PublishedAt,
		}
		if !row.Anonymous && row.Pseudonym != nil {
			item.Author = *row.Pseudonym
		}
		out = append(out, item)
	}
	return out, nil
}
