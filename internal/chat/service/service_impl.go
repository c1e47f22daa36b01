package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/lpt/internal/chat/domain"
	"github.com/smallbiznis/lpt/internal/clock"
	"github.com/smallbiznis/lpt/internal/modelregistry"
	"github.com/smallbiznis/lpt/pkg/db"
	"github.com/smallbiznis/lpt/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	fallbackSlug    = "chat"
	maxSlugBase     = 240
	maxSlugAttempts = 5
)

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Models modelregistry.Registry
	Clock  clock.Clock `optional:"true"`
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	models modelregistry.Registry
	clock  clock.Clock
}

func NewService(p ServiceParam) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("chat.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		models: p.Models,
		clock:  clk,
	}
}

func (s *Service) Save(ctx context.Context, ownerID snowflake.ID, req domain.SaveRequest, publish bool) (*domain.Chat, error) {
	if ownerID == 0 {
		return nil, domain.ErrInvalidOwner
	}
	title := strings.TrimSpace(req.Title)
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return nil, domain.ErrTitleTooLong
	}
	if _, ok := s.models.Lookup(req.History.ModelID); !ok {
		return nil, domain.ErrUnknownModel
	}

	now := s.clock.Now()
	chat := &domain.Chat{
		ID:        s.genID.Generate(),
		OwnerID:   ownerID,
		Title:     title,
		ModelID:   req.History.ModelID,
		CreatedAt: now,
	}
	if publish {
		chat.IsPublic = true
		chat.Anonymous = req.Anonymous
		chat.PublishedAt = &now
	}

	messages, err := s.buildMessages(chat.ID, req.History.Messages)
	if err != nil {
		return nil, err
	}
	chat.Messages = messages

	err = s.withUniqueSlug(ctx, title, func(tx *gorm.DB, candidate string) error {
		chat.Slug = candidate
		return s.repo.Insert(ctx, tx, chat)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("chat saved",
		zap.String("chat_id", chat.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Bool("public", chat.IsPublic),
		zap.Int("messages", len(chat.Messages)),
	)
	return chat, nil
}

func (s *Service) PublishFromSaved(ctx context.Context, ownerID snowflake.ID, req domain.PublishRequest) (*domain.Chat, error) {
	if ownerID == 0 {
		return nil, domain.ErrInvalidOwner
	}
	title := strings.TrimSpace(req.NewTitle)
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return nil, domain.ErrTitleTooLong
	}

	chat, err := s.repo.FindByID(ctx, s.db, req.ChatID)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, domain.ErrChatNotFound
	}
	if chat.OwnerID != ownerID {
		return nil, domain.ErrNotOwner
	}

	now := s.clock.Now()
	chat.Title = title
	chat.IsPublic = true
	chat.Anonymous = req.Anonymous
	chat.PublishedAt = &now

	err = s.withUniqueSlug(ctx, title, func(tx *gorm.DB, candidate string) error {
		chat.Slug = candidate
		return s.repo.UpdatePublication(ctx, tx, chat)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("chat published", zap.String("chat_id", chat.ID.String()), zap.String("slug", chat.Slug))
	return chat, nil
}

func (s *Service) GetBySlug(ctx context.Context, viewerID snowflake.ID, slugValue string) (*domain.Chat, error) {
	slugValue = strings.TrimSpace(slugValue)
	if slugValue == "" {
		return nil, domain.ErrChatNotFound
	}
	chat, err := s.repo.FindBySlug(ctx, s.db, slugValue)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, domain.ErrChatNotFound
	}
	if !chat.IsPublic && (viewerID == 0 || chat.OwnerID != viewerID) {
		return nil, domain.ErrChatPrivate
	}
	if chat.Anonymous && chat.OwnerID != viewerID {
		chat.OwnerID = 0
	}
	return chat, nil
}

func (s *Service) ListPublic(ctx context.Context, req domain.ListPublicRequest) (domain.ListPublicResponse, error) {
	page := pagination.Pagination{PageToken: req.PageToken, PageSize: req.PageSize}
	limit := page.Size(domain.DefaultPageSize, domain.MaxPageSize)

	var after *domain.PublicCursor
	if page.PageToken != "" {
		cursor, err := decodePublicCursor(page.PageToken)
		if err != nil {
			return domain.ListPublicResponse{}, err
		}
		after = cursor
	}

	items, err := s.repo.ListPublic(ctx, s.db, after, limit+1)
	if err != nil {
		return domain.ListPublicResponse{}, err
	}

	items, pageInfo := pagination.Trim(items, limit, func(item *domain.PublicChat) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			Timestamp: item.PublishedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	chats := make([]domain.PublicChat, 0, len(items))
	for _, item := range items {
		chats = append(chats, *item)
	}
	return domain.ListPublicResponse{Chats: chats, PageInfo: pageInfo}, nil
}

func (s *Service) buildMessages(chatID snowflake.ID, inputs []domain.MessageInput) ([]domain.Message, error) {
	messages := make([]domain.Message, 0, len(inputs))
	for i, in := range inputs {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: message %d", domain.ErrInvalidRole, i)
		}
		msg := domain.Message{
			ID:      s.genID.Generate(),
			ChatID:  chatID,
			Role:    in.Role,
			Content: in.Content,
		}
		length := utf8.RuneCountInString(in.Content)
		for _, h := range in.Highlights {
			if h.StartIndex < 0 || h.StartIndex > h.EndIndex || h.EndIndex > length {
				return nil, fmt.Errorf("%w: message %d [%d,%d] of %d", domain.ErrInvalidHighlight, i, h.StartIndex, h.EndIndex, length)
			}
			msg.Highlights = append(msg.Highlights, domain.Highlight{
				ID:         s.genID.Generate(),
				MessageID:  msg.ID,
				StartIndex: h.StartIndex,
				EndIndex:   h.EndIndex,
				Comment:    h.Comment,
			})
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// withUniqueSlug picks the first free slug for title and runs write inside a
// transaction, moving to the next suffix when the unique index rejects it.
func (s *Service) withUniqueSlug(ctx context.Context, title string, write func(tx *gorm.DB, candidate string) error) error {
	base := baseSlug(title)
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		taken, err := s.repo.ExistingSlugs(ctx, s.db, base)
		if err != nil {
			return err
		}
		candidate := nextSlug(base, taken)

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return write(tx, candidate)
		})
		if err == nil {
			return nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return err
		}
		s.log.Debug("slug collision", zap.String("slug", candidate), zap.Int("attempt", attempt+1))
	}
	return domain.ErrSlugUnavailable
}

func baseSlug(title string) string {
	base := slug.Make(title)
	if len(base) > maxSlugBase {
		base = strings.TrimRight(base[:maxSlugBase], "-")
	}
	if base == "" {
		return fallbackSlug
	}
	return base
}

func nextSlug(base string, taken []string) string {
	used := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		used[t] = struct{}{}
	}
	if _, ok := used[base]; !ok {
		return base
	}
	for n := 1; ; n++ {
		candidate := base + "-" + strconv.Itoa(n)
		if _, ok := used[candidate]; !ok {
			return candidate
		}
	}
}

func decodePublicCursor(token string) (*domain.PublicCursor, error) {
	cursor, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(cursor.ID)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	publishedAt, err := time.Parse(time.RFC3339Nano, cursor.Timestamp)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	return &domain.PublicCursor{ID: id, PublishedAt: publishedAt}, nil
}
