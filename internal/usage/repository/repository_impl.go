package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	usagedomain "github.com/smallbiznis/lpt/internal/usage/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() usagedomain.Repository {
	return &repo{}
}

func (r *repo) FindByUserAndDate(ctx context.Context, db *gorm.DB, userID snowflake.ID, day time.Time, forUpdate bool) (*usagedomain.DailyUsage, error) {
	q := db.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, datatypes.Date(day))
	if forUpdate {
		// dialects without row locks drop the clause
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var record usagedomain.DailyUsage
	err := q.Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*usagedomain.DailyUsage, error) {
	var record usagedomain.DailyUsage
	err := db.WithContext(ctx).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, record *usagedomain.DailyUsage) error {
	return db.WithContext(ctx).Create(record).Error
}

func (r *repo) Increment(ctx context.Context, db *gorm.DB, id snowflake.ID, tokens, messages int64, at time.Time) error {
	result := db.WithContext(ctx).
		Model(&usagedomain.DailyUsage{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"tokens":       gorm.Expr("tokens + ?", tokens),
			"num_messages": gorm.Expr("num_messages + ?", messages),
			"updated_at":   at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usagedomain.ErrRecordNotFound
	}
	return nil
}
