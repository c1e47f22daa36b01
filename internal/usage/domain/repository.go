package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists ledger rows. Every method runs on the handle it is
// given so callers decide the transaction boundary.
type Repository interface {
	// FindByUserAndDate returns nil, nil when no row exists.
	FindByUserAndDate(ctx context.Context, db *gorm.DB, userID snowflake.ID, day time.Time, forUpdate bool) (*DailyUsage, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*DailyUsage, error)
	Insert(ctx context.Context, db *gorm.DB, record *DailyUsage) error
	Increment(ctx context.Context, db *gorm.DB, id snowflake.ID, tokens, messages int64, at time.Time) error
}
