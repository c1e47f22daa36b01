package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Ledger is the get-or-create / increment surface over daily usage rows.
type Ledger interface {
	GetOrCreate(ctx context.Context, userID snowflake.ID, day time.Time) (*DailyUsage, error)
	// GetOrCreateForUpdate holds the returned row locked until tx ends.
	GetOrCreateForUpdate(ctx context.Context, tx *gorm.DB, userID snowflake.ID, day time.Time) (*DailyUsage, error)
	// Increment expects record to be locked in tx and refreshes it with the new counters.
	Increment(ctx context.Context, tx *gorm.DB, record *DailyUsage, tokensDelta, messageDelta int64) error
	// Commit locks, increments and commits in its own transaction.
	Commit(ctx context.Context, userID snowflake.ID, day time.Time, tokensDelta, messageDelta int64) (*DailyUsage, error)
}

var (
	ErrInvalidUser    = errors.New("invalid_user")
	ErrInvalidDate    = errors.New("invalid_usage_date")
	ErrNegativeDelta  = errors.New("negative_usage_delta")
	ErrMissingTx      = errors.New("missing_transaction")
	ErrRecordNotFound = errors.New("usage_record_not_found")
)
