package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

// DefaultMessageIncrement is the message count committed per successful submission.
const DefaultMessageIncrement int64 = 1

type Kind string

const (
	KindTokens   Kind = "tokens"
	KindMessages Kind = "messages"
)

var ErrQuotaExceeded = errors.New("quota_exceeded")

// QuotaExceededError reports which daily limit was already spent.
type QuotaExceededError struct {
	Kind  Kind
	Used  int64
	Limit int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: %s used %d of %d", ErrQuotaExceeded.Error(), e.Kind, e.Used, e.Limit)
}

func (e *QuotaExceededError) Is(target error) bool {
	return target == ErrQuotaExceeded
}

// Message is the user-facing rejection text.
func (e *QuotaExceededError) Message() string {
	if e.Kind == KindMessages {
		return "Daily message limit reached."
	}
	return "Daily token limit reached."
}

type Limits struct {
	DailyTokens   int64 `json:"daily_token_limit"`
	DailyMessages int64 `json:"daily_message_limit"`
}

// Status is today's ledger position against the configured limits.
type Status struct {
	Date              time.Time `json:"date"`
	Tokens            int64     `json:"tokens"`
	NumMessages       int64     `json:"num_messages"`
	TokenLimit        int64     `json:"daily_token_limit"`
	MessageLimit      int64     `json:"daily_message_limit"`
	TokensRemaining   int64     `json:"tokens_remaining"`
	MessagesRemaining int64     `json:"messages_remaining"`
}

type Guard interface {
	// CheckRateLimits is an unlocked pre-check against counters already spent.
	CheckRateLimits(ctx context.Context, userID snowflake.ID) error
	// UpdateRateLimits commits actual consumption under the row lock.
	UpdateRateLimits(ctx context.Context, userID snowflake.ID, tokensUsed, messageIncrement int64) error
	Status(ctx context.Context, userID snowflake.ID) (Status, error)
	Limits() Limits
}
