// Package domain contains the daily usage ledger model and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// DailyUsage accumulates one user's consumption for a single calendar day.
// Rows are created zeroed and only ever grow.
type DailyUsage struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID   `gorm:"not null;uniqueIndex:ux_daily_usage_user_date,priority:1" json:"user_id"`
	Date        datatypes.Date `gorm:"type:date;not null;uniqueIndex:ux_daily_usage_user_date,priority:2" json:"date"`
	Tokens      int64          `gorm:"not null;default:0" json:"tokens"`
	NumMessages int64          `gorm:"not null;default:0" json:"num_messages"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (DailyUsage) TableName() string { return "daily_usage" }

// CalendarDay returns midnight UTC of t's calendar date as observed in loc.
func CalendarDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
