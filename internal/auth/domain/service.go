package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	MinPasswordLength  = 8
	MaxPseudonymLength = 100
	SessionTTL         = 7 * 24 * time.Hour
)

type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	Authenticate(ctx context.Context, rawToken string) (*Session, error)
	GetUser(ctx context.Context, id snowflake.ID) (*User, error)
}

type SignupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Pseudonym string `json:"pseudonym"`
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

type LoginResult struct {
	User      *User
	RawToken  string
	ExpiresAt time.Time
	SessionID snowflake.ID
}
