package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lpt/internal/auth/domain"
	"github.com/smallbiznis/lpt/internal/auth/password"
	"github.com/smallbiznis/lpt/internal/auth/repository"
	"github.com/smallbiznis/lpt/internal/clock"
	"github.com/smallbiznis/lpt/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *clock.FakeClock) {
	t.Helper()

	conn := dbtest.Open(t, &domain.User{}, &domain.Session{})
	repo, sessionRepo := repository.New(conn)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}
	clk := clock.NewFakeClock(time.Date(2025, 6, 14, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		Log:         zap.NewNop(),
		Repo:        repo,
		SessionRepo: sessionRepo,
		GenID:       node,
		Clock:       clk,
	}).(*Service)
	svc.hash = func(plain string) (string, error) {
		return password.HashWith(password.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}, plain)
	}
	return svc, clk
}

func TestSignupNormalizesEmail(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "  Alice <Alice@Example.COM> ",
		Password: "correct-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "alice", user.Pseudonym)
	assert.NotContains(t, user.PasswordHash, "correct-password")
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  domain.SignupRequest
		want error
	}{
		{"bad email", domain.SignupRequest{Email: "not-an-email", Password: "long-enough"}, domain.ErrInvalidEmail},
		{"short password", domain.SignupRequest{Email: "a@example.com", Password: "short"}, domain.ErrWeakPassword},
		{"long pseudonym", domain.SignupRequest{Email: "a@example.com", Password: "long-enough", Pseudonym: strings.Repeat("x", 101)}, domain.ErrPseudonymTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tc.req)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, domain.SignupRequest{Email: "bob@example.com", Password: "strong-password"})
	require.NoError(t, err)

	_, err = svc.Signup(ctx, domain.SignupRequest{Email: "BOB@example.com", Password: "another-password"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, domain.SignupRequest{Email: "alice@example.com", Password: "correct-password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "correct-password"})
	require.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLoginAuthenticateLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, domain.SignupRequest{Email: "carol@example.com", Password: "correct-password", Pseudonym: "carol"})
	require.NoError(t, err)

	result, err := svc.Login(ctx, domain.LoginRequest{Email: "carol@example.com", Password: "correct-password"})
	require.NoError(t, err)
	require.NotEmpty(t, result.RawToken)
	assert.Equal(t, user.ID, result.User.ID)

	session, err := svc.Authenticate(ctx, result.RawToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.UserID)
	assert.NotEqual(t, result.RawToken, session.TokenHash)

	require.NoError(t, svc.Logout(ctx, result.RawToken))
	_, err = svc.Authenticate(ctx, result.RawToken)
	require.ErrorIs(t, err, domain.ErrSessionRevoked)

	// logging out twice is harmless
	require.NoError(t, svc.Logout(ctx, result.RawToken))
}

func TestAuthenticateExpired(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, domain.SignupRequest{Email: "dave@example.com", Password: "correct-password"})
	require.NoError(t, err)
	result, err := svc.Login(ctx, domain.LoginRequest{Email: "dave@example.com", Password: "correct-password"})
	require.NoError(t, err)

	clk.Advance(domain.SessionTTL)
	_, err = svc.Authenticate(ctx, result.RawToken)
	require.ErrorIs(t, err, domain.ErrSessionExpired)
}

func TestAuthenticateUnknownToken(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Authenticate(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, domain.ErrInvalidSession)
	_, err = svc.Authenticate(context.Background(), "  ")
	require.ErrorIs(t, err, domain.ErrInvalidSession)
}
