package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatchesSentinelAndKind(t *testing.T) {
	err := fmt.Errorf("submit: %w", &Error{Kind: ErrRateLimited, StatusCode: 429})

	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider")
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited")
	}
	if errors.Is(err, ErrAuthFailed) {
		t.Fatalf("unexpected ErrAuthFailed")
	}
}

func TestErrorWrapsTransportCause(t *testing.T) {
	err := &Error{Kind: ErrUnavailable, Err: context.DeadlineExceeded}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline cause to be visible")
	}
	if got := err.Error(); got != "provider_error: provider_unavailable: context deadline exceeded" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestBuildMessages(t *testing.T) {
	msgs := BuildMessages("You are a helpful assistant.", "hi")
	if len(msgs) != 2 || msgs[0].Role != RoleSystem || msgs[1].Role != RoleUser || msgs[1].Content != "hi" {
		t.Fatalf("unexpected messages %+v", msgs)
	}
	if msgs := BuildMessages("", "hi"); len(msgs) != 1 {
		t.Fatalf("expected only the user message, got %+v", msgs)
	}
}
