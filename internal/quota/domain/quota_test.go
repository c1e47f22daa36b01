package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestQuotaExceededErrorMatchesSentinel(t *testing.T) {
	var err error = &QuotaExceededError{Kind: KindMessages, Used: 51, Limit: 50}
	wrapped := fmt.Errorf("submit: %w", err)

	if !errors.Is(wrapped, ErrQuotaExceeded) {
		t.Fatalf("expected wrapped error to match ErrQuotaExceeded")
	}
	var target *QuotaExceededError
	if !errors.As(wrapped, &target) || target.Kind != KindMessages {
		t.Fatalf("expected messages kind, got %+v", target)
	}
	if got := target.Error(); got != "quota_exceeded: messages used 51 of 50" {
		t.Fatalf("unexpected error text %q", got)
	}
}
