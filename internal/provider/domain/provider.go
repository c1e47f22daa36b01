package domain

import (
	"context"
	"errors"
	"fmt"
)

const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type Message struct {
	Role    string
	Content string
}

// Completion carries the model output and the provider-metered token usage.
type Completion struct {
	ID               string
	Model            string
	Text             string
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Provider interface {
	Complete(ctx context.Context, model string, messages []Message) (Completion, error)
}

var (
	ErrProvider = errors.New("provider_error")

	ErrAuthFailed        = errors.New("provider_auth_failed")
	ErrRateLimited       = errors.New("provider_rate_limited")
	ErrInvalidRequest    = errors.New("provider_invalid_request")
	ErrUnavailable       = errors.New("provider_unavailable")
	ErrMalformedResponse = errors.New("provider_malformed_response")
)

// Error is a failed provider call. It matches both ErrProvider and its Kind.
type Error struct {
	Kind       error
	StatusCode int
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	msg := ErrProvider.Error()
	if e.Kind != nil {
		msg += ": " + e.Kind.Error()
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{ErrProvider}
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// BuildMessages frames a single-turn conversation.
func BuildMessages(systemPrompt, prompt string) []Message {
	msgs := make([]Message, 0, 2)
	if systemPrompt != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: systemPrompt})
	}
	return append(msgs, Message{Role: RoleUser, Content: prompt})
}
