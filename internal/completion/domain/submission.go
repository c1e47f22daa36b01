package domain

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type SubmitRequest struct {
	ModelID int      `json:"model_id"`
	Prompt  string   `json:"prompt"`
	Sources []string `json:"sources_list"`
}

type SubmitResponse struct {
	SubmissionID     string `json:"submission_id"`
	ModelID          int    `json:"model_id"`
	ResponseText     string `json:"response_text"`
	PromptTokens     int64  `json:"prompt_tokens"`
	CompletionTokens int64  `json:"completion_tokens"`
	TotalTokens      int64  `json:"total_tokens"`
}

type Service interface {
	Submit(ctx context.Context, userID snowflake.ID, req SubmitRequest) (*SubmitResponse, error)
}

// State tracks one submission through the quota protocol.
type State string

const (
	StatePending   State = "PENDING"
	StateChecked   State = "CHECKED"
	StateCalled    State = "CALLED"
	StateCommitted State = "COMMITTED"
	StateRejected  State = "REJECTED"
	StateFailed    State = "FAILED"
)

var transitions = map[State][]State{
	StatePending: {StateChecked},
	StateChecked: {StateCalled, StateRejected},
	StateCalled:  {StateCommitted, StateFailed},
}

// CanTransition reports whether from -> to is a legal step.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

var (
	ErrUnknownModel     = errors.New("unknown_model")
	ErrEmptyPrompt      = errors.New("empty_prompt")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrIllegalLifecycle = errors.New("illegal_submission_transition")
)

// CombinePrompt appends the sources block to the prompt when sources are given.
func CombinePrompt(prompt string, sources []string) string {
	kept := make([]string, 0, len(sources))
	for _, src := range sources {
		if strings.TrimSpace(src) == "" {
			continue
		}
		kept = append(kept, src)
	}
	if len(kept) == 0 {
		return prompt
	}
	return prompt + "\n\nSOURCES:\n" + strings.Join(kept, "\n\n")
}
