// Package openrouter is an OpenAI-compatible chat completions client.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/smallbiznis/lpt/internal/config"
	providerdomain "github.com/smallbiznis/lpt/internal/provider/domain"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

type Client struct {
	baseURL    string
	apiKey     string
	referer    string
	title      string
	httpClient *http.Client
	log        *zap.Logger
}

var _ providerdomain.Provider = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

func New(cfg config.ProviderConfig, log *zap.Logger, opts ...Option) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		referer:    cfg.Referer,
		title:      cfg.Title,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("provider.openrouter"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiRequest struct {
	Model    string       `json:"model"`
	Messages []apiMessage `json:"messages"`
}

type apiResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// Complete performs exactly one chat completion call. Failures are never retried.
func (c *Client) Complete(ctx context.Context, model string, messages []providerdomain.Message) (providerdomain.Completion, error) {
	body := apiRequest{Model: model, Messages: make([]apiMessage, len(messages))}
	for i, m := range messages {
		body.Messages[i] = apiMessage{Role: m.Role, Content: m.Content}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return providerdomain.Completion{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return providerdomain.Completion{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn("provider request failed", zap.String("model", model), zap.Error(err))
		return providerdomain.Completion{}, &providerdomain.Error{Kind: providerdomain.ErrUnavailable, Err: err}
	}
	defer resp.Body.Close()

	if err := mapHTTPError(resp); err != nil {
		c.log.Warn("provider returned error",
			zap.String("model", model),
			zap.Int("status", resp.StatusCode),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
		return providerdomain.Completion{}, err
	}

	var decoded apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return providerdomain.Completion{}, &providerdomain.Error{Kind: providerdomain.ErrMalformedResponse, Err: err}
	}
	if len(decoded.Choices) == 0 {
		return providerdomain.Completion{}, &providerdomain.Error{Kind: providerdomain.ErrMalformedResponse, Detail: "empty choices"}
	}
	if decoded.Usage == nil {
		return providerdomain.Completion{}, &providerdomain.Error{Kind: providerdomain.ErrMalformedResponse, Detail: "missing usage"}
	}

	text := ""
	if content := decoded.Choices[0].Message.Content; content != nil {
		text = *content
	}
	total := decoded.Usage.TotalTokens
	if total == 0 {
		total = decoded.Usage.PromptTokens + decoded.Usage.CompletionTokens
	}

	c.log.Debug("provider call completed",
		zap.String("model", model),
		zap.Int64("total_tokens", total),
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return providerdomain.Completion{
		ID:               decoded.ID,
		Model:            decoded.Model,
		Text:             text,
		PromptTokens:     decoded.Usage.PromptTokens,
		CompletionTokens: decoded.Usage.CompletionTokens,
		TotalTokens:      total,
	}, nil
}

func mapHTTPError(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Read body for error context, but don't fail if we can't.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	detail := strings.TrimSpace(string(body))

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return &providerdomain.Error{Kind: providerdomain.ErrRateLimited, StatusCode: resp.StatusCode}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &providerdomain.Error{Kind: providerdomain.ErrAuthFailed, StatusCode: resp.StatusCode}
	case http.StatusBadRequest:
		return &providerdomain.Error{Kind: providerdomain.ErrInvalidRequest, StatusCode: resp.StatusCode, Detail: detail}
	default:
		return &providerdomain.Error{Kind: providerdomain.ErrUnavailable, StatusCode: resp.StatusCode}
	}
}
