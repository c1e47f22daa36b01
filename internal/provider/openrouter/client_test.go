package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/lpt/internal/config"
	providerdomain "github.com/smallbiznis/lpt/internal/provider/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCompleteSendsMessagesAndParsesUsage(t *testing.T) {
	var got apiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "lpt", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "gen-1",
			"model": "minimax/minimax-m2:free",
			"choices": [{"message": {"role": "assistant", "content": "Hello!"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	client := New(config.ProviderConfig{BaseURL: srv.URL + "/", APIKey: "sk-test", Title: "lpt"}, zap.NewNop())
	completion, err := client.Complete(context.Background(), "minimax/minimax-m2:free",
		providerdomain.BuildMessages("You are a helpful assistant.", "hi"))
	require.NoError(t, err)

	assert.Equal(t, "Hello!", completion.Text)
	assert.Equal(t, int64(12), completion.PromptTokens)
	assert.Equal(t, int64(3), completion.CompletionTokens)
	assert.Equal(t, int64(15), completion.TotalTokens)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "minimax/minimax-m2:free", got.Model)
	assert.Equal(t, apiMessage{Role: "system", Content: "You are a helpful assistant."}, got.Messages[0])
	assert.Equal(t, apiMessage{Role: "user", Content: "hi"}, got.Messages[1])
}

func TestCompleteNullContentIsEmptyText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null}}],"usage":{"prompt_tokens":4,"completion_tokens":0}}`))
	}))
	defer srv.Close()

	completion, err := New(config.ProviderConfig{BaseURL: srv.URL}, zap.NewNop()).
		Complete(context.Background(), "m", providerdomain.BuildMessages("", "hi"))
	require.NoError(t, err)
	assert.Equal(t, "", completion.Text)
	assert.Equal(t, int64(4), completion.TotalTokens)
}

func TestCompleteMapsHTTPErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{status: http.StatusTooManyRequests, want: providerdomain.ErrRateLimited},
		{status: http.StatusUnauthorized, want: providerdomain.ErrAuthFailed},
		{status: http.StatusForbidden, want: providerdomain.ErrAuthFailed},
		{status: http.StatusBadRequest, want: providerdomain.ErrInvalidRequest},
		{status: http.StatusBadGateway, want: providerdomain.ErrUnavailable},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"error":{"message":"nope"}}`, tc.status)
			}))
			defer srv.Close()

			_, err := New(config.ProviderConfig{BaseURL: srv.URL}, zap.NewNop()).
				Complete(context.Background(), "m", providerdomain.BuildMessages("", "hi"))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, providerdomain.ErrProvider) {
				t.Fatalf("expected ErrProvider, got %v", err)
			}
		})
	}
}

func TestCompleteMalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"not json":      `<html>`,
		"empty choices": `{"choices":[],"usage":{"total_tokens":1}}`,
		"missing usage": `{"choices":[{"message":{"content":"x"}}]}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := New(config.ProviderConfig{BaseURL: srv.URL}, zap.NewNop()).
				Complete(context.Background(), "m", nil)
			if !errors.Is(err, providerdomain.ErrMalformedResponse) {
				t.Fatalf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestCompleteTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := New(config.ProviderConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, zap.NewNop())
	_, err := client.Complete(context.Background(), "m", nil)
	if !errors.Is(err, providerdomain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
