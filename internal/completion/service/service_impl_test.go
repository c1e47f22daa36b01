package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	completiondomain "github.com/smallbiznis/lpt/internal/completion/domain"
	"github.com/smallbiznis/lpt/internal/config"
	"github.com/smallbiznis/lpt/internal/modelregistry"
	providerdomain "github.com/smallbiznis/lpt/internal/provider/domain"
	quotadomain "github.com/smallbiznis/lpt/internal/quota/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type providerStub struct {
	mu       sync.Mutex
	calls    int
	model    string
	messages []providerdomain.Message
	resp     providerdomain.Completion
	err      error
}

func (p *providerStub) Complete(ctx context.Context, model string, messages []providerdomain.Message) (providerdomain.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.model = model
	p.messages = messages
	return p.resp, p.err
}

func (p *providerStub) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type guardStub struct {
	mu        sync.Mutex
	checkErr  error
	commitErr error
	checks    int
	commits   []int64
	messages  []int64
}

func (g *guardStub) CheckRateLimits(ctx context.Context, userID snowflake.ID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks++
	return g.checkErr
}

func (g *guardStub) UpdateRateLimits(ctx context.Context, userID snowflake.ID, tokensUsed, messageIncrement int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.commitErr != nil {
		return g.commitErr
	}
	g.commits = append(g.commits, tokensUsed)
	g.messages = append(g.messages, messageIncrement)
	return nil
}

func (g *guardStub) Status(ctx context.Context, userID snowflake.ID) (quotadomain.Status, error) {
	return quotadomain.Status{}, nil
}

func (g *guardStub) Limits() quotadomain.Limits {
	return quotadomain.Limits{}
}

func TestSubmitHappyPath(t *testing.T) {
	provider := &providerStub{resp: providerdomain.Completion{Text: "42", PromptTokens: 8, CompletionTokens: 2, TotalTokens: 10}}
	guard := &guardStub{}
	svc, logs := newTestService(t, guard, provider)

	resp, err := svc.Submit(context.Background(), 99, completiondomain.SubmitRequest{
		ModelID: 1,
		Prompt:  "meaning of life?",
		Sources: []string{"hitchhiker", "guide"},
	})
	require.NoError(t, err)

	assert.Equal(t, "42", resp.ResponseText)
	assert.Equal(t, int64(10), resp.TotalTokens)
	assert.Equal(t, 1, resp.ModelID)
	assert.NotEmpty(t, resp.SubmissionID)

	assert.Equal(t, "test/model-a", provider.model)
	require.Len(t, provider.messages, 2)
	assert.Equal(t, "You are a helpful assistant.", provider.messages[0].Content)
	assert.Equal(t, "meaning of life?\n\nSOURCES:\nhitchhiker\n\nguide", provider.messages[1].Content)

	assert.Equal(t, []int64{10}, guard.commits)
	assert.Equal(t, []int64{quotadomain.DefaultMessageIncrement}, guard.messages)

	var states []string
	for _, entry := range logs.FilterMessage("submission transition").All() {
		assert.Equal(t, resp.SubmissionID, entry.ContextMap()["submission_id"])
		states = append(states, entry.ContextMap()["to"].(string))
	}
	assert.Equal(t, []string{"CHECKED", "CALLED", "COMMITTED"}, states)
}

func TestSubmitOverLimitNeverCallsProvider(t *testing.T) {
	provider := &providerStub{}
	guard := &guardStub{checkErr: &quotadomain.QuotaExceededError{Kind: quotadomain.KindTokens, Used: 105, Limit: 100}}
	svc, logs := newTestService(t, guard, provider)

	_, err := svc.Submit(context.Background(), 99, completiondomain.SubmitRequest{ModelID: 1, Prompt: "hi"})
	require.ErrorIs(t, err, quotadomain.ErrQuotaExceeded)

	assert.Equal(t, 0, provider.Calls())
	assert.Empty(t, guard.commits)

	var states []string
	for _, entry := range logs.FilterMessage("submission transition").All() {
		states = append(states, entry.ContextMap()["to"].(string))
	}
	assert.Equal(t, []string{"CHECKED", "REJECTED"}, states)
}

func TestSubmitProviderFailureCommitsNothing(t *testing.T) {
	provider := &providerStub{err: &providerdomain.Error{Kind: providerdomain.ErrUnavailable, StatusCode: 503}}
	guard := &guardStub{}
	svc, logs := newTestService(t, guard, provider)

	_, err := svc.Submit(context.Background(), 99, completiondomain.SubmitRequest{ModelID: 1, Prompt: "hi"})
	require.ErrorIs(t, err, providerdomain.ErrProvider)

	assert.Equal(t, 1, provider.Calls())
	assert.Empty(t, guard.commits)
	assert.Len(t, logs.FilterField(zap.String("to", "FAILED")).All(), 1)
}

func TestSubmitCommitFailureSurfaces(t *testing.T) {
	provider := &providerStub{resp: providerdomain.Completion{TotalTokens: 10}}
	guard := &guardStub{commitErr: errors.New("database is locked")}
	svc, _ := newTestService(t, guard, provider)

	_, err := svc.Submit(context.Background(), 99, completiondomain.SubmitRequest{ModelID: 1, Prompt: "hi"})
	require.Error(t, err)
	assert.Equal(t, 1, provider.Calls())
}

func TestSubmitValidation(t *testing.T) {
	provider := &providerStub{}
	guard := &guardStub{}
	svc, _ := newTestService(t, guard, provider)
	ctx := context.Background()

	_, err := svc.Submit(ctx, 99, completiondomain.SubmitRequest{ModelID: 404, Prompt: "hi"})
	assert.ErrorIs(t, err, completiondomain.ErrUnknownModel)

	_, err = svc.Submit(ctx, 99, completiondomain.SubmitRequest{ModelID: 1, Prompt: "   "})
	assert.ErrorIs(t, err, completiondomain.ErrEmptyPrompt)

	_, err = svc.Submit(ctx, 0, completiondomain.SubmitRequest{ModelID: 1, Prompt: "hi"})
	assert.ErrorIs(t, err, completiondomain.ErrInvalidUser)

	// unknown model is rejected before the quota is consulted
	assert.Equal(t, 0, guard.checks)
	assert.Equal(t, 0, provider.Calls())
}

func newTestService(t *testing.T, guard quotadomain.Guard, provider providerdomain.Provider) (completiondomain.Service, *observer.ObservedLogs) {
	t.Helper()
	registry, err := modelregistry.NewStatic(
		modelregistry.Model{ID: 1, APIName: "test/model-a", PrettyName: "Model A"},
	)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewService(Params{
		Config:   config.Config{Provider: config.ProviderConfig{SystemPrompt: config.DefaultSystemPrompt}},
		Models:   registry,
		Guard:    guard,
		Provider: provider,
		Log:      zap.New(core),
	})
	return svc, logs
}
