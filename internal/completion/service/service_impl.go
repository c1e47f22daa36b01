package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	completiondomain "github.com/smallbiznis/lpt/internal/completion/domain"
	"github.com/smallbiznis/lpt/internal/config"
	"github.com/smallbiznis/lpt/internal/modelregistry"
	obscontext "github.com/smallbiznis/lpt/internal/observability/context"
	"github.com/smallbiznis/lpt/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/lpt/internal/observability/metrics"
	providerdomain "github.com/smallbiznis/lpt/internal/provider/domain"
	quotadomain "github.com/smallbiznis/lpt/internal/quota/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config   config.Config
	Models   modelregistry.Registry
	Guard    quotadomain.Guard
	Provider providerdomain.Provider
	Log      *zap.Logger
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	models       modelregistry.Registry
	guard        quotadomain.Guard
	provider     providerdomain.Provider
	systemPrompt string
	log          *zap.Logger
	metrics      *obsmetrics.Metrics
}

func NewService(p Params) completiondomain.Service {
	return &Service{
		models:       p.Models,
		guard:        p.Guard,
		provider:     p.Provider,
		systemPrompt: p.Config.Provider.SystemPrompt,
		log:          p.Log.Named("completion.service"),
		metrics:      p.Metrics,
	}
}

// submission logs every lifecycle step under one ulid.
type submission struct {
	id    string
	state completiondomain.State
	log   *zap.Logger
}

func (s *submission) transition(to completiondomain.State, fields ...zap.Field) error {
	if !completiondomain.CanTransition(s.state, to) {
		return completiondomain.ErrIllegalLifecycle
	}
	from := s.state
	s.state = to
	s.log.Info("submission transition",
		append([]zap.Field{
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		}, fields...)...,
	)
	return nil
}

func (s *Service) Submit(ctx context.Context, userID snowflake.ID, req completiondomain.SubmitRequest) (*completiondomain.SubmitResponse, error) {
	if userID == 0 {
		return nil, completiondomain.ErrInvalidUser
	}
	model, ok := s.models.Lookup(req.ModelID)
	if !ok {
		return nil, completiondomain.ErrUnknownModel
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, completiondomain.ErrEmptyPrompt
	}
	prompt := completiondomain.CombinePrompt(req.Prompt, req.Sources)

	sub := &submission{
		id:    ulid.Make().String(),
		state: completiondomain.StatePending,
	}
	ctx = obscontext.WithSubmissionID(ctx, sub.id)
	if obscontext.UserIDFromContext(ctx) == "" {
		ctx = obscontext.WithUserID(ctx, userID.String())
	}
	sub.log = logger.WithContext(ctx, s.log).With(zap.Int("model_id", model.ID))
	sub.log.Debug("submission received", zap.Int("sources", len(req.Sources)))

	checkErr := s.guard.CheckRateLimits(ctx, userID)
	if err := sub.transition(completiondomain.StateChecked); err != nil {
		return nil, err
	}
	if checkErr != nil {
		if errors.Is(checkErr, quotadomain.ErrQuotaExceeded) {
			_ = sub.transition(completiondomain.StateRejected, zap.String("reason", checkErr.Error()))
		} else {
			sub.log.Error("quota check failed", zap.Error(checkErr))
		}
		return nil, checkErr
	}

	completion, callErr := s.provider.Complete(ctx, model.APIName, providerdomain.BuildMessages(s.systemPrompt, prompt))
	if err := sub.transition(completiondomain.StateCalled); err != nil {
		return nil, err
	}
	if callErr != nil {
		s.metrics.RecordProviderCall(ctx, model.APIName, "error")
		_ = sub.transition(completiondomain.StateFailed, zap.Error(callErr))
		return nil, callErr
	}
	s.metrics.RecordProviderCall(ctx, model.APIName, "ok")

	if err := s.guard.UpdateRateLimits(ctx, userID, completion.TotalTokens, quotadomain.DefaultMessageIncrement); err != nil {
		// tokens were metered upstream but are not recorded
		_ = sub.transition(completiondomain.StateFailed,
			zap.Int64("uncommitted_tokens", completion.TotalTokens),
			zap.Error(err),
		)
		return nil, err
	}
	_ = sub.transition(completiondomain.StateCommitted, zap.Int64("total_tokens", completion.TotalTokens))

	return &completiondomain.SubmitResponse{
		SubmissionID:     sub.id,
		ModelID:          model.ID,
		ResponseText:     completion.Text,
		PromptTokens:     completion.PromptTokens,
		CompletionTokens: completion.CompletionTokens,
		TotalTokens:      completion.TotalTokens,
	}, nil
}
