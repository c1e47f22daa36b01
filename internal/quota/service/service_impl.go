package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lpt/internal/clock"
	"github.com/smallbiznis/lpt/internal/config"
	obsmetrics "github.com/smallbiznis/lpt/internal/observability/metrics"
	quotadomain "github.com/smallbiznis/lpt/internal/quota/domain"
	usagedomain "github.com/smallbiznis/lpt/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config  config.Config
	Ledger  usagedomain.Ledger
	Clock   clock.Clock         `optional:"true"`
	Log     *zap.Logger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	ledger   usagedomain.Ledger
	clock    clock.Clock
	location *time.Location
	limits   quotadomain.Limits
	log      *zap.Logger
	metrics  *obsmetrics.Metrics
}

func NewService(p Params) (quotadomain.Guard, error) {
	loc, err := p.Config.Quota.Location()
	if err != nil {
		return nil, err
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}

	limits := quotadomain.Limits{
		DailyTokens:   p.Config.Quota.DailyTokenLimit,
		DailyMessages: p.Config.Quota.DailyMessageLimit,
	}
	log := p.Log.Named("quota.service")
	log.Info("quota limits loaded",
		zap.Int64("daily_token_limit", limits.DailyTokens),
		zap.Int64("daily_message_limit", limits.DailyMessages),
		zap.String("timezone", loc.String()),
	)

	return &Service{
		ledger:   p.Ledger,
		clock:    clk,
		location: loc,
		limits:   limits,
		log:      log,
		metrics:  p.Metrics,
	}, nil
}

func (s *Service) Limits() quotadomain.Limits {
	return s.limits
}

func (s *Service) CheckRateLimits(ctx context.Context, userID snowflake.ID) error {
	record, err := s.ledger.GetOrCreate(ctx, userID, s.today())
	if err != nil {
		s.metrics.RecordQuotaCheck(ctx, "error")
		return err
	}

	// strict greater-than: a user sitting exactly at the limit may still submit
	var exceeded *quotadomain.QuotaExceededError
	switch {
	case record.Tokens > s.limits.DailyTokens:
		exceeded = &quotadomain.QuotaExceededError{Kind: quotadomain.KindTokens, Used: record.Tokens, Limit: s.limits.DailyTokens}
	case record.NumMessages > s.limits.DailyMessages:
		exceeded = &quotadomain.QuotaExceededError{Kind: quotadomain.KindMessages, Used: record.NumMessages, Limit: s.limits.DailyMessages}
	}

	if exceeded != nil {
		s.metrics.RecordQuotaCheck(ctx, "rejected")
		s.metrics.RecordQuotaRejection(ctx, string(exceeded.Kind))
		return exceeded
	}

	s.metrics.RecordQuotaCheck(ctx, "allowed")
	return nil
}

func (s *Service) UpdateRateLimits(ctx context.Context, userID snowflake.ID, tokensUsed, messageIncrement int64) error {
	record, err := s.ledger.Commit(ctx, userID, s.today(), tokensUsed, messageIncrement)
	if err != nil {
		return err
	}

	s.metrics.RecordTokensCommitted(ctx, tokensUsed)
	s.log.Debug("usage committed",
		zap.String("user_id", userID.String()),
		zap.Int64("tokens_used", tokensUsed),
		zap.Int64("tokens_total", record.Tokens),
		zap.Int64("messages_total", record.NumMessages),
	)
	return nil
}

func (s *Service) Status(ctx context.Context, userID snowflake.ID) (quotadomain.Status, error) {
	day := s.today()
	record, err := s.ledger.GetOrCreate(ctx, userID, day)
	if err != nil {
		return quotadomain.Status{}, err
	}

	return quotadomain.Status{
		Date:              day,
		Tokens:            record.Tokens,
		NumMessages:       record.NumMessages,
		TokenLimit:        s.limits.DailyTokens,
		MessageLimit:      s.limits.DailyMessages,
		TokensRemaining:   remaining(s.limits.DailyTokens, record.Tokens),
		MessagesRemaining: remaining(s.limits.DailyMessages, record.NumMessages),
	}, nil
}

func (s *Service) today() time.Time {
	return usagedomain.CalendarDay(s.clock.Now(), s.location)
}

func remaining(limit, used int64) int64 {
	if used >= limit {
		return 0
	}
	return limit - used
}
