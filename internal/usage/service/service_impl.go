package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/lpt/internal/clock"
	obsmetrics "github.com/smallbiznis/lpt/internal/observability/metrics"
	usagedomain "github.com/smallbiznis/lpt/internal/usage/domain"
	"github.com/smallbiznis/lpt/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    usagedomain.Repository
	Clock   clock.Clock                `optional:"true"`
	Metrics *obsmetrics.LedgerMetrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    usagedomain.Repository
	clock   clock.Clock
	metrics *obsmetrics.LedgerMetrics
}

func NewService(p ServiceParam) usagedomain.Ledger {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("usage.ledger"),
		genID:   p.GenID,
		repo:    p.Repo,
		clock:   clk,
		metrics: p.Metrics,
	}
}

func (s *Service) GetOrCreate(ctx context.Context, userID snowflake.ID, day time.Time) (*usagedomain.DailyUsage, error) {
	day, err := normalizeKey(userID, day)
	if err != nil {
		return nil, err
	}
	return s.getOrCreate(ctx, s.db, userID, day, false)
}

func (s *Service) GetOrCreateForUpdate(ctx context.Context, tx *gorm.DB, userID snowflake.ID, day time.Time) (*usagedomain.DailyUsage, error) {
	if tx == nil {
		return nil, usagedomain.ErrMissingTx
	}
	day, err := normalizeKey(userID, day)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	record, err := s.getOrCreate(ctx, tx, userID, day, true)
	s.metrics.ObserveDBLockWait(obsmetrics.LockResourceDailyUsage, time.Since(start))
	if err != nil {
		s.metrics.IncError(obsmetrics.LedgerOpLockRead, err)
		return nil, err
	}
	return record, nil
}

func (s *Service) Increment(ctx context.Context, tx *gorm.DB, record *usagedomain.DailyUsage, tokensDelta, messageDelta int64) error {
	if tx == nil {
		return usagedomain.ErrMissingTx
	}
	if record == nil || record.ID == 0 {
		return usagedomain.ErrRecordNotFound
	}
	if tokensDelta < 0 || messageDelta < 0 {
		return usagedomain.ErrNegativeDelta
	}

	if err := s.repo.Increment(ctx, tx, record.ID, tokensDelta, messageDelta, s.clock.Now()); err != nil {
		s.metrics.IncError(obsmetrics.LedgerOpIncrement, err)
		return err
	}

	updated, err := s.repo.FindByID(ctx, tx, record.ID)
	if err != nil {
		return err
	}
	if updated == nil {
		return usagedomain.ErrRecordNotFound
	}
	*record = *updated
	return nil
}

func (s *Service) Commit(ctx context.Context, userID snowflake.ID, day time.Time, tokensDelta, messageDelta int64) (*usagedomain.DailyUsage, error) {
	if tokensDelta < 0 || messageDelta < 0 {
		return nil, usagedomain.ErrNegativeDelta
	}

	var committed *usagedomain.DailyUsage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.GetOrCreateForUpdate(ctx, tx, userID, day)
		if err != nil {
			return err
		}
		if err := s.Increment(ctx, tx, record, tokensDelta, messageDelta); err != nil {
			return err
		}
		committed = record
		return nil
	})
	if err != nil {
		s.metrics.IncError(obsmetrics.LedgerOpCommit, err)
		s.log.Error("usage commit failed",
			zap.String("user_id", userID.String()),
			zap.String("date", day.Format(time.DateOnly)),
			zap.Int64("tokens_delta", tokensDelta),
			zap.Int64("message_delta", messageDelta),
			zap.Error(err),
		)
		return nil, fmt.Errorf("commit usage: %w", err)
	}

	s.metrics.ObserveCommit(tokensDelta)
	return committed, nil
}

// getOrCreate reads the row, inserts a zeroed one when absent and falls back
// to a re-read when a concurrent insert won the unique index.
func (s *Service) getOrCreate(ctx context.Context, conn *gorm.DB, userID snowflake.ID, day time.Time, forUpdate bool) (*usagedomain.DailyUsage, error) {
	record, err := s.repo.FindByUserAndDate(ctx, conn, userID, day, forUpdate)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}

	now := s.clock.Now()
	candidate := &usagedomain.DailyUsage{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Date:      datatypes.Date(day),
		CreatedAt: now,
		UpdatedAt: now,
	}

	// nested Transaction becomes a savepoint when conn is already a tx,
	// so a duplicate key does not poison the caller's transaction
	insertErr := conn.WithContext(ctx).Transaction(func(sp *gorm.DB) error {
		return s.repo.Insert(ctx, sp, candidate)
	})
	if insertErr == nil {
		return candidate, nil
	}
	if !db.IsDuplicateKeyErr(insertErr) {
		s.metrics.IncError(obsmetrics.LedgerOpCreate, insertErr)
		return nil, insertErr
	}

	s.metrics.IncCreateRace()
	s.log.Debug("daily usage created concurrently, re-reading",
		zap.String("user_id", userID.String()),
		zap.String("date", day.Format(time.DateOnly)),
	)

	record, err = s.repo.FindByUserAndDate(ctx, conn, userID, day, forUpdate)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, usagedomain.ErrRecordNotFound
	}
	return record, nil
}

func normalizeKey(userID snowflake.ID, day time.Time) (time.Time, error) {
	if userID == 0 {
		return time.Time{}, usagedomain.ErrInvalidUser
	}
	if day.IsZero() {
		return time.Time{}, usagedomain.ErrInvalidDate
	}
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}
