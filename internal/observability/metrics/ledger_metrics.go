package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	LedgerOpCreate    = "create"
	LedgerOpLockRead  = "lock_read"
	LedgerOpIncrement = "increment"
	LedgerOpCommit    = "commit"
)

const (
	LedgerErrorReasonDeadlineExceeded     = "deadline_exceeded"
	LedgerErrorReasonDBLockTimeout        = "db_lock_timeout"
	LedgerErrorReasonSerializationFailure = "serialization_failure"
	LedgerErrorReasonUniqueViolation      = "unique_violation"
	LedgerErrorReasonDB                   = "db"
	LedgerErrorReasonUnknown              = "unknown"
)

const (
	LockResourceDailyUsage = "daily_usage"
)

// LedgerMetrics captures daily usage ledger contention and failure signals.
type LedgerMetrics struct {
	createRaces      prometheus.Counter
	commits          prometheus.Counter
	errors           *prometheus.CounterVec
	dbLockWait       *prometheus.HistogramVec
	committedTokens  prometheus.Counter
	lockWaitObserver map[string]prometheus.Observer
}

var (
	ledgerMetricsOnce sync.Once
	ledgerMetrics     *LedgerMetrics
)

// Ledger returns the singleton ledger metrics registry.
func Ledger() *LedgerMetrics {
	return LedgerWithConfig(Config{})
}

// LedgerWithConfig returns the singleton ledger metrics registry using config labels.
func LedgerWithConfig(cfg Config) *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerMetrics = newLedgerMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return ledgerMetrics
}

// ResetLedgerMetricsForTest resets the ledger metrics singleton for tests.
func ResetLedgerMetricsForTest() {
	ledgerMetricsOnce = sync.Once{}
	ledgerMetrics = nil
}

func newLedgerMetrics(registerer prometheus.Registerer, cfg Config) *LedgerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "lpt"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	createRaces := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "lpt_ledger_create_races_total",
		Help:        "Daily usage inserts that lost the race and were re-read.",
		ConstLabels: constLabels,
	})
	commits := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "lpt_ledger_commits_total",
		Help:        "Committed usage increments.",
		ConstLabels: constLabels,
	})
	committedTokens := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "lpt_ledger_committed_tokens_total",
		Help:        "Tokens added to the daily usage ledger.",
		ConstLabels: constLabels,
	})
	ledgerErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "lpt_ledger_errors_total",
		Help:        "Ledger errors by operation and low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"op", "reason"})
	dbLockWait := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "lpt_ledger_db_lock_wait_seconds",
		Help:        "Ledger DB lock wait time for SELECT FOR UPDATE contention.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		ConstLabels: constLabels,
	}, []string{"resource"})

	registerer.MustRegister(
		createRaces,
		commits,
		committedTokens,
		ledgerErrors,
		dbLockWait,
	)

	return &LedgerMetrics{
		createRaces:     createRaces,
		commits:         commits,
		errors:          ledgerErrors,
		dbLockWait:      dbLockWait,
		committedTokens: committedTokens,
		lockWaitObserver: map[string]prometheus.Observer{
			LockResourceDailyUsage: dbLockWait.WithLabelValues(LockResourceDailyUsage),
		},
	}
}

// IncCreateRace counts an insert that hit the unique index and fell back to a re-read.
func (m *LedgerMetrics) IncCreateRace() {
	if m == nil || m.createRaces == nil {
		return
	}
	m.createRaces.Inc()
}

// ObserveCommit records a successful increment.
func (m *LedgerMetrics) ObserveCommit(tokens int64) {
	if m == nil {
		return
	}
	if m.commits != nil {
		m.commits.Inc()
	}
	if m.committedTokens != nil && tokens > 0 {
		m.committedTokens.Add(float64(tokens))
	}
}

// IncError increments the ledger error counter with classification.
func (m *LedgerMetrics) IncError(op string, err error) {
	if m == nil || err == nil || m.errors == nil {
		return
	}
	m.errors.WithLabelValues(op, ClassifyLedgerError(err)).Inc()
}

// ObserveDBLockWait records lock wait time for SELECT FOR UPDATE work.
func (m *LedgerMetrics) ObserveDBLockWait(resource string, duration time.Duration) {
	if m == nil {
		return
	}
	if observer, ok := m.lockWaitObserver[resource]; ok {
		observer.Observe(duration.Seconds())
		return
	}
	m.dbLockWait.WithLabelValues(resource).Observe(duration.Seconds())
}

// ClassifyLedgerError maps ledger errors to low-cardinality reasons.
func ClassifyLedgerError(err error) string {
	if err == nil {
		return LedgerErrorReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return LedgerErrorReasonDeadlineExceeded
	}
	if isDBLockTimeout(err) {
		return LedgerErrorReasonDBLockTimeout
	}
	if isSerializationFailure(err) {
		return LedgerErrorReasonSerializationFailure
	}
	if isUniqueViolation(err) {
		return LedgerErrorReasonUniqueViolation
	}
	if isDBError(err) {
		return LedgerErrorReasonDB
	}
	return LedgerErrorReasonUnknown
}

func isDBLockTimeout(err error) bool {
	return hasPGCode(err, "55P03")
}

func isSerializationFailure(err error) bool {
	return hasPGCode(err, "40001")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return hasPGCode(err, "23505")
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func isDBError(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrInvalidField) ||
		errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrMissingWhereClause) ||
		errors.Is(err, gorm.ErrInvalidValue) ||
		errors.Is(err, gorm.ErrNotImplemented) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
