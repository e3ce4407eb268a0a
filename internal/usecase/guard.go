package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/domain"
)

// IdempotencyGuard maps idempotency keys to transaction status. It is a
// best-effort de-duplication layer: Check and Record take no locks and race
// freely across callers sharing a key.
type IdempotencyGuard struct {
	log          TransactionLog
	retrier      *Retrier
	writeTimeout time.Duration
	logger       zerolog.Logger
	metrics      Metrics
}

// NewIdempotencyGuard creates a new IdempotencyGuard.
func NewIdempotencyGuard(log TransactionLog, policy RetryPolicy, logger zerolog.Logger, metrics Metrics) *IdempotencyGuard {
	policy = policy.withDefaults()
	if metrics == nil {
		metrics = NopMetrics{}
	}

	g := &IdempotencyGuard{
		log:          log,
		writeTimeout: time.Duration(policy.StatusWriteMaxAttempts)*policy.StatusWriteRetryDelay + statusWriteGrace,
		logger:       logger,
		metrics:      metrics,
	}

	g.retrier = NewFixedRetrier(policy.StatusWriteMaxAttempts, policy.StatusWriteRetryDelay, isTransientWriteError).
		OnRetry(func(err error, attempt int, next time.Duration) {
			g.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("idempotency status write failed, retrying")
		})

	return g
}

// Check reads the current record for key. A missing record is reported as
// StatusAbsent rather than an error.
func (g *IdempotencyGuard) Check(ctx context.Context, key string) (domain.TransactionRecord, error) {
	record, err := g.log.GetTransaction(ctx, key)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		return domain.TransactionRecord{IdempotencyKey: key, Status: domain.StatusAbsent}, nil
	}
	if err != nil {
		return domain.TransactionRecord{}, fmt.Errorf("check idempotency key %s: %w", key, err)
	}

	return *record, nil
}

// Record upserts record with bounded retries. The write is detached from
// ctx cancellation so a cancelled request can still finalize its status.
// When every attempt fails the write is dropped and only logged.
func (g *IdempotencyGuard) Record(ctx context.Context, record domain.TransactionRecord) {
	if !record.Status.Valid() {
		g.logger.Error().Str("idempotency_key", record.IdempotencyKey).Str("status", string(record.Status)).Msg("refusing to record invalid status")
		return
	}

	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.writeTimeout)
	defer cancel()

	attempts, err := g.retrier.Retry(ctx, func(ctx context.Context) error {
		return g.log.PutTransaction(ctx, &record)
	})
	if err != nil {
		g.metrics.IncStatusWriteDropped()
		g.logger.Warn().
			Err(err).
			Str("idempotency_key", record.IdempotencyKey).
			Str("status", string(record.Status)).
			Int("attempts", attempts).
			Msg("dropping idempotency status write")
	}
}

func isTransientWriteError(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}
