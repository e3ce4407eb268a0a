package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gotransfer/internal/domain"
)

// TransferExecutor applies balance transfers exactly once per idempotency
// key. It holds no process-local state between calls: all coordination
// goes through the store's atomic conditional commit.
type TransferExecutor struct {
	store           AccountStore
	guard           *IdempotencyGuard
	commitRetrier   *Retrier
	conflictRetrier *Retrier
	logger          zerolog.Logger
	metrics         Metrics
}

// NewTransferExecutor creates a new TransferExecutor.
func NewTransferExecutor(
	store AccountStore,
	guard *IdempotencyGuard,
	policy RetryPolicy,
	logger zerolog.Logger,
	metrics Metrics,
) *TransferExecutor {
	policy = policy.withDefaults()
	if metrics == nil {
		metrics = NopMetrics{}
	}

	e := &TransferExecutor{
		store:   store,
		guard:   guard,
		logger:  logger,
		metrics: metrics,
	}

	e.commitRetrier = NewFixedRetrier(policy.CommitMaxAttempts, policy.CommitRetryDelay, isThrottled).
		OnRetry(func(err error, attempt int, next time.Duration) {
			e.metrics.IncCommitRetry("throttled")
			e.logger.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("commit throttled, retrying")
		})

	e.conflictRetrier = NewExponentialRetrier(policy.ConflictMaxAttempts, policy.ConflictInitialWait, policy.ConflictMaxWait, isConflict).
		OnRetry(func(err error, attempt int, next time.Duration) {
			e.metrics.IncCommitRetry("conflict")
			e.logger.Debug().Err(err).Int("attempt", attempt).Dur("retry_in", next).Msg("balances changed since read, restarting transfer")
		})

	return e
}

// Execute runs the transfer protocol for req:
//
//  1. return the recorded result if the key is already completed;
//  2. read sender and receiver;
//  3. validate amount and funds against those reads;
//  4. commit both balances and the completed record atomically, each
//     balance conditioned on the value read in step 2;
//  5. retry throttled commits in place, and restart from step 1 when a
//     condition fails;
//  6. record the key as failed if the commit could not be applied.
func (e *TransferExecutor) Execute(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	start := time.Now()

	result, err := e.execute(ctx, req)

	e.metrics.ObserveTransfer(outcomeOf(result, err), time.Since(start))

	return result, err
}

func (e *TransferExecutor) execute(ctx context.Context, req domain.TransferRequest) (*domain.TransferResult, error) {
	if err := domain.ValidateIdempotencyKey(req.IdempotencyKey); err != nil {
		return nil, err
	}

	logger := e.logger.With().
		Str("idempotency_key", req.IdempotencyKey).
		Str("sender", req.Sender).
		Str("receiver", req.Receiver).
		Int64("amount", req.Amount).
		Logger()

	run := &transferRun{executor: e, req: req}

	var result *domain.TransferResult
	_, err := e.conflictRetrier.Retry(ctx, func(ctx context.Context) error {
		res, err := run.attempt(ctx)
		if err != nil {
			return err
		}
		result = res
		return nil
	})

	if err == nil {
		if result.Replayed {
			logger.Info().Msg("transfer already completed, replaying")
		} else {
			logger.Info().
				Int64("sender_balance", result.SenderBalance).
				Int64("receiver_balance", result.ReceiverBalance).
				Int("commit_attempts", run.commitAttempts).
				Msg("transfer applied")
		}
		return result, nil
	}

	if domain.IsValidation(err) {
		logger.Info().Err(err).Msg("transfer rejected")
		return nil, err
	}

	if run.lastCommitErr == nil {
		logger.Error().Err(err).Msg("transfer aborted before commit")
		return nil, err
	}

	e.guard.Record(ctx, domain.TransactionRecord{
		IdempotencyKey: req.IdempotencyKey,
		Status:         domain.StatusFailed,
		Sender:         req.Sender,
		Receiver:       req.Receiver,
		Amount:         req.Amount,
		Detail:         err.Error(),
	})

	logger.Error().Err(err).Int("commit_attempts", run.commitAttempts).Msg("transfer failed")

	return nil, &domain.TransactionFailedError{
		IdempotencyKey: req.IdempotencyKey,
		Attempts:       run.commitAttempts,
		Err:            err,
	}
}

// transferRun carries the per-call state of one Execute.
type transferRun struct {
	executor       *TransferExecutor
	req            domain.TransferRequest
	commitAttempts int
	lastCommitErr  error
}

// attempt is one read-validate-commit cycle.
func (r *transferRun) attempt(ctx context.Context) (*domain.TransferResult, error) {
	e := r.executor
	req := r.req

	// Only a commit failure of this cycle may finalize the key as failed.
	r.lastCommitErr = nil

	record, err := e.guard.Check(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if record.Completed() {
		if record.Sender != req.Sender || record.Receiver != req.Receiver || record.Amount != req.Amount {
			e.logger.Warn().
				Str("idempotency_key", req.IdempotencyKey).
				Str("recorded_sender", record.Sender).
				Str("recorded_receiver", record.Receiver).
				Int64("recorded_amount", record.Amount).
				Str("sender", req.Sender).
				Str("receiver", req.Receiver).
				Int64("amount", req.Amount).
				Msg("idempotency key reused for a different transfer, replaying recorded result")
		}
		return record.Result(), nil
	}

	sender, err := e.store.GetAccount(ctx, req.Sender)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrSenderNotFound
		}
		return nil, fmt.Errorf("read sender %s: %w", req.Sender, err)
	}

	receiver, err := e.store.GetAccount(ctx, req.Receiver)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrReceiverNotFound
		}
		return nil, fmt.Errorf("read receiver %s: %w", req.Receiver, err)
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if err := sender.ValidateDebit(req.Amount); err != nil {
		return nil, err
	}

	if err := receiver.ValidateCredit(req.Amount); err != nil {
		return nil, err
	}

	newSenderBalance := sender.ApplyDebit(req.Amount)
	newReceiverBalance := receiver.ApplyCredit(req.Amount)

	updates := []domain.BalanceUpdate{
		{AccountID: sender.ID, Expected: sender.Balance, New: newSenderBalance},
		{AccountID: receiver.ID, Expected: receiver.Balance, New: newReceiverBalance},
	}

	completed := &domain.TransactionRecord{
		IdempotencyKey:  req.IdempotencyKey,
		Status:          domain.StatusCompleted,
		Sender:          req.Sender,
		Receiver:        req.Receiver,
		Amount:          req.Amount,
		SenderBalance:   newSenderBalance,
		ReceiverBalance: newReceiverBalance,
		UpdatedAt:       time.Now().UTC(),
	}

	attempts, err := e.commitRetrier.Retry(ctx, func(ctx context.Context) error {
		return e.store.TransactBalances(ctx, updates, completed)
	})
	r.commitAttempts += attempts
	if err != nil {
		r.lastCommitErr = err
		return nil, err
	}

	return &domain.TransferResult{
		IdempotencyKey:  req.IdempotencyKey,
		Sender:          req.Sender,
		Receiver:        req.Receiver,
		Amount:          req.Amount,
		SenderBalance:   newSenderBalance,
		ReceiverBalance: newReceiverBalance,
	}, nil
}

func isThrottled(err error) bool {
	return errors.Is(err, domain.ErrThrottled)
}

func isConflict(err error) bool {
	return errors.Is(err, domain.ErrConditionFailed)
}

func outcomeOf(result *domain.TransferResult, err error) string {
	switch {
	case err == nil && result.Replayed:
		return OutcomeReplayed
	case err == nil:
		return OutcomeApplied
	case domain.IsValidation(err):
		return OutcomeRejected
	case errors.Is(err, domain.ErrTransactionFailed):
		return OutcomeFailed
	default:
		return OutcomeError
	}
}
