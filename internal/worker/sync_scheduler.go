package worker

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docuchat/billing/internal/config"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/types"
	"github.com/sourcegraph/conc"
)

// Syncer is the reconciliation entrypoint the scheduler drives. The service
// layer satisfies it.
type Syncer interface {
	SyncOrganization(ctx context.Context, organizationID string) error
}

// ScheduleOptions tunes one scheduled sync. Zero values fall back to the
// configured defaults.
type ScheduleOptions struct {
	// Delay before the first attempt, giving the provider time to settle
	// after a mutation.
	Delay time.Duration

	// MaxRetries bounds the attempts after the first one.
	MaxRetries int

	// Interval between retry attempts.
	Interval time.Duration
}

// SyncHandle makes a scheduled sync observable: Done closes when the task
// has finished, Err reports its final outcome. Callers on the mutation path
// ignore the handle; tests wait on it.
type SyncHandle struct {
	OrganizationID string

	done chan struct{}
	err  error
}

// Done returns a channel closed when the sync has finished, successfully or
// not.
func (h *SyncHandle) Done() <-chan struct{} {
	return h.done
}

// Err returns the final error of the sync. Only valid after Done is closed.
func (h *SyncHandle) Err() error {
	return h.err
}

// SyncScheduler runs delayed, retried reconciliation tasks off the request
// path. Tasks are supervised: each one is tracked by a wait group and
// exposed through a SyncHandle, and Shutdown drains them.
type SyncScheduler struct {
	syncer Syncer
	cfg    config.SyncConfig
	logger *logger.Logger

	wg     conc.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

func NewSyncScheduler(cfg *config.Configuration, syncer Syncer, logger *logger.Logger) *SyncScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncScheduler{
		syncer: syncer,
		cfg:    cfg.Sync,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// ScheduleSync queues a reconciliation for the organization after the
// configured delay. It never blocks and never surfaces task failures to the
// caller; the returned handle is how tests and diagnostics observe the task.
func (s *SyncScheduler) ScheduleSync(organizationID string, opts ScheduleOptions) *SyncHandle {
	if opts.Delay == 0 {
		opts.Delay = s.cfg.Delay
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = s.cfg.MaxRetries
	}
	if opts.Interval == 0 {
		opts.Interval = s.cfg.RetryInterval
	}

	handle := &SyncHandle{
		OrganizationID: organizationID,
		done:           make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		handle.err = context.Canceled
		close(handle.done)
		s.logger.Warnw("sync scheduler is shut down, dropping sync",
			"organization_id", organizationID,
		)
		return handle
	}
	s.wg.Go(func() {
		defer close(handle.done)
		handle.err = s.run(organizationID, opts)
	})
	s.mu.Unlock()

	s.logger.Infow("scheduled background sync",
		"organization_id", organizationID,
		"delay", opts.Delay,
		"max_retries", opts.MaxRetries,
		"retry_interval", opts.Interval,
	)
	return handle
}

func (s *SyncScheduler) run(organizationID string, opts ScheduleOptions) error {
	if opts.Delay > 0 {
		timer := time.NewTimer(opts.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-s.ctx.Done():
			return s.ctx.Err()
		}
	}

	// Tasks outlive the request that scheduled them, so they run under the
	// scheduler's own context with a system identity for audit fields.
	ctx := context.WithValue(s.ctx, types.CtxUserID, types.SystemUserID)

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(opts.Interval), uint64(opts.MaxRetries)),
		ctx,
	)

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		syncErr := s.syncer.SyncOrganization(ctx, organizationID)
		if syncErr != nil {
			s.logger.Warnw("background sync attempt failed",
				"organization_id", organizationID,
				"attempt", attempt,
				"error", syncErr,
			)
		}
		return syncErr
	}, policy)

	if err != nil {
		s.logger.Errorw("background sync exhausted retries",
			"organization_id", organizationID,
			"attempts", attempt,
			"error", err,
		)
		return err
	}

	s.logger.Infow("background sync completed",
		"organization_id", organizationID,
		"attempts", attempt,
	)
	return nil
}

// Shutdown stops accepting new tasks and waits for in-flight ones to drain,
// up to the context deadline.
func (s *SyncScheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		// Cancel whatever is still running, then give it a moment to
		// observe the cancellation.
		s.cancel()
		<-done
		return ctx.Err()
	}
}
