package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/docuchat/billing/internal/config"
	ierr "github.com/docuchat/billing/internal/errors"
	"github.com/docuchat/billing/internal/logger"
	"github.com/docuchat/billing/internal/types"
	"github.com/stretchr/testify/suite"
)

// stubSyncer counts reconciliation calls and fails the first failUntil
// attempts.
type stubSyncer struct {
	mu        sync.Mutex
	calls     int
	failUntil int
	lastOrgID string
	lastUser  string
}

func (s *stubSyncer) SyncOrganization(ctx context.Context, organizationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastOrgID = organizationID
	s.lastUser = types.GetUserID(ctx)
	if s.calls <= s.failUntil {
		return ierr.NewError("provider unavailable").Mark(ierr.ErrProviderAPI)
	}
	return nil
}

func (s *stubSyncer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type SyncSchedulerSuite struct {
	suite.Suite
	syncer    *stubSyncer
	scheduler *SyncScheduler
}

func TestSyncScheduler(t *testing.T) {
	suite.Run(t, new(SyncSchedulerSuite))
}

func (s *SyncSchedulerSuite) SetupTest() {
	cfg := config.GetDefaultConfig()
	cfg.Sync.Delay = time.Millisecond
	cfg.Sync.MaxRetries = 2
	cfg.Sync.RetryInterval = time.Millisecond

	s.syncer = &stubSyncer{}
	s.scheduler = NewSyncScheduler(cfg, s.syncer, logger.NewNopLogger())
}

func (s *SyncSchedulerSuite) TearDownTest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.scheduler.Shutdown(ctx)
}

func (s *SyncSchedulerSuite) TestRunsAfterDelay() {
	handle := s.scheduler.ScheduleSync("org_1", ScheduleOptions{})
	<-handle.Done()

	s.NoError(handle.Err())
	s.Equal(1, s.syncer.Calls())
	s.Equal("org_1", s.syncer.lastOrgID)
}

func (s *SyncSchedulerSuite) TestRunsUnderSystemIdentity() {
	handle := s.scheduler.ScheduleSync("org_ident", ScheduleOptions{})
	<-handle.Done()

	s.NoError(handle.Err())
	s.Equal(types.SystemUserID, s.syncer.lastUser)
}

func (s *SyncSchedulerSuite) TestRetriesUntilSuccess() {
	s.syncer.failUntil = 2

	handle := s.scheduler.ScheduleSync("org_retry", ScheduleOptions{})
	<-handle.Done()

	s.NoError(handle.Err())
	s.Equal(3, s.syncer.Calls())
}

func (s *SyncSchedulerSuite) TestRetriesAreBounded() {
	s.syncer.failUntil = 100

	handle := s.scheduler.ScheduleSync("org_exhausted", ScheduleOptions{})
	<-handle.Done()

	s.Error(handle.Err())
	s.True(ierr.IsProviderAPI(handle.Err()))
	// First attempt plus the configured retries.
	s.Equal(3, s.syncer.Calls())
}

func (s *SyncSchedulerSuite) TestScheduleOptionsOverrideDefaults() {
	s.syncer.failUntil = 100

	handle := s.scheduler.ScheduleSync("org_opts", ScheduleOptions{MaxRetries: 1})
	<-handle.Done()

	s.Error(handle.Err())
	s.Equal(2, s.syncer.Calls())
}

func (s *SyncSchedulerSuite) TestShutdownDrainsInFlightTasks() {
	handle := s.scheduler.ScheduleSync("org_drain", ScheduleOptions{})

	err := s.scheduler.Shutdown(context.Background())
	s.NoError(err)

	select {
	case <-handle.Done():
	default:
		s.Fail("task not finished after shutdown")
	}
	s.Equal(1, s.syncer.Calls())
}

func (s *SyncSchedulerSuite) TestShutdownCancelsDelayedTasks() {
	handle := s.scheduler.ScheduleSync("org_later", ScheduleOptions{Delay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := s.scheduler.Shutdown(ctx)
	s.ErrorIs(err, context.DeadlineExceeded)

	<-handle.Done()
	s.ErrorIs(handle.Err(), context.Canceled)
	s.Equal(0, s.syncer.Calls())
}

func (s *SyncSchedulerSuite) TestClosedSchedulerDropsTasks() {
	s.NoError(s.scheduler.Shutdown(context.Background()))

	handle := s.scheduler.ScheduleSync("org_late", ScheduleOptions{})
	<-handle.Done()

	s.ErrorIs(handle.Err(), context.Canceled)
	s.Equal(0, s.syncer.Calls())
}
