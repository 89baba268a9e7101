package relay_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"podium/internal/registry/metrics"
	"podium/internal/registry/models"
	"podium/internal/registry/relay"
	"podium/internal/registry/service"
	"podium/internal/registry/store"
	id "podium/pkg/domain"
)

var _ relay.OutboxStore = (*store.InMemoryStore)(nil)

// recordingPublisher records published sequence numbers and fails the
// configured sequence until failures run out.
type recordingPublisher struct {
	mu       sync.Mutex
	seqs     []uint64
	failSeq  uint64
	failures int
}

func (p *recordingPublisher) Publish(_ context.Context, event *models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.Seq == p.failSeq && p.failures > 0 {
		p.failures--
		return errors.New("broker unavailable")
	}
	p.seqs = append(p.seqs, event.Seq)
	return nil
}

func (p *recordingPublisher) published() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.seqs...)
}

type RelaySuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemoryStore
	svc       *service.Service
	publisher *recordingPublisher
	metrics   *metrics.Metrics
	now       time.Time
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.publisher = &recordingPublisher{}
	s.metrics = metrics.NewWith(prometheus.NewRegistry())
	s.now = time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)

	svc, err := service.New("registry-owner", s.store, s.store)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *RelaySuite) registerN(n int) {
	for i := 0; i < n; i++ {
		caller := id.CallerID(fmt.Sprintf("caller-%d", i))
		_, err := s.svc.RegisterAthlete(s.ctx, caller, &models.RegisterAthleteRequest{Name: "Runner", Sport: "Running", Age: 20}, s.now)
		s.Require().NoError(err)
	}
}

func (s *RelaySuite) newWorker(opts ...relay.Option) *relay.Worker {
	opts = append([]relay.Option{relay.WithMetrics(s.metrics), relay.WithClock(func() time.Time { return s.now })}, opts...)
	return relay.New(s.store, s.publisher, opts...)
}

func (s *RelaySuite) TestPollOncePublishesInSequenceOrder() {
	s.registerN(5)
	worker := s.newWorker(relay.WithBatchSize(3))

	n, err := worker.PollOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, n)
	n, err = worker.PollOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
	n, err = worker.PollOnce(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)

	s.Equal([]uint64{1, 2, 3, 4, 5}, s.publisher.published())
	pending, err := s.store.CountPending(s.ctx)
	s.Require().NoError(err)
	s.Zero(pending)
	s.Equal(float64(5), promtest.ToFloat64(s.metrics.EventsPublished))
}

func (s *RelaySuite) TestFailureStopsBatchAndRetriesInOrder() {
	s.registerN(4)
	s.publisher.failSeq = 2
	s.publisher.failures = 1
	worker := s.newWorker()

	n, err := worker.PollOnce(s.ctx)
	s.Require().Error(err)
	s.Equal(1, n)
	s.Equal([]uint64{1}, s.publisher.published(), "nothing after the failed event is published")
	s.Equal(float64(1), promtest.ToFloat64(s.metrics.PublishFailures))

	n, err = worker.PollOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, n)
	s.Equal([]uint64{1, 2, 3, 4}, s.publisher.published())
}

func (s *RelaySuite) TestUpdateMetricsReportsPending() {
	s.registerN(3)
	worker := s.newWorker(relay.WithBatchSize(1))

	s.Require().NoError(worker.UpdateMetrics(s.ctx))
	s.Equal(float64(3), promtest.ToFloat64(s.metrics.OutboxPending))

	_, err := worker.PollOnce(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(worker.UpdateMetrics(s.ctx))
	s.Equal(float64(2), promtest.ToFloat64(s.metrics.OutboxPending))
}

func (s *RelaySuite) TestStopDrainsOutbox() {
	s.registerN(7)
	worker := s.newWorker(relay.WithBatchSize(2), relay.WithPollInterval(time.Hour))
	worker.Start()

	ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
	defer cancel()
	s.Require().NoError(worker.Stop(ctx))

	s.Equal([]uint64{1, 2, 3, 4, 5, 6, 7}, s.publisher.published())
}

func (s *RelaySuite) TestStartPublishesNewEvents() {
	worker := s.newWorker(relay.WithPollInterval(10 * time.Millisecond))
	worker.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
		defer cancel()
		s.NoError(worker.Stop(ctx))
	}()

	s.registerN(2)
	s.Eventually(func() bool {
		return len(s.publisher.published()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
