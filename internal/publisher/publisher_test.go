package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Sarks0/deepsix-ephemeris-service/internal/domain"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher returns a minimal record per token, with optional per-token
// failures.
type stubFetcher struct {
	failTokens map[string]bool
}

func (f *stubFetcher) GetEphemeris(_ context.Context, token string, _ domain.QueryWindow) (domain.EphemerisRecord, error) {
	if f.failTokens[token] {
		return domain.EphemerisRecord{}, errors.New("upstream unavailable")
	}
	obj, err := domain.ResolveObject(token)
	if err != nil {
		return domain.EphemerisRecord{}, err
	}
	return domain.NewRecord(obj, domain.OrbitalElements{}, domain.ObserverPosition{}), nil
}

// captureSink records published batches and signals on each publish.
type captureSink struct {
	mu        sync.Mutex
	batches   [][]domain.EphemerisRecord
	err       error
	published chan struct{}
}

func newCaptureSink() *captureSink {
	return &captureSink{published: make(chan struct{}, 16)}
}

func (s *captureSink) PublishBatch(_ context.Context, records []domain.EphemerisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, records)
	select {
	case s.published <- struct{}{}:
	default:
	}
	return nil
}

func (s *captureSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func newTestPublisher(fetcher RecordFetcher, sink RecordSink, interval time.Duration) *Publisher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(fetcher, sink, logger, observability.NewMetricsForTesting(), interval)
}

func TestRunCycle_PublishesAllTrackedObjects(t *testing.T) {
	sink := newCaptureSink()
	pub := newTestPublisher(&stubFetcher{}, sink, time.Minute)

	published, err := pub.runCycle(context.Background())
	require.NoError(t, err)

	tracked := domain.TrackedObjects()
	assert.Equal(t, len(tracked), published)
	require.Len(t, sink.batches, 1)
	assert.Len(t, sink.batches[0], len(tracked))
}

func TestRunCycle_SkipsFailedFetches(t *testing.T) {
	tracked := domain.TrackedObjects()
	require.NotEmpty(t, tracked)

	sink := newCaptureSink()
	fetcher := &stubFetcher{failTokens: map[string]bool{tracked[0].ShortCode: true}}
	pub := newTestPublisher(fetcher, sink, time.Minute)

	published, err := pub.runCycle(context.Background())
	require.NoError(t, err, "a per-object failure is skipped, not fatal")
	assert.Equal(t, len(tracked)-1, published)
}

func TestRunCycle_NothingFetchedNothingPublished(t *testing.T) {
	failAll := make(map[string]bool)
	for _, obj := range domain.TrackedObjects() {
		failAll[obj.ShortCode] = true
	}

	sink := newCaptureSink()
	pub := newTestPublisher(&stubFetcher{failTokens: failAll}, sink, time.Minute)

	published, err := pub.runCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, published)
	assert.Zero(t, sink.batchCount(), "empty cycles never touch the sink")
}

func TestRunCycle_SinkFailureReturned(t *testing.T) {
	sink := newCaptureSink()
	sink.err = errors.New("broker unreachable")
	pub := newTestPublisher(&stubFetcher{}, sink, time.Minute)

	_, err := pub.runCycle(context.Background())
	assert.ErrorContains(t, err, "broker unreachable")
}

func TestCheckReadiness_RequiresOneCompletedCycle(t *testing.T) {
	sink := newCaptureSink()
	pub := newTestPublisher(&stubFetcher{}, sink, time.Hour)
	pub.SetClock(clockwork.NewFakeClock())

	require.Error(t, pub.CheckReadiness(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pub.Run(ctx) }()

	// Wait for the immediate first cycle to publish.
	select {
	case <-sink.published:
	case <-time.After(5 * time.Second):
		t.Fatal("first snapshot cycle did not publish")
	}

	require.Eventually(t, func() bool {
		return pub.CheckReadiness(context.Background()) == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, "cancellation is a clean stop")
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not stop on context cancellation")
	}
}

func TestRun_BacksOffAfterSinkFailure(t *testing.T) {
	sink := newCaptureSink()
	sink.err = errors.New("broker unreachable")
	pub := newTestPublisher(&stubFetcher{}, sink, time.Hour)

	clock := clockwork.NewFakeClock()
	pub.SetClock(clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pub.Run(ctx) }()

	// After the failing first cycle the loop waits the initial backoff, not
	// the hour-long interval. Advancing past the backoff triggers a retry.
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	sink.mu.Lock()
	sink.err = nil
	sink.mu.Unlock()
	clock.Advance(200 * time.Millisecond)

	select {
	case <-sink.published:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not retry after backoff")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publisher did not stop on context cancellation")
	}
}

func TestNextBackoff_DoublesToCap(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, nextBackoff(200*time.Millisecond, 5*time.Second))
	assert.Equal(t, 3200*time.Millisecond, nextBackoff(1600*time.Millisecond, 5*time.Second))
	assert.Equal(t, 5*time.Second, nextBackoff(3200*time.Millisecond, 5*time.Second))
	assert.Equal(t, 5*time.Second, nextBackoff(5*time.Second, 5*time.Second))
}
