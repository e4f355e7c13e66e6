// Package publisher periodically snapshots tracked objects to the sink topic
// so dashboard consumers get fresh ephemerides without querying the API.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Sarks0/deepsix-ephemeris-service/internal/domain"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// RecordFetcher produces one composed ephemeris record per token.
type RecordFetcher interface {
	GetEphemeris(ctx context.Context, token string, w domain.QueryWindow) (domain.EphemerisRecord, error)
}

// RecordSink writes a batch of records to the destination.
type RecordSink interface {
	PublishBatch(ctx context.Context, records []domain.EphemerisRecord) error
}

// Publisher runs the fetch-and-publish loop for all tracked objects.
type Publisher struct {
	fetcher  RecordFetcher
	sink     RecordSink
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock
	interval time.Duration
	objects  []domain.CelestialObject
	ready    atomic.Bool
}

// New creates a Publisher polling the currently observable catalog objects.
func New(fetcher RecordFetcher, sink RecordSink, logger *slog.Logger, metrics *observability.Metrics, interval time.Duration) *Publisher {
	return &Publisher{
		fetcher:  fetcher,
		sink:     sink,
		logger:   logger,
		metrics:  metrics,
		clock:    clockwork.NewRealClock(),
		interval: interval,
		objects:  domain.TrackedObjects(),
	}
}

// SetClock swaps the time source for interval and backoff waits. Pass nil to
// reset to real time.
func (p *Publisher) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	p.clock = c
}

// CheckReadiness returns nil once at least one snapshot cycle has published,
// or an error describing why the service is not yet ready.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("publisher has not completed a snapshot cycle yet")
	}
	return nil
}

// Run executes the snapshot loop until the context is cancelled. The first
// cycle runs immediately; later cycles wait the configured interval, or an
// exponential backoff (200ms doubling to a 5s cap) after a publish failure.
func (p *Publisher) Run(ctx context.Context) error {
	p.logger.Info("publisher started",
		"interval", p.interval,
		"tracked_objects", len(p.objects),
	)
	p.metrics.PublisherRunning.Set(1)
	defer p.metrics.PublisherRunning.Set(0)

	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		published, err := p.runCycle(ctx)
		if ctx.Err() != nil {
			p.logger.Info("publisher stopping", "reason", ctx.Err())
			return nil
		}

		wait := p.interval
		if err != nil {
			p.logger.Error("snapshot publish failed", "error", err)
			p.metrics.PublishErrors.Inc()
			wait = backoff
			backoff = nextBackoff(backoff, maxBackoff)
		} else {
			backoff = 200 * time.Millisecond
			if published > 0 {
				p.ready.Store(true)
			}
		}

		if !p.sleep(ctx, wait) {
			p.logger.Info("publisher stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// runCycle fetches every tracked object and publishes the successful records
// as one batch. Per-object fetch failures are logged and skipped; only a
// sink failure is returned.
func (p *Publisher) runCycle(ctx context.Context) (int, error) {
	start := p.clock.Now()

	records := make([]domain.EphemerisRecord, 0, len(p.objects))
	for _, obj := range p.objects {
		record, err := p.fetcher.GetEphemeris(ctx, obj.ShortCode, domain.QueryWindow{})
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil
			}
			p.logger.Warn("snapshot fetch failed, skipping object",
				"object", obj.Designation,
				"error", err,
			)
			continue
		}
		records = append(records, record)
	}

	if len(records) == 0 {
		return 0, nil
	}

	if err := p.sink.PublishBatch(ctx, records); err != nil {
		return 0, err
	}

	p.metrics.RecordsPublished.Add(float64(len(records)))
	p.metrics.PublishCycleDuration.Observe(p.clock.Since(start).Seconds())
	return len(records), nil
}

// sleep waits for d or context cancellation. Returns false if the publisher
// should stop.
func (p *Publisher) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
