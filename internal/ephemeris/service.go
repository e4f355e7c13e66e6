// Package ephemeris composes the resolver, upstream queries, and parsers
// into one record per request.
package ephemeris

import (
	"context"
	"log/slog"
	"time"

	"github.com/Sarks0/deepsix-ephemeris-service/internal/domain"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// defaultWindow parameters when the caller supplies none: the first returned
// row is then "now".
const (
	defaultWindowSpan = 24 * time.Hour
	defaultStepSize   = "1h"
)

// Service fetches and composes ephemeris records.
type Service struct {
	source  domain.EphemerisSource
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	timeout time.Duration
	columns domain.ElementColumns
}

// New creates a Service. timeout bounds each GetEphemeris call end to end so
// one slow upstream endpoint cannot block a request indefinitely.
func New(source domain.EphemerisSource, logger *slog.Logger, metrics *observability.Metrics, timeout time.Duration) *Service {
	return &Service{
		source:  source,
		logger:  logger,
		metrics: metrics,
		clock:   clockwork.NewRealClock(),
		timeout: timeout,
		columns: domain.DefaultElementColumns,
	}
}

// SetClock swaps the time source used for default windows. Pass nil to reset
// to real time.
func (s *Service) SetClock(c clockwork.Clock) {
	if c == nil {
		c = clockwork.NewRealClock()
	}
	s.clock = c
}

// GetEphemeris resolves the token and issues the observer-frame and
// elements-frame queries concurrently. The observer result is the primary
// payload: its failure fails the request. The elements result is best-effort:
// any failure there degrades to all-zero elements.
func (s *Service) GetEphemeris(ctx context.Context, token string, w domain.QueryWindow) (domain.EphemerisRecord, error) {
	obj, err := domain.ResolveObject(token)
	if err != nil {
		return domain.EphemerisRecord{}, err
	}

	w = s.normalizeWindow(w)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// The two queries are independent; join them after both complete and
	// handle each branch's failure separately. The elements goroutine never
	// returns an error so its failure cannot cancel the observer query.
	var (
		observerText string
		elementsText string
		elementsErr  error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		text, err := s.source.FetchEphemeris(gctx, obj.QueryCommand(), domain.EphemerisObserver, w)
		if err != nil {
			return err
		}
		observerText = text
		return nil
	})
	g.Go(func() error {
		text, err := s.source.FetchEphemeris(gctx, obj.QueryCommand(), domain.EphemerisElements, w)
		if err != nil {
			elementsErr = err
			return nil
		}
		elementsText = text
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.EphemerisRecord{}, err
	}

	observerLines := domain.ExtractEphemerisBlock(observerText)
	if len(observerLines) == 0 {
		return domain.EphemerisRecord{}, domain.ErrNoData
	}

	var elems domain.OrbitalElements
	switch {
	case elementsErr != nil:
		s.logger.Warn("elements query failed, continuing with zero elements",
			"object", obj.Designation,
			"error", elementsErr,
		)
		s.metrics.ParseDegradations.WithLabelValues("elements").Inc()
	default:
		elementsLines := domain.ExtractEphemerisBlock(elementsText)
		if len(elementsLines) == 0 {
			s.logger.Warn("elements response had no data block, continuing with zero elements",
				"object", obj.Designation,
			)
			s.metrics.ParseDegradations.WithLabelValues("elements").Inc()
		} else {
			elems = domain.ParseElementsLine(elementsLines[0], s.columns)
		}
	}

	pos := domain.ParseObserverLine(observerLines[0])
	s.recordDegradations(obj, pos)

	return domain.NewRecord(obj, elems, pos), nil
}

func (s *Service) normalizeWindow(w domain.QueryWindow) domain.QueryWindow {
	if w.Start.IsZero() {
		w.Start = s.clock.Now().UTC().Truncate(time.Minute)
	}
	if w.Stop.IsZero() {
		w.Stop = w.Start.Add(defaultWindowSpan)
	}
	if w.Step == "" {
		w.Step = defaultStepSize
	}
	return w
}

func (s *Service) recordDegradations(obj domain.CelestialObject, pos domain.ObserverPosition) {
	if pos.RightAscension == domain.CoordinateUnknown || pos.Declination == domain.CoordinateUnknown {
		s.metrics.ParseDegradations.WithLabelValues("coordinates").Inc()
		s.logger.Debug("coordinates not parseable", "object", obj.Designation)
	}
	if pos.ApparentMagnitude == domain.MagnitudeUnknown {
		s.metrics.ParseDegradations.WithLabelValues("magnitude").Inc()
	}
	if pos.DistanceFromSunAU == 0 && pos.DistanceFromEarthAU == 0 {
		s.metrics.ParseDegradations.WithLabelValues("distances").Inc()
	}
}
