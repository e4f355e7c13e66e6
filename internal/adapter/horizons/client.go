package horizons

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/Sarks0/deepsix-ephemeris-service/internal/domain"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/observability"
	"golang.org/x/time/rate"
)

// Quantities requested for OBSERVER ephemerides: astrometric RA/Dec,
// apparent magnitude / surface brightness, heliocentric range and range-rate,
// observer range and range-rate, Sun-Observer-Target angle, Sun-Target-Observer
// angle. The parser depends only on the shapes of the resulting columns, not
// their order.
const observerQuantities = "1,9,19,20,23,24"

// Reference centers: geocentric for sky position, heliocentric for elements.
const (
	observerCenter = "500@399"
	elementsCenter = "500@10"
)

// Client implements domain.EphemerisSource against the JPL Horizons API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Horizons client. rateLimit is requests per second;
// both halves of a dual query share the one limiter since they hit the same
// rate-limited upstream.
func NewClient(baseURL string, timeout time.Duration, rateLimit float64, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), 2),
		metrics: metrics,
		logger:  logger,
	}
}

// FetchEphemeris queries the upstream for one ephemeris table and returns the
// raw result text. Upstream errors surface as *domain.UpstreamError whether
// they arrive as a non-2xx status or as an error field inside a 2xx envelope;
// callers must not assume a 2xx means success.
func (c *Client) FetchEphemeris(ctx context.Context, command string, typ domain.EphemerisType, w domain.QueryWindow) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	fullURL := c.baseURL + "?" + c.queryParams(command, typ, w).Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(string(typ)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(string(typ), "error").Inc()
		return "", fmt.Errorf("%s ephemeris request: %w", typ, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.UpstreamRequests.WithLabelValues(string(typ), "error").Inc()
		return "", &domain.UpstreamError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(string(typ), "error").Inc()
		return "", fmt.Errorf("decode response: %w", err)
	}

	// Horizons reports some failures inside a 200 body.
	if env.Error != "" {
		c.metrics.UpstreamRequests.WithLabelValues(string(typ), "error").Inc()
		return "", &domain.UpstreamError{StatusCode: resp.StatusCode, Message: env.Error}
	}

	c.metrics.UpstreamRequests.WithLabelValues(string(typ), "success").Inc()
	return env.Result, nil
}

func (c *Client) queryParams(command string, typ domain.EphemerisType, w domain.QueryWindow) url.Values {
	center := observerCenter
	if typ == domain.EphemerisElements {
		center = elementsCenter
	}

	params := url.Values{
		"format":     {"json"},
		"COMMAND":    {quote(command)},
		"OBJ_DATA":   {"NO"},
		"MAKE_EPHEM": {"YES"},
		"EPHEM_TYPE": {string(typ)},
		"CENTER":     {quote(center)},
		"START_TIME": {quote(w.Start.UTC().Format("2006-Jan-02 15:04"))},
		"STOP_TIME":  {quote(w.Stop.UTC().Format("2006-Jan-02 15:04"))},
		"STEP_SIZE":  {quote(w.Step)},
	}
	if typ == domain.EphemerisObserver {
		params.Set("QUANTITIES", quote(observerQuantities))
	}
	return params
}

// quote wraps a value in the single quotes Horizons expects around string
// parameters.
func quote(s string) string {
	return "'" + s + "'"
}

// envelope is the JSON wrapper around the free-text result blob.
type envelope struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}
