package horizons

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sarks0/deepsix-ephemeris-service/internal/domain"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testWindow() domain.QueryWindow {
	return domain.QueryWindow{
		Start: time.Date(2025, time.August, 20, 0, 0, 0, 0, time.UTC),
		Stop:  time.Date(2025, time.August, 21, 0, 0, 0, 0, time.UTC),
		Step:  "1h",
	}
}

func newTestClient(baseURL string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	// High rate limit so tests never block on the limiter.
	return NewClient(baseURL, 2*time.Second, 100, observability.NewMetricsForTesting(), logger)
}

func TestFetchEphemeris_ObserverQueryShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "'3I/ATLAS'", q.Get("COMMAND"))
		assert.Equal(t, "OBSERVER", q.Get("EPHEM_TYPE"))
		assert.Equal(t, "'500@399'", q.Get("CENTER"))
		assert.Equal(t, "'1,9,19,20,23,24'", q.Get("QUANTITIES"))
		assert.Equal(t, "'2025-Aug-20 00:00'", q.Get("START_TIME"))
		assert.Equal(t, "'2025-Aug-21 00:00'", q.Get("STOP_TIME"))
		assert.Equal(t, "'1h'", q.Get("STEP_SIZE"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": "$$SOE\ndata\n$$EOE"}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FetchEphemeris(context.Background(), "3I/ATLAS", domain.EphemerisObserver, testWindow())

	require.NoError(t, err)
	assert.Contains(t, result, "$$SOE")
}

func TestFetchEphemeris_ElementsQueryShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ELEMENTS", q.Get("EPHEM_TYPE"))
		// Elements are heliocentric and carry no observer quantity list.
		assert.Equal(t, "'500@10'", q.Get("CENTER"))
		assert.Empty(t, q.Get("QUANTITIES"))

		w.Write([]byte(`{"result": "elements report"}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.FetchEphemeris(context.Background(), "3I/ATLAS", domain.EphemerisElements, testWindow())

	require.NoError(t, err)
	assert.Equal(t, "elements report", result)
}

func TestFetchEphemeris_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchEphemeris(context.Background(), "3I/ATLAS", domain.EphemerisObserver, testWindow())

	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusServiceUnavailable, upstreamErr.StatusCode)
	assert.Contains(t, upstreamErr.Message, "service unavailable")
}

func TestFetchEphemeris_ErrorInsideOKEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"result": "", "error": "Cannot interpret the request"}`)) //nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchEphemeris(context.Background(), "3I/ATLAS", domain.EphemerisObserver, testWindow())

	var upstreamErr *domain.UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusOK, upstreamErr.StatusCode)
	assert.Equal(t, "Cannot interpret the request", upstreamErr.Message)
}

func TestFetchEphemeris_MalformedEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`this is not json`)) //nolint:errcheck
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.FetchEphemeris(context.Background(), "3I/ATLAS", domain.EphemerisObserver, testWindow())

	require.Error(t, err)
	var upstreamErr *domain.UpstreamError
	assert.False(t, errors.As(err, &upstreamErr), "a decode failure is not an upstream error")
}

func TestFetchEphemeris_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.FetchEphemeris(ctx, "3I/ATLAS", domain.EphemerisObserver, testWindow())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
