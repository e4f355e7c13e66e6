//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sarks0/deepsix-ephemeris-service/internal/adapter/horizons"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/adapter/kafka"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/config"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/domain"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/ephemeris"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/observability"
	"github.com/Sarks0/deepsix-ephemeris-service/internal/publisher"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testSinkTopic = "test-ephemeris-snapshots"

const observerResult = `Target body name: ATLAS (C/2025 N1)
$$SOE
 2025-Aug-20 00:00     13 59 50.31 -05 18 24.2   16.32   n.a.    2.83507338234  -115.4532    1.92438820134  -227.8841
$$EOE`

const elementsResult = `Target body name: ATLAS (C/2025 N1)
$$SOE
2460907.500000000  2025-Aug-20.00  6.139E+00  1.356E+00  1.751E+02  3.222E+02  1.280E+02  2460994.4
$$EOE`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka launches a single-node Kafka container and returns its broker
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve broker address")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// mockHorizons serves canned envelopes for both ephemeris types.
func mockHorizons(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		result := observerResult
		if r.URL.Query().Get("EPHEM_TYPE") == "ELEMENTS" {
			result = elementsResult
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"result": result}) //nolint:errcheck
	}))
	t.Cleanup(server.Close)
	return server
}

// snapshotMessage holds a deserialized message read from the sink topic.
type snapshotMessage struct {
	Record  domain.EphemerisRecord
	Key     string
	Headers map[string]string
}

func readSnapshot(ctx context.Context, t *testing.T, consumer *kafkago.Reader) snapshotMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var record domain.EphemerisRecord
	require.NoError(t, json.Unmarshal(msg.Value, &record), "unmarshal sink message")

	return snapshotMessage{Record: record, Key: string(msg.Key), Headers: headers}
}

// TestPublisherEndToEnd wires the full snapshot path (Horizons client ->
// composer -> publisher -> kafka.Writer) against real Kafka and a mock
// upstream, then verifies the published records.
func TestPublisherEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	upstream := mockHorizons(t)

	cfg := &config.Config{
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	metrics := observability.NewMetricsForTesting()
	client := horizons.NewClient(upstream.URL, 5*time.Second, 100, metrics, discardLogger())
	source := horizons.NewCachedSource(client, 16, metrics)
	svc := ephemeris.New(source, discardLogger(), metrics, 10*time.Second)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	pub := publisher.New(svc, writer, discardLogger(), metrics, time.Hour)

	pubCtx, pubCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- pub.Run(pubCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	tracked := domain.TrackedObjects()
	require.NotEmpty(t, tracked)

	received := make(map[string]snapshotMessage, len(tracked))
	for len(received) < len(tracked) {
		sm := readSnapshot(ctx, t, consumer)
		received[sm.Key] = sm
	}

	pubCancel()
	require.NoError(t, <-errCh)

	for _, obj := range tracked {
		sm, ok := received[obj.ShortCode]
		require.True(t, ok, "missing snapshot for %s", obj.Designation)

		assert.Equal(t, obj.Designation, sm.Headers["designation"])
		_, err := time.Parse(time.RFC3339, sm.Headers["retrieved_at"])
		assert.NoError(t, err, "retrieved_at should be valid RFC3339")

		assert.Equal(t, obj.Designation, sm.Record.Object.Designation)
		assert.Equal(t, "13 59 50.31", sm.Record.Position.RightAscension)
		assert.Equal(t, 16.32, sm.Record.Position.ApparentMagnitude)
		assert.Equal(t, 6.139, sm.Record.Orbital.Eccentricity)
		assert.True(t, sm.Record.Hyperbolic)
		assert.False(t, sm.Record.RetrievedAt.IsZero())
	}

	// The publisher reports ready after its first successful cycle.
	assert.NoError(t, pub.CheckReadiness(ctx))
}
