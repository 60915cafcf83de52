//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/asset-rating-service/internal/adapter/filestore"
	"github.com/couchcryptid/asset-rating-service/internal/adapter/kafka"
	"github.com/couchcryptid/asset-rating-service/internal/config"
	"github.com/couchcryptid/asset-rating-service/internal/domain"
	"github.com/couchcryptid/asset-rating-service/internal/observability"
	"github.com/couchcryptid/asset-rating-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testRatingsTopic = "test-asset-ratings"

const batchCSV = `assetType,installedDate,lastMaintainedDate,fciIndex,rrIndex,lat,lng
Roadway Illumination,1990-04-10,2024-11-02,,,40.7128,-74.0060
Highway Building,2005-06-01,,3,,40.7306,-73.9352
bridge,2005-02-20,2020-05-01,,,40.6782,-73.9442
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("asset-rating-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// TestPipelinePublishesRatings runs a CSV batch through the pipeline with the
// Kafka writer as sink and reads every rating back from the topic.
func TestPipelinePublishesRatings(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testRatingsTopic)

	cfg := &config.Config{
		KafkaEnabled:      true,
		KafkaBrokers:      []string{broker},
		KafkaRatingsTopic: testRatingsTopic,
	}
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC))

	writer := kafka.NewWriter(cfg, clock, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	root := t.TempDir()
	store, err := filestore.New(filepath.Join(root, "uploads"), filepath.Join(root, "output"), "rated_assets_", clock, discardLogger())
	require.NoError(t, err)

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(domain.NewRater(clock), store, writer, discardLogger(), metrics)

	res, err := p.Run(ctx, strings.NewReader(batchCSV))
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testRatingsTopic,
		Partition: 0,
		MaxWait:   time.Second,
	})
	t.Cleanup(func() { _ = reader.Close() })

	got := make(map[string]kafka.RatingMessage)
	for range res.Rows {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := reader.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read from ratings topic")

		var decoded kafka.RatingMessage
		require.NoError(t, json.Unmarshal(msg.Value, &decoded))
		got[string(msg.Key)] = decoded

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		assert.Equal(t, res.BatchID, headers["batch_id"])
		assert.Equal(t, decoded.Rating, headers["rating"])
		assert.Equal(t, "2025-06-15T12:00:00Z", headers["rated_at"])
	}

	for _, row := range res.Rows {
		key := res.BatchID + "-" + strconv.Itoa(row.Line)
		msg, ok := got[key]
		require.True(t, ok, "missing message %s", key)
		assert.Equal(t, row.Rating, msg.Rating)
		assert.Equal(t, row.Line, msg.Line)
		assert.Equal(t, row.Get("lat"), msg.Fields["lat"])
	}
	assert.Equal(t, "Invalid Asset Type", got[res.BatchID+"-4"].Rating)
	assert.Zero(t, testutil.ToFloat64(metrics.SinkErrors))
}
