package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/asset-rating-service/internal/config"
	"github.com/couchcryptid/asset-rating-service/internal/domain"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// RatingMessage is the JSON value of one published rating.
type RatingMessage struct {
	BatchID   string            `json:"batch_id"`
	Line      int               `json:"line"`
	AssetType string            `json:"asset_type"`
	Rating    string            `json:"rating"`
	Fields    map[string]string `json:"fields"`
	RatedAt   time.Time         `json:"rated_at"`
}

// Writer publishes rated batch rows to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured ratings topic.
func NewWriter(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaRatingsTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newWriter(w, clock, logger)
}

func newWriter(w messageWriter, clock clockwork.Clock, logger *slog.Logger) *Writer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Writer{writer: w, clock: clock, logger: logger}
}

// Publish sends one message per rated row in a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, batchID string, rows []domain.RatedRow) error {
	if len(rows) == 0 {
		return nil
	}
	ratedAt := w.clock.Now().UTC()
	msgs := make([]kafkago.Message, len(rows))
	for i := range rows {
		msg, err := serializeToMessage(batchID, rows[i], ratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d ratings: %w", len(msgs), err)
	}
	w.logger.Debug("ratings published", "batch_id", batchID, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a rated row into a Kafka message keyed by batch
// and source line.
func serializeToMessage(batchID string, row domain.RatedRow, ratedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(RatingMessage{
		BatchID:   batchID,
		Line:      row.Line,
		AssetType: row.Get("assetType"),
		Rating:    row.Rating,
		Fields:    row.Fields(),
		RatedAt:   ratedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize rating: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(batchID + "-" + strconv.Itoa(row.Line)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "batch_id", Value: []byte(batchID)},
			{Key: "rating", Value: []byte(row.Rating)},
			{Key: "rated_at", Value: []byte(ratedAt.Format(time.RFC3339))},
		},
	}, nil
}
