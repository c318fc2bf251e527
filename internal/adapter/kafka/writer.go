package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/reunion-climate-etl/internal/config"
	"github.com/couchcryptid/reunion-climate-etl/internal/report"
	sharedretry "github.com/couchcryptid/storm-data-shared/retry"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	publishAttempts = 3
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 2 * time.Second
)

// Writer produces report messages to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured report topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one report envelope and writes it keyed by report name,
// so every version of a report lands on the same partition.
func (w *Writer) Publish(ctx context.Context, env report.Envelope) error {
	msg, err := serializeToMessage(env)
	if err != nil {
		return err
	}
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err = w.writer.WriteMessages(ctx, msg)
		if err == nil {
			break
		}
		if attempt == publishAttempts || ctx.Err() != nil {
			return fmt.Errorf("write report %s: %w", env.Name, err)
		}
		w.logger.Warn("report write failed, retrying", "report", env.Name, "attempt", attempt, "backoff", backoff, "error", err)
		if !sharedretry.SleepWithContext(ctx, backoff) {
			return fmt.Errorf("write report %s: %w", env.Name, ctx.Err())
		}
		backoff = sharedretry.NextBackoff(backoff, maxBackoff)
	}
	w.logger.Debug("report published", "report", env.Name, "run_id", env.RunID, "bytes", len(msg.Value))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a report envelope into a Kafka message.
func serializeToMessage(env report.Envelope) (kafkago.Message, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report %s: %w", env.Name, err)
	}
	return kafkago.Message{
		Key:   []byte(env.Name),
		Value: data,
		Time:  env.GeneratedAt,
		Headers: []kafkago.Header{
			{Key: "report", Value: []byte(env.Name)},
			{Key: "run_id", Value: []byte(env.RunID)},
			{Key: "rows", Value: []byte(strconv.Itoa(env.Rows))},
			{Key: "generated_at", Value: []byte(env.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
