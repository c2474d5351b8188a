package kafka

import (
	"context"
	"log/slog"
	"sort"

	"github.com/couchcryptid/wxstore-client/internal/config"
	"github.com/couchcryptid/wxstore-client/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces relayed events to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the output events in a single WriteMessages call.
// Messages are keyed by event so every copy of an event lands on the same
// partition.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.OutputEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msgs[i] = toMessage(events[i])
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("published events", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// toMessage maps an output event onto a Kafka message. Headers are sorted by
// name so the same event always produces the same message.
func toMessage(event domain.OutputEvent) kafkago.Message {
	names := make([]string, 0, len(event.Headers))
	for name := range event.Headers {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make([]kafkago.Header, 0, len(names))
	for _, name := range names {
		headers = append(headers, kafkago.Header{Key: name, Value: []byte(event.Headers[name])})
	}
	return kafkago.Message{
		Key:     event.Key,
		Value:   event.Value,
		Headers: headers,
	}
}
