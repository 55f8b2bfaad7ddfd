package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const redacted = "[redacted]"

// KafkaSink publishes notification requests as JSON to a Kafka topic, keyed by user id.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink returns a sink writing to topic on brokers, or nil when either is empty.
// Call Close when shutting down.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaSink{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}}
}

// Send serializes n and writes it to the topic.
func (s *KafkaSink) Send(ctx context.Context, n Notification) error {
	if s == nil || s.writer == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	})
}

// Close closes the Kafka writer. Safe to call on a nil sink.
func (s *KafkaSink) Close() error {
	if s == nil || s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

// OTelSink records notification requests as OpenTelemetry log records.
type OTelSink struct {
	logger otellog.Logger
}

// NewOTelSink returns a sink emitting through provider, or nil when provider is nil.
func NewOTelSink(provider *sdklog.LoggerProvider) *OTelSink {
	if provider == nil {
		return nil
	}
	return &OTelSink{logger: provider.Logger("lynkskill.notification")}
}

// Send emits n as a log record. Sensitive messages are redacted.
func (s *OTelSink) Send(ctx context.Context, n Notification) error {
	if s == nil {
		return nil
	}
	rec := otellog.Record{}
	rec.SetTimestamp(n.CreatedAt)
	rec.SetSeverity(otellog.SeverityInfo)
	msg := n.Message
	if n.Sensitive {
		msg = redacted
	}
	rec.SetBody(otellog.StringValue(msg))
	rec.AddAttributes(
		otellog.String("notification.id", n.ID),
		otellog.String("notification.kind", string(n.Kind)),
		otellog.String("notification.title", n.Title),
		otellog.String("user_id", n.UserID),
		otellog.String("org_id", n.OrgID),
	)
	s.logger.Emit(ctx, rec)
	return nil
}

// LogSink writes notification requests to the process log. Used when no broker is configured.
type LogSink struct{}

// Send logs n. Sensitive messages are redacted.
func (LogSink) Send(_ context.Context, n Notification) error {
	msg := n.Message
	if n.Sensitive {
		msg = redacted
	}
	log.Info().
		Str("notification_id", n.ID).
		Str("kind", string(n.Kind)).
		Str("user_id", n.UserID).
		Str("org_id", n.OrgID).
		Str("title", n.Title).
		Str("message", msg).
		Msg("notification requested")
	return nil
}

// Multi sends to every sink and joins their errors.
type Multi []Sink

// NewMulti returns a Multi of the non-nil sinks.
func NewMulti(sinks ...Sink) Multi {
	out := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil && !isNilSink(s) {
			out = append(out, s)
		}
	}
	return out
}

func (m Multi) Send(ctx context.Context, n Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func isNilSink(s Sink) bool {
	switch v := s.(type) {
	case *KafkaSink:
		return v == nil
	case *OTelSink:
		return v == nil
	}
	return false
}
