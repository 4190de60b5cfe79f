package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/location-reminder-service/internal/config"
	"github.com/couchcryptid/location-reminder-service/internal/transition"
)

// EventHandler consumes one decoded transition event.
type EventHandler interface {
	Handle(ctx context.Context, event transition.Event)
}

// Reader consumes transition events from the daemon's topic and feeds
// them to the handler. Offsets commit after handling: the handler
// tolerates duplicate delivery (notifications are idempotent enough) but
// an event must never be lost to a crash mid-handling.
type Reader struct {
	reader  *kafkago.Reader
	handler EventHandler
	logger  *slog.Logger
}

// NewReader creates a consumer-group reader on the transition topic.
func NewReader(cfg *config.Config, handler EventHandler, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTransitionTopic,
		GroupID: cfg.KafkaGroupID,
	})
	return &Reader{reader: r, handler: handler, logger: logger}
}

// Run consumes until the context is cancelled. Undecodable messages are
// logged and committed past; they would otherwise wedge the partition.
func (r *Reader) Run(ctx context.Context) error {
	r.logger.Info("transition consumer started", "topic", r.reader.Config().Topic)

	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				r.logger.Info("transition consumer stopping")
				return nil
			}
			return fmt.Errorf("fetch transition event: %w", err)
		}

		event, err := decodeEvent(msg)
		if err != nil {
			r.logger.Warn("skipping undecodable transition event",
				"error", err,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
		} else {
			r.handler.Handle(ctx, event)
		}

		if err := r.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn("commit offset failed", "error", err,
				"partition", msg.Partition, "offset", msg.Offset)
		}
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// decodeEvent deserializes a transition event message.
func decodeEvent(msg kafkago.Message) (transition.Event, error) {
	var event transition.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return transition.Event{}, fmt.Errorf("decode transition event: %w", err)
	}
	return event, nil
}
