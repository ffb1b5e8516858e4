// README: Notification sinks. Publishing happens after commit and never fails the operation.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type Sink interface {
	Publish(ctx context.Context, events ...Event) error
}

type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(_ context.Context, events ...Event) error {
	for _, e := range events {
		s.log.Info().
			Str("event_id", string(e.ID)).
			Str("kind", string(e.Kind)).
			Str("audience", string(e.Audience)).
			Str("driver_id", string(e.DriverID)).
			Str("booking_id", string(e.BookingID)).
			Int64("amount", e.Amount).
			Msg(e.Message)
	}
	return nil
}

// RedisSink appends events to a Redis stream for downstream delivery workers.
type RedisSink struct {
	client *redis.Client
	stream string
}

func NewRedisSink(client *redis.Client, stream string) *RedisSink {
	return &RedisSink{client: client, stream: stream}
}

func (s *RedisSink) Publish(ctx context.Context, events ...Event) error {
	pipe := s.client.Pipeline()
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return err
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: s.stream,
			MaxLen: 100_000,
			Approx: true,
			Values: map[string]any{"routing_key": e.RoutingKey(), "event": body},
		})
	}
	_, err := pipe.Exec(ctx)
	return err
}

type AMQPSink struct {
	ch       *amqp.Channel
	exchange string
}

func NewAMQPSink(ch *amqp.Channel, exchange string) *AMQPSink {
	return &AMQPSink{ch: ch, exchange: exchange}
}

func (s *AMQPSink) Publish(ctx context.Context, events ...Event) error {
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := s.ch.PublishWithContext(ctx, s.exchange, e.RoutingKey(), false, false, amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    string(e.ID),
			Timestamp:    e.CreatedAt,
			Body:         body,
		}); err != nil {
			return fmt.Errorf("publish %s: %w", e.RoutingKey(), err)
		}
	}
	return nil
}

// MultiSink publishes to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Publish(ctx context.Context, events ...Event) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type NopSink struct{}

func (NopSink) Publish(context.Context, ...Event) error { return nil }
