// README: RabbitMQ connection and topic exchange declaration for outbound booking events.
package infra

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type AMQP struct {
	Conn     *amqp.Connection
	Channel  *amqp.Channel
	Exchange string
}

func NewAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQP{Conn: conn, Channel: ch, Exchange: exchange}, nil
}

func (a *AMQP) Close() error {
	if a.Channel != nil && !a.Channel.IsClosed() {
		if err := a.Channel.Close(); err != nil {
			return fmt.Errorf("close amqp channel: %w", err)
		}
	}
	if a.Conn != nil && !a.Conn.IsClosed() {
		return a.Conn.Close()
	}
	return nil
}
