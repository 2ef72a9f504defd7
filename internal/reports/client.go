package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// DefaultQueue is the queue report requests are published to.
const DefaultQueue = "report_queue"

// Client connects to RabbitMQ and publishes to and consumes from a
// single durable queue via the default exchange.
type Client struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	queue   string
}

func NewClient(url, queue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &Client{conn: conn, channel: channel, queue: queue}, nil
}

// Publish sends a persistent message to the queue. Together with the
// durable queue this survives a broker restart.
func (c *Client) Publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		"",      // default exchange
		c.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	return nil
}

// Consume delivers queue messages to the handler until the context is
// cancelled. Messages are acked only after the handler succeeds, a
// failed handler requeues the message.
func (c *Client) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	deliveries, err := c.channel.Consume(
		c.queue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	log.Info().Str("queue", c.queue).Msg("consuming report requests")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel for queue %s closed", c.queue)
			}

			err := handler(ctx, delivery.Body)
			if err != nil {
				log.Error().Err(err).Str("queue", c.queue).Msg("report request failed, requeueing")
				_ = delivery.Nack(false, true)
				continue
			}

			_ = delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}

	if c.conn != nil {
		return c.conn.Close()
	}

	return nil
}
