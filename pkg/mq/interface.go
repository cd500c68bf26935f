package mq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ClientInterface defines the interface for message queue operations.
// It exists so consumers and publishers can be tested against a mock.
type ClientInterface interface {
	// Push will push data onto the queue and wait for a confirmation.
	// This blocks until the server sends a confirmation. The context is
	// used for cancellation and timeout.
	Push(ctx context.Context, data []byte) error

	// Consume will continuously put queue items on the returned channel.
	// Callers must Ack each delivery after successful processing, or Nack
	// it on failure; data builds up on the server otherwise.
	Consume() (<-chan amqp.Delivery, error)

	// Close will cleanly shut down the channel and connection.
	Close() error
}

// Ensure Client implements ClientInterface.
var _ ClientInterface = (*Client)(nil)
