// Package ingest consumes energy-sample telemetry from RabbitMQ and appends
// it to the sample store. It is an input path for device-pushed readings,
// not a delivery channel; nothing here notifies clients.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"

	"procodus.dev/smarthome/internal/gateway"
	"procodus.dev/smarthome/internal/store"
	"procodus.dev/smarthome/pkg/metrics"
	"procodus.dev/smarthome/pkg/mq"
)

// SampleAppender is the slice of the energy store the consumer needs.
type SampleAppender interface {
	Append(ctx context.Context, deviceID string, watts float64, timestamp time.Time) (store.EnergySample, error)
}

// sampleMessage is the wire shape of one telemetry reading. Watts and
// timestamp tolerate the same representations the HTTP boundary accepts.
type sampleMessage struct {
	DeviceID  string `json:"deviceId"`
	Watts     any    `json:"watts"`
	Timestamp any    `json:"timestamp"`
}

// Consumer consumes telemetry messages from RabbitMQ and persists them.
type Consumer struct {
	logger    *slog.Logger
	samples   SampleAppender
	mqClient  mq.ClientInterface
	queueName string
	done      chan struct{}
	metrics   *metrics.IngestMetrics // Optional metrics
}

// ConsumerConfig holds the configuration for the Consumer.
type ConsumerConfig struct {
	Logger      *slog.Logger
	Samples     SampleAppender
	RabbitMQURL string
	QueueName   string

	// Client overrides the RabbitMQ client, for tests. When nil a real
	// client is created from RabbitMQURL.
	Client mq.ClientInterface

	// Metrics is the optional Prometheus metrics collector.
	Metrics *metrics.IngestMetrics
}

// NewConsumer creates a new Consumer instance.
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg == nil {
		return nil, errors.New("consumer config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Samples == nil {
		return nil, errors.New("sample store cannot be nil")
	}

	if cfg.QueueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}

	client := cfg.Client
	if client == nil {
		if cfg.RabbitMQURL == "" {
			return nil, errors.New("rabbitmq URL cannot be empty")
		}
		client = mq.New(cfg.QueueName, cfg.RabbitMQURL, cfg.Logger)
	}

	return &Consumer{
		logger:    cfg.Logger,
		samples:   cfg.Samples,
		mqClient:  client,
		queueName: cfg.QueueName,
		done:      make(chan struct{}),
		metrics:   cfg.Metrics,
	}, nil
}

// Start begins consuming telemetry from RabbitMQ.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting telemetry consumer", "queue", c.queueName)

	// Give the MQ client time to establish its first connection.
	time.Sleep(2 * time.Second)

	deliveries, err := c.mqClient.Consume()
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.logger.Info("telemetry consumer started, waiting for messages")

	if c.metrics != nil {
		c.metrics.ActiveConsumers.Inc()
	}

	go c.processMessages(ctx, deliveries)

	return nil
}

// processMessages drains the deliveries channel until shutdown.
func (c *Consumer) processMessages(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer func() {
		if c.metrics != nil {
			c.metrics.ActiveConsumers.Dec()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context canceled, stopping telemetry processing")
			close(c.done)
			return

		case delivery, ok := <-deliveries:
			if !ok {
				c.logger.Warn("deliveries channel closed")
				close(c.done)
				return
			}

			c.handleDelivery(ctx, delivery)
		}
	}
}

// handleDelivery processes a single telemetry delivery. Permanently bad
// payloads are acked and dropped so they don't cycle through the queue
// forever; persistence failures are nacked for redelivery.
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp.Delivery) {
	var timer *prometheus.Timer
	if c.metrics != nil {
		timer = prometheus.NewTimer(c.metrics.ProcessingDuration.WithLabelValues(c.queueName))
		defer timer.ObserveDuration()
	}

	sample, err := decodeSample(delivery.Body)
	if err != nil {
		c.logger.Error("dropping invalid telemetry message", "error", err)
		c.trackMessage("invalid")
		if ackErr := delivery.Ack(false); ackErr != nil {
			c.logger.Error("failed to ack message", "error", ackErr)
		}
		return
	}

	if _, err := c.samples.Append(ctx, sample.deviceID, sample.watts, sample.timestamp); err != nil {
		if errors.Is(err, store.ErrValidation) {
			c.logger.Error("dropping invalid telemetry message", "error", err)
			c.trackMessage("invalid")
			if ackErr := delivery.Ack(false); ackErr != nil {
				c.logger.Error("failed to ack message", "error", ackErr)
			}
			return
		}

		c.logger.Error("failed to persist telemetry",
			"device_id", sample.deviceID,
			"error", err,
		)
		c.trackMessage("error")
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			c.logger.Error("failed to nack message", "error", nackErr)
		}
		return
	}

	if err := delivery.Ack(false); err != nil {
		c.logger.Error("failed to ack message", "error", err)
		return
	}

	c.trackMessage("success")
	c.logger.Debug("telemetry sample persisted", "device_id", sample.deviceID)
}

type decodedSample struct {
	deviceID  string
	watts     float64
	timestamp time.Time
}

// decodeSample parses and coerces one telemetry payload.
func decodeSample(body []byte) (decodedSample, error) {
	var msg sampleMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return decodedSample{}, fmt.Errorf("unmarshal telemetry: %w", err)
	}

	if msg.DeviceID == "" {
		return decodedSample{}, errors.New("telemetry message missing deviceId")
	}

	watts, err := gateway.Number(msg.Watts)
	if err != nil {
		return decodedSample{}, err
	}

	timestamp, err := gateway.Instant(msg.Timestamp)
	if err != nil {
		return decodedSample{}, err
	}

	return decodedSample{
		deviceID:  msg.DeviceID,
		watts:     watts,
		timestamp: timestamp,
	}, nil
}

func (c *Consumer) trackMessage(status string) {
	if c.metrics != nil {
		c.metrics.MessagesTotal.WithLabelValues(c.queueName, status).Inc()
	}
}

// Stop stops the consumer and closes the MQ client.
func (c *Consumer) Stop() error {
	c.logger.Info("stopping telemetry consumer")

	if err := c.mqClient.Close(); err != nil {
		return fmt.Errorf("failed to close mq client: %w", err)
	}

	// Wait for in-flight message processing to finish.
	<-c.done

	c.logger.Info("telemetry consumer stopped")
	return nil
}
