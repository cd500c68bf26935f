package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"procodus.dev/smarthome/pkg/metrics"
	"procodus.dev/smarthome/pkg/mq"
)

// sampleMessage is the JSON payload published for one reading. It matches
// the shape the ingest consumer and the POST /api/energy endpoint accept.
type sampleMessage struct {
	DeviceID  string  `json:"deviceId"`
	Watts     float64 `json:"watts"`
	Timestamp string  `json:"timestamp"`
}

// ServerConfig holds the configuration for the simulator server.
type ServerConfig struct {
	// Logger is the structured logger
	Logger *slog.Logger
	// RabbitMQURL is the connection string for RabbitMQ
	RabbitMQURL string
	// QueueName is the name of the queue to publish power readings to
	QueueName string
	// Interval is the time between readings per device
	Interval time.Duration
	// DeviceCount is the number of simulated devices
	DeviceCount int
	// Metrics is the optional Prometheus metrics collector
	Metrics *metrics.SimulatorMetrics
	// MQMetrics is the optional Prometheus metrics collector for MQ operations
	MQMetrics *metrics.MQMetrics
}

// Server runs a fleet of simulated household devices.
type Server struct {
	logger  *slog.Logger
	config  *ServerConfig
	devices []*HouseholdDevice
	client  *mq.Client
	wg      sync.WaitGroup
	metrics *metrics.SimulatorMetrics
}

var (
	errInvalidDeviceCount = errors.New("device count must be greater than 0")
	errInvalidInterval    = errors.New("interval must be greater than 0")
	errLoggerRequired     = errors.New("logger is required")
	errRabbitMQRequired   = errors.New("rabbitmq URL is required")
)

// NewServer creates a new simulator server with the given configuration.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.DeviceCount <= 0 {
		return nil, errInvalidDeviceCount
	}

	if cfg.Interval <= 0 {
		return nil, errInvalidInterval
	}

	if cfg.Logger == nil {
		return nil, errLoggerRequired
	}

	if cfg.RabbitMQURL == "" {
		return nil, errRabbitMQRequired
	}

	client := mq.New(cfg.QueueName, cfg.RabbitMQURL, cfg.Logger.With(
		slog.String("component", "mq-client"),
	))

	if cfg.MQMetrics != nil {
		client.SetMetrics(cfg.MQMetrics)
	}

	s := &Server{
		config:  cfg,
		devices: make([]*HouseholdDevice, 0, cfg.DeviceCount),
		client:  client,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}

	for i := 0; i < cfg.DeviceCount; i++ {
		device := NewHouseholdDevice()
		s.devices = append(s.devices, device)

		s.logger.Info("created simulated device",
			"device_id", device.DeviceID,
			"name", device.Name,
			"type", device.Type,
		)
	}

	return s, nil
}

// Run starts all simulated devices and blocks until shutdown signal is received.
func (s *Server) Run(ctx context.Context) error {
	// Create context that can be canceled
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Start all devices
	for i, device := range s.devices {
		s.wg.Add(1)
		go s.runDevice(ctx, i, device)
	}

	s.logger.Info("simulator started",
		"device_count", len(s.devices),
		"interval", s.config.Interval,
		"queue", s.config.QueueName,
	)

	// Wait for shutdown signal
	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled, shutting down")
	}

	// Wait for all devices to finish
	s.logger.Info("waiting for simulated devices to shut down...")
	s.wg.Wait()

	// Close the MQ client
	s.logger.Info("closing MQ client...")
	if err := s.client.Close(); err != nil {
		s.logger.Error("failed to close MQ client", "error", err)
	}

	s.logger.Info("simulator stopped")
	return nil
}

// runDevice publishes readings for a single simulated device at the
// configured interval.
func (s *Server) runDevice(ctx context.Context, id int, device *HouseholdDevice) {
	defer s.wg.Done()

	if s.metrics != nil {
		s.metrics.ActiveSimulators.Inc()
		defer s.metrics.ActiveSimulators.Dec()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	deviceLogger := s.logger.With(
		slog.Int("simulator_id", id),
		slog.String("device_id", device.DeviceID),
	)
	deviceLogger.Info("simulated device started")

	for {
		select {
		case <-ctx.Done():
			deviceLogger.Info("simulated device shutting down")
			return

		case <-ticker.C:
			if err := s.publishReading(ctx, device); err != nil {
				deviceLogger.Error("failed to publish reading", "error", err)
				// Continue on error - don't stop the device
				continue
			}

			deviceLogger.Debug("reading published")
		}
	}
}

// publishReading generates and publishes one power reading.
func (s *Server) publishReading(ctx context.Context, device *HouseholdDevice) error {
	now := time.Now().UTC()

	msg := sampleMessage{
		DeviceID:  device.DeviceID,
		Watts:     device.GenerateLoad(now),
		Timestamp: now.Format(time.RFC3339),
	}

	data, err := json.Marshal(msg)
	if err != nil {
		s.trackFailure("marshal")
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	if err := s.client.Push(ctx, data); err != nil {
		s.trackFailure("publish")
		return fmt.Errorf("failed to publish reading: %w", err)
	}

	if s.metrics != nil {
		s.metrics.SamplesPublished.WithLabelValues(device.Type).Inc()
	}

	return nil
}

func (s *Server) trackFailure(reason string) {
	if s.metrics != nil {
		s.metrics.PublishFailures.WithLabelValues(reason).Inc()
	}
}
