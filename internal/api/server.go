package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm"

	"procodus.dev/smarthome/internal/ingest"
	"procodus.dev/smarthome/internal/store"
	"procodus.dev/smarthome/pkg/metrics"
)

const metricsNamespace = "smarthome"

// Server represents the backend server that manages database, HTTP API, and
// the optional telemetry consumer.
type Server struct {
	logger     *slog.Logger
	db         *gorm.DB
	consumer   *ingest.Consumer
	httpServer *http.Server
	config     *ServerConfig
}

// ServerConfig holds the configuration for the Server.
type ServerConfig struct {
	Logger *slog.Logger

	// Database configuration
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// RabbitMQ configuration. An empty URL disables the telemetry
	// consumer; the HTTP API still accepts samples directly.
	RabbitMQURL string
	QueueName   string

	// HTTP configuration
	HTTPPort int

	// Database port
	DBPort int
}

// NewServer creates a new Server instance.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.DBHost == "" {
		return nil, errors.New("database host cannot be empty")
	}

	if cfg.DBPort <= 0 {
		return nil, errors.New("database port must be positive")
	}

	if cfg.DBUser == "" {
		return nil, errors.New("database user cannot be empty")
	}

	if cfg.DBName == "" {
		return nil, errors.New("database name cannot be empty")
	}

	if cfg.HTTPPort <= 0 {
		return nil, errors.New("HTTP port must be positive")
	}

	if cfg.RabbitMQURL != "" && cfg.QueueName == "" {
		return nil, errors.New("queue name cannot be empty when rabbitmq is configured")
	}

	return &Server{
		logger: cfg.Logger,
		config: cfg,
	}, nil
}

// Run starts the backend server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting smart-home server")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Initialize database
	dbCfg := &store.DBConfig{
		Host:     s.config.DBHost,
		Port:     s.config.DBPort,
		User:     s.config.DBUser,
		Password: s.config.DBPassword,
		DBName:   s.config.DBName,
		SSLMode:  s.config.DBSSLMode,
		Logger:   s.logger,
	}

	db, err := store.NewDB(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	s.db = db

	s.logger.Info("database initialized successfully")

	// Initialize stores
	storeMetrics := metrics.NewStoreMetrics(metricsNamespace)

	energyStore, err := store.NewEnergyStore(s.logger, s.db)
	if err != nil {
		return fmt.Errorf("failed to initialize energy store: %w", err)
	}
	energyStore.SetMetrics(storeMetrics)

	roomStore, err := store.NewRoomStore(s.logger, s.db)
	if err != nil {
		return fmt.Errorf("failed to initialize room store: %w", err)
	}
	roomStore.SetMetrics(storeMetrics)

	profileStore, err := store.NewProfileStore(s.logger, s.db)
	if err != nil {
		return fmt.Errorf("failed to initialize profile store: %w", err)
	}
	profileStore.SetMetrics(storeMetrics)

	// Initialize HTTP handlers
	handler, err := NewHandler(s.logger, energyStore, roomStore, profileStore)
	if err != nil {
		return fmt.Errorf("failed to initialize handlers: %w", err)
	}
	handler.SetMetrics(metrics.NewAPIMetrics(metricsNamespace))

	// Start the telemetry consumer when RabbitMQ is configured
	if s.config.RabbitMQURL != "" {
		consumerCfg := &ingest.ConsumerConfig{
			Logger:      s.logger,
			Samples:     energyStore,
			RabbitMQURL: s.config.RabbitMQURL,
			QueueName:   s.config.QueueName,
			Metrics:     metrics.NewIngestMetrics(metricsNamespace),
		}

		consumer, err := ingest.NewConsumer(consumerCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize consumer: %w", err)
		}
		s.consumer = consumer

		if err := s.consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start consumer: %w", err)
		}
	} else {
		s.logger.Info("rabbitmq URL not configured, telemetry consumer disabled")
	}

	// Create HTTP server
	httpAddr := fmt.Sprintf(":%d", s.config.HTTPPort)
	s.httpServer = &http.Server{
		Addr:              httpAddr,
		Handler:           handler.HTTPHandler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "address", httpAddr)

	// Start HTTP server in goroutine
	httpErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(httpErr)
	}()

	s.logger.Info("smart-home server started successfully")

	// Wait for shutdown signal or HTTP error
	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled")
	case err := <-httpErr:
		if err != nil {
			s.logger.Error("HTTP server error", "error", err)
			cancel()
			return err
		}
	}

	// Shutdown
	return s.Shutdown()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down smart-home server")

	var shutdownErr error

	// Stop HTTP server
	if s.httpServer != nil {
		s.logger.Info("stopping HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to stop HTTP server", "error", err)
			shutdownErr = fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		shutdownCancel()
		s.logger.Info("HTTP server stopped")
	}

	// Stop consumer
	if s.consumer != nil {
		s.logger.Info("stopping consumer")
		if err := s.consumer.Stop(); err != nil {
			s.logger.Error("failed to stop consumer", "error", err)
			if shutdownErr != nil {
				shutdownErr = fmt.Errorf("%w; consumer shutdown error: %w", shutdownErr, err)
			} else {
				shutdownErr = fmt.Errorf("consumer shutdown error: %w", err)
			}
		}
	}

	// Close database
	if s.db != nil {
		s.logger.Info("closing database connection")
		if err := store.CloseDB(s.db, s.logger); err != nil {
			s.logger.Error("failed to close database", "error", err)
			if shutdownErr != nil {
				shutdownErr = fmt.Errorf("%w; database close error: %w", shutdownErr, err)
			} else {
				shutdownErr = fmt.Errorf("database close error: %w", err)
			}
		}
	}

	if shutdownErr != nil {
		s.logger.Error("smart-home server shutdown completed with errors", "error", shutdownErr)
		return shutdownErr
	}

	s.logger.Info("smart-home server shutdown completed successfully")
	return nil
}
