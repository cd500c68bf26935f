package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/smarthome/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server",
	Long: `Run the API server that:
- Serves the JSON API for rooms, devices, user profiles, and energy samples
- Persists data to PostgreSQL
- Optionally consumes power telemetry from RabbitMQ
- Exposes Prometheus metrics on /metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Serve-specific flags
	serveCmd.Flags().String("db-host", "localhost", "PostgreSQL host")
	serveCmd.Flags().Int("db-port", 5432, "PostgreSQL port")
	serveCmd.Flags().String("db-user", "postgres", "PostgreSQL user")
	serveCmd.Flags().String("db-password", "", "PostgreSQL password")
	serveCmd.Flags().String("db-name", "smarthome", "PostgreSQL database name")
	serveCmd.Flags().String("db-sslmode", "disable", "PostgreSQL SSL mode")
	serveCmd.Flags().Int("http-port", 3000, "HTTP server port")
	serveCmd.Flags().String("rabbitmq-url", "", "RabbitMQ URL (empty disables the telemetry consumer)")
	serveCmd.Flags().String("queue-name", "energy-samples", "RabbitMQ queue name for power telemetry")

	// Bind flags to viper
	_ = viper.BindPFlag("serve.db.host", serveCmd.Flags().Lookup("db-host"))
	_ = viper.BindPFlag("serve.db.port", serveCmd.Flags().Lookup("db-port"))
	_ = viper.BindPFlag("serve.db.user", serveCmd.Flags().Lookup("db-user"))
	_ = viper.BindPFlag("serve.db.password", serveCmd.Flags().Lookup("db-password"))
	_ = viper.BindPFlag("serve.db.name", serveCmd.Flags().Lookup("db-name"))
	_ = viper.BindPFlag("serve.db.sslmode", serveCmd.Flags().Lookup("db-sslmode"))
	_ = viper.BindPFlag("serve.http.port", serveCmd.Flags().Lookup("http-port"))
	_ = viper.BindPFlag("serve.rabbitmq.url", serveCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("serve.rabbitmq.queue_name", serveCmd.Flags().Lookup("queue-name"))
}

func runServe(_ *cobra.Command, _ []string) error {
	logger := GetLogger()
	logger.Info("starting API service")

	// Create server configuration from viper
	config := &api.ServerConfig{
		Logger:      logger,
		DBHost:      viper.GetString("serve.db.host"),
		DBPort:      viper.GetInt("serve.db.port"),
		DBUser:      viper.GetString("serve.db.user"),
		DBPassword:  viper.GetString("serve.db.password"),
		DBName:      viper.GetString("serve.db.name"),
		DBSSLMode:   viper.GetString("serve.db.sslmode"),
		HTTPPort:    viper.GetInt("serve.http.port"),
		RabbitMQURL: viper.GetString("serve.rabbitmq.url"),
		QueueName:   viper.GetString("serve.rabbitmq.queue_name"),
	}

	// Create and run server
	server, err := api.NewServer(config)
	if err != nil {
		logger.Error("failed to create API server", "error", err)
		return err
	}

	logger.Info("API server configuration",
		"db_host", config.DBHost,
		"db_port", config.DBPort,
		"db_name", config.DBName,
		"http_port", config.HTTPPort,
		"rabbitmq_url", config.RabbitMQURL,
		"queue_name", config.QueueName,
	)

	if err := server.Run(context.Background()); err != nil {
		logger.Error("API server error", "error", err)
		return err
	}

	logger.Info("API server stopped")
	return nil
}
