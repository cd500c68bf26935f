package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/smarthome/internal/simulator"
	"procodus.dev/smarthome/pkg/metrics"
)

var simulatorCmd = &cobra.Command{
	Use:   "simulator",
	Short: "Run the telemetry simulator",
	Long: `Run the telemetry simulator that:
- Simulates a fleet of household devices with realistic load curves
- Publishes power readings to RabbitMQ for the serve consumer to ingest`,
	RunE: runSimulator,
}

func init() {
	rootCmd.AddCommand(simulatorCmd)

	// Simulator-specific flags
	simulatorCmd.Flags().String("rabbitmq-url", "amqp://localhost:5672", "RabbitMQ URL")
	simulatorCmd.Flags().String("queue-name", "energy-samples", "RabbitMQ queue name for power telemetry")
	simulatorCmd.Flags().Int("device-count", 8, "Number of simulated devices")
	simulatorCmd.Flags().Duration("interval", 5*time.Second, "Interval between readings per device")

	// Bind flags to viper
	_ = viper.BindPFlag("simulator.rabbitmq.url", simulatorCmd.Flags().Lookup("rabbitmq-url"))
	_ = viper.BindPFlag("simulator.rabbitmq.queue_name", simulatorCmd.Flags().Lookup("queue-name"))
	_ = viper.BindPFlag("simulator.device_count", simulatorCmd.Flags().Lookup("device-count"))
	_ = viper.BindPFlag("simulator.interval", simulatorCmd.Flags().Lookup("interval"))
}

func runSimulator(_ *cobra.Command, _ []string) error {
	logger := GetLogger()
	logger.Info("starting simulator service")

	// Create simulator configuration from viper
	config := &simulator.ServerConfig{
		Logger:      logger,
		RabbitMQURL: viper.GetString("simulator.rabbitmq.url"),
		QueueName:   viper.GetString("simulator.rabbitmq.queue_name"),
		DeviceCount: viper.GetInt("simulator.device_count"),
		Interval:    viper.GetDuration("simulator.interval"),
		Metrics:     metrics.NewSimulatorMetrics("smarthome"),
		MQMetrics:   metrics.NewMQMetrics("smarthome"),
	}

	// Create and run server
	server, err := simulator.NewServer(config)
	if err != nil {
		logger.Error("failed to create simulator server", "error", err)
		return err
	}

	logger.Info("simulator configuration",
		"rabbitmq_url", config.RabbitMQURL,
		"queue_name", config.QueueName,
		"device_count", config.DeviceCount,
		"interval", config.Interval,
	)

	if err := server.Run(context.Background()); err != nil {
		logger.Error("simulator error", "error", err)
		return err
	}

	logger.Info("simulator stopped")
	return nil
}
