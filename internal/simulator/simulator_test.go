package simulator_test

import (
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/smarthome/internal/simulator"
)

var _ = Describe("Simulator Server", func() {
	var (
		logger *slog.Logger
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	})

	Describe("NewServer", func() {
		Context("with valid configuration", func() {
			It("should create the configured number of devices", func() {
				config := &simulator.ServerConfig{
					Logger:      logger,
					RabbitMQURL: "amqp://localhost:5672",
					QueueName:   "energy-samples",
					DeviceCount: 4,
					Interval:    time.Second,
				}

				server, err := simulator.NewServer(config)
				Expect(err).NotTo(HaveOccurred())
				Expect(server).NotTo(BeNil())
			})
		})

		Context("with invalid configuration", func() {
			It("should return error when device count is zero", func() {
				config := &simulator.ServerConfig{
					Logger:      logger,
					RabbitMQURL: "amqp://localhost:5672",
					QueueName:   "energy-samples",
					DeviceCount: 0,
					Interval:    time.Second,
				}

				server, err := simulator.NewServer(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("device count"))
				Expect(server).To(BeNil())
			})

			It("should return error when interval is zero", func() {
				config := &simulator.ServerConfig{
					Logger:      logger,
					RabbitMQURL: "amqp://localhost:5672",
					QueueName:   "energy-samples",
					DeviceCount: 4,
				}

				server, err := simulator.NewServer(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("interval"))
				Expect(server).To(BeNil())
			})

			It("should return error when logger is nil", func() {
				config := &simulator.ServerConfig{
					RabbitMQURL: "amqp://localhost:5672",
					QueueName:   "energy-samples",
					DeviceCount: 4,
					Interval:    time.Second,
				}

				server, err := simulator.NewServer(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("logger"))
				Expect(server).To(BeNil())
			})

			It("should return error when rabbitmq URL is empty", func() {
				config := &simulator.ServerConfig{
					Logger:      logger,
					QueueName:   "energy-samples",
					DeviceCount: 4,
					Interval:    time.Second,
				}

				server, err := simulator.NewServer(config)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("rabbitmq"))
				Expect(server).To(BeNil())
			})
		})
	})
})
