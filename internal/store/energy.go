package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"procodus.dev/smarthome/pkg/metrics"
)

// maxQueryResults is the hard cap on energy query responses. It is not a
// page size: callers needing more must narrow their time range.
const maxQueryResults = 1000

// EnergyFilter narrows an energy query. Zero/nil fields are unconstrained;
// Start and End are both inclusive.
type EnergyFilter struct {
	DeviceID string
	Start    *time.Time
	End      *time.Time
}

// EnergyStore persists and serves append-only power samples.
type EnergyStore struct {
	logger  *slog.Logger
	db      *gorm.DB
	metrics *metrics.StoreMetrics // Optional metrics
}

// NewEnergyStore creates a new EnergyStore instance.
func NewEnergyStore(logger *slog.Logger, db *gorm.DB) (*EnergyStore, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if db == nil {
		return nil, errors.New("database cannot be nil")
	}

	return &EnergyStore{
		logger: logger,
		db:     db,
	}, nil
}

// SetMetrics sets the metrics collector for this store.
func (s *EnergyStore) SetMetrics(m *metrics.StoreMetrics) {
	s.metrics = m
}

// Append persists a new sample. Every append creates an independent record;
// there is no dedup or merge with prior samples for the same device+time.
func (s *EnergyStore) Append(ctx context.Context, deviceID string, watts float64, timestamp time.Time) (EnergySample, error) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.OperationDuration.WithLabelValues("append", "energy_sample"))
		defer timer.ObserveDuration()
	}

	if deviceID == "" {
		s.trackOp("append", "energy_sample", "error")
		return EnergySample{}, fmt.Errorf("%w: deviceId is required", ErrValidation)
	}

	if timestamp.IsZero() {
		s.trackOp("append", "energy_sample", "error")
		return EnergySample{}, fmt.Errorf("%w: timestamp is required", ErrValidation)
	}

	sample := EnergySample{
		DeviceID:  deviceID,
		Watts:     watts,
		Timestamp: timestamp.UTC(),
	}

	if err := s.db.WithContext(ctx).Create(&sample).Error; err != nil {
		s.trackOp("append", "energy_sample", "error")
		return EnergySample{}, fmt.Errorf("failed to create energy sample: %w", err)
	}

	s.logger.Debug("energy sample appended",
		"device_id", sample.DeviceID,
		"watts", sample.Watts,
		"timestamp", sample.Timestamp,
	)

	s.trackOp("append", "energy_sample", "success")
	return sample, nil
}

// Query returns samples matching the filter, most recent first, capped at
// 1000 records regardless of how many match.
func (s *EnergyStore) Query(ctx context.Context, filter EnergyFilter) ([]EnergySample, error) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.OperationDuration.WithLabelValues("query", "energy_sample"))
		defer timer.ObserveDuration()
	}

	query := s.db.WithContext(ctx).Model(&EnergySample{})

	if filter.DeviceID != "" {
		query = query.Where("device_id = ?", filter.DeviceID)
	}

	if filter.Start != nil {
		query = query.Where("timestamp >= ?", filter.Start.UTC())
	}

	if filter.End != nil {
		query = query.Where("timestamp <= ?", filter.End.UTC())
	}

	samples := make([]EnergySample, 0)
	if err := query.Order("timestamp DESC").Limit(maxQueryResults).Find(&samples).Error; err != nil {
		s.trackOp("query", "energy_sample", "error")
		return nil, fmt.Errorf("failed to query energy samples: %w", err)
	}

	s.logger.Debug("energy samples fetched",
		"device_id", filter.DeviceID,
		"count", len(samples),
	)

	s.trackOp("query", "energy_sample", "success")
	return samples, nil
}

func (s *EnergyStore) trackOp(operation, entity, status string) {
	if s.metrics != nil {
		s.metrics.OperationsTotal.WithLabelValues(operation, entity, status).Inc()
	}
}
