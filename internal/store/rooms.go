package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"procodus.dev/smarthome/pkg/metrics"
)

// DeviceStateUpdate carries a partial device-state change. Nil fields are
// left untouched on the stored state.
type DeviceStateUpdate struct {
	IsOn        *bool    `json:"isOn,omitempty"`
	Brightness  *float64 `json:"brightness,omitempty"`
	FanSpeed    *float64 `json:"fanSpeed,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Mode        *string  `json:"mode,omitempty"`
}

// Empty reports whether the update carries no fields at all.
func (u DeviceStateUpdate) Empty() bool {
	return u.IsOn == nil && u.Brightness == nil && u.FanSpeed == nil &&
		u.Temperature == nil && u.Mode == nil
}

// RoomStore persists room aggregates. An upsert replaces the whole document
// including the embedded device list; this is deliberately different from
// the field-merge upsert on user profiles.
type RoomStore struct {
	logger  *slog.Logger
	db      *gorm.DB
	metrics *metrics.StoreMetrics // Optional metrics
}

// NewRoomStore creates a new RoomStore instance.
func NewRoomStore(logger *slog.Logger, db *gorm.DB) (*RoomStore, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if db == nil {
		return nil, errors.New("database cannot be nil")
	}

	return &RoomStore{
		logger: logger,
		db:     db,
	}, nil
}

// SetMetrics sets the metrics collector for this store.
func (s *RoomStore) SetMetrics(m *metrics.StoreMetrics) {
	s.metrics = m
}

// ListAll returns every persisted room in store-native order. An empty
// result is a valid "no data yet" state, not an error.
func (s *RoomStore) ListAll(ctx context.Context) ([]Room, error) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.OperationDuration.WithLabelValues("list", "room"))
		defer timer.ObserveDuration()
	}

	rooms := make([]Room, 0)
	if err := s.db.WithContext(ctx).Find(&rooms).Error; err != nil {
		s.trackOp("list", "room", "error")
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	s.logger.Debug("rooms fetched", "count", len(rooms))

	s.trackOp("list", "room", "success")
	return rooms, nil
}

// GetByID looks up a room by its external identifier.
func (s *RoomStore) GetByID(ctx context.Context, roomID string) (Room, error) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.OperationDuration.WithLabelValues("get", "room"))
		defer timer.ObserveDuration()
	}

	var room Room
	if err := s.db.WithContext(ctx).Where("room_id = ?", roomID).First(&room).Error; err != nil {
		s.trackOp("get", "room", "error")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Room{}, fmt.Errorf("%w: room %q", ErrNotFound, roomID)
		}
		return Room{}, fmt.Errorf("failed to fetch room: %w", err)
	}

	s.trackOp("get", "room", "success")
	return room, nil
}

// Upsert replaces the full room document keyed by its external id, creating
// it when absent. The embedded device list is replaced along with the rest;
// racing upserts to the same id resolve last-write-wins at the database.
func (s *RoomStore) Upsert(ctx context.Context, room Room) (Room, error) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.OperationDuration.WithLabelValues("upsert", "room"))
		defer timer.ObserveDuration()
	}

	if room.RoomID == "" {
		s.trackOp("upsert", "room", "error")
		return Room{}, fmt.Errorf("%w: room id is required", ErrValidation)
	}

	if room.Name == "" || room.Type == "" {
		s.trackOp("upsert", "room", "error")
		return Room{}, fmt.Errorf("%w: room name and type are required", ErrValidation)
	}

	if room.Devices == nil {
		room.Devices = make([]Device, 0)
	}

	// RETURNING scans the stored row back so the returned document carries
	// the row's real timestamps, not the ones of this call's struct.
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "room_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "type", "devices", "image_url", "is_favorite", "updated_at",
		}),
	}, clause.Returning{}).Create(&room).Error
	if err != nil {
		s.trackOp("upsert", "room", "error")
		return Room{}, fmt.Errorf("failed to upsert room: %w", err)
	}

	s.logger.Info("room upserted",
		"room_id", room.RoomID,
		"name", room.Name,
		"device_count", len(room.Devices),
	)

	s.trackOp("upsert", "room", "success")
	return room, nil
}

// UpdateDeviceState merges a partial state change into one device of a room
// aggregate. The room row is locked for the duration of the merge so that
// concurrent toggles of different devices in the same room don't lose
// updates to a whole-document rewrite.
func (s *RoomStore) UpdateDeviceState(ctx context.Context, roomID, deviceID string, update DeviceStateUpdate) (Room, error) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.OperationDuration.WithLabelValues("update_device", "room"))
		defer timer.ObserveDuration()
	}

	var room Room
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ?", roomID).First(&room).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: room %q", ErrNotFound, roomID)
			}
			return fmt.Errorf("failed to fetch room: %w", err)
		}

		idx := -1
		for i := range room.Devices {
			if room.Devices[i].ID == deviceID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: device %q in room %q", ErrNotFound, deviceID, roomID)
		}

		device := &room.Devices[idx]
		if update.IsOn != nil {
			device.State.IsOn = *update.IsOn
		}
		if update.Brightness != nil {
			device.State.Brightness = update.Brightness
		}
		if update.FanSpeed != nil {
			device.State.FanSpeed = update.FanSpeed
		}
		if update.Temperature != nil {
			device.State.Temperature = update.Temperature
		}
		if update.Mode != nil {
			device.State.Mode = *update.Mode
		}

		now := time.Now().UTC()
		device.LastUpdate = &now

		if err := tx.Save(&room).Error; err != nil {
			return fmt.Errorf("failed to save room: %w", err)
		}

		return nil
	})
	if err != nil {
		s.trackOp("update_device", "room", "error")
		return Room{}, err
	}

	s.logger.Info("device state updated",
		"room_id", roomID,
		"device_id", deviceID,
	)

	s.trackOp("update_device", "room", "success")
	return room, nil
}

// Reset deletes every room and reloads the given set. It backs the
// administrative seeding path and must never run inside request serving.
func (s *RoomStore) Reset(ctx context.Context, rooms []Room) error {
	session := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := session.Delete(&Room{}).Error; err != nil {
		s.trackOp("reset", "room", "error")
		return fmt.Errorf("failed to clear rooms: %w", err)
	}

	for _, room := range rooms {
		if _, err := s.Upsert(ctx, room); err != nil {
			s.trackOp("reset", "room", "error")
			return err
		}
	}

	s.logger.Info("rooms reset", "count", len(rooms))

	s.trackOp("reset", "room", "success")
	return nil
}

func (s *RoomStore) trackOp(operation, entity, status string) {
	if s.metrics != nil {
		s.metrics.OperationsTotal.WithLabelValues(operation, entity, status).Inc()
	}
}
