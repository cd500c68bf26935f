package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"procodus.dev/smarthome/pkg/metrics"
)

// ProfileUpdate carries a partial profile change. Nil fields keep their
// stored value on an existing record, or take schema defaults on a new one.
// Homes and Settings replace wholesale when present.
type ProfileUpdate struct {
	UserID        string    `json:"userId,omitempty"`
	Name          *string   `json:"name,omitempty"`
	Address       *string   `json:"address,omitempty"`
	PreferredUnit *string   `json:"preferredUnit,omitempty"`
	Homes         *[]Home   `json:"homes,omitempty"`
	Settings      *Settings `json:"settings,omitempty"`
}

// ProfileStore persists one profile per user identity.
type ProfileStore struct {
	logger  *slog.Logger
	db      *gorm.DB
	metrics *metrics.StoreMetrics // Optional metrics
}

// NewProfileStore creates a new ProfileStore instance.
func NewProfileStore(logger *slog.Logger, db *gorm.DB) (*ProfileStore, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if db == nil {
		return nil, errors.New("database cannot be nil")
	}

	return &ProfileStore{
		logger: logger,
		db:     db,
	}, nil
}

// SetMetrics sets the metrics collector for this store.
func (s *ProfileStore) SetMetrics(m *metrics.StoreMetrics) {
	s.metrics = m
}

// GetByUserID returns the stored profile, or a synthesized guest profile
// when none exists. The synthesized profile is not persisted; a later read
// of the raw table shows no record.
func (s *ProfileStore) GetByUserID(ctx context.Context, userID string) (UserProfile, error) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.OperationDuration.WithLabelValues("get", "user_profile"))
		defer timer.ObserveDuration()
	}

	if userID == "" {
		s.trackOp("get", "user_profile", "error")
		return UserProfile{}, fmt.Errorf("%w: userId is required", ErrValidation)
	}

	var profile UserProfile
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug("no stored profile, serving default", "user_id", userID)
			s.trackOp("get", "user_profile", "success")
			return DefaultProfile(userID), nil
		}
		s.trackOp("get", "user_profile", "error")
		return UserProfile{}, fmt.Errorf("failed to fetch profile: %w", err)
	}

	s.trackOp("get", "user_profile", "success")
	return profile, nil
}

// Upsert creates the profile on first write and merges on subsequent ones:
// every field present in the update overwrites the stored value, absent
// fields are untouched. Returns the post-upsert document; idempotent on
// repeat calls with the same payload.
func (s *ProfileStore) Upsert(ctx context.Context, userID string, update ProfileUpdate) (UserProfile, error) {
	var timer *prometheus.Timer
	if s.metrics != nil {
		timer = prometheus.NewTimer(s.metrics.OperationDuration.WithLabelValues("upsert", "user_profile"))
		defer timer.ObserveDuration()
	}

	if userID == "" {
		userID = update.UserID
	}
	if userID == "" {
		s.trackOp("upsert", "user_profile", "error")
		return UserProfile{}, fmt.Errorf("%w: userId is required", ErrValidation)
	}

	if update.PreferredUnit != nil && *update.PreferredUnit != UnitKWh && *update.PreferredUnit != UnitRupees {
		s.trackOp("upsert", "user_profile", "error")
		return UserProfile{}, fmt.Errorf("%w: preferredUnit must be %q or %q", ErrValidation, UnitKWh, UnitRupees)
	}

	var profile UserProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&profile).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile = NewProfile(userID)
			applyProfileUpdate(&profile, update)
			if err := tx.Create(&profile).Error; err != nil {
				return fmt.Errorf("failed to create profile: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to fetch profile: %w", err)
		default:
			applyProfileUpdate(&profile, update)
			if err := tx.Save(&profile).Error; err != nil {
				return fmt.Errorf("failed to update profile: %w", err)
			}
			return nil
		}
	})
	if err != nil {
		s.trackOp("upsert", "user_profile", "error")
		return UserProfile{}, err
	}

	s.logger.Info("profile upserted", "user_id", userID)

	s.trackOp("upsert", "user_profile", "success")
	return profile, nil
}

// applyProfileUpdate overlays the present fields of the update onto the
// profile. Homes and Settings are top-level fields and replace as a unit.
func applyProfileUpdate(profile *UserProfile, update ProfileUpdate) {
	if update.Name != nil {
		profile.Name = *update.Name
	}
	if update.Address != nil {
		profile.Address = *update.Address
	}
	if update.PreferredUnit != nil {
		profile.PreferredUnit = *update.PreferredUnit
	}
	if update.Homes != nil {
		profile.Homes = *update.Homes
	}
	if update.Settings != nil {
		profile.Settings = *update.Settings
	}
}

func (s *ProfileStore) trackOp(operation, entity, status string) {
	if s.metrics != nil {
		s.metrics.OperationsTotal.WithLabelValues(operation, entity, status).Inc()
	}
}
