// Package store provides the persistence layer for the smart-home backend:
// room aggregates with embedded devices, user profiles, and time-series
// energy samples, all backed by PostgreSQL through GORM.
package store

import (
	"time"
)

// PreferredUnit values accepted on a user profile.
const (
	UnitKWh    = "kWh"
	UnitRupees = "Rs"
)

// defaultAddress is the placeholder shown until a user fills in an address.
const defaultAddress = "—"

// EnergySample is one instantaneous power-draw reading for a device.
// Samples are append-only; they are never updated or deleted by this layer.
type EnergySample struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	DeviceID  string    `gorm:"index:idx_device_timestamp;not null" json:"deviceId"`
	Timestamp time.Time `gorm:"index:idx_device_timestamp;index:idx_timestamp;not null" json:"timestamp"`
	Watts     float64   `gorm:"not null" json:"watts"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for the EnergySample model.
func (EnergySample) TableName() string {
	return "energy_samples"
}

// DeviceState holds the live, device-type-specific state of a device.
// Fields that don't apply to a device's type are simply absent; a fan may
// carry a brightness value with no defined meaning and that is accepted.
type DeviceState struct {
	IsOn        bool     `json:"isOn"`
	Brightness  *float64 `json:"brightness,omitempty"`
	FanSpeed    *float64 `json:"fanSpeed,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Mode        string   `json:"mode,omitempty"`
}

// Device is a sub-document embedded in a Room. It has no table of its own
// and no lifecycle outside the room aggregate that owns it. RoomID is a
// denormalized copy of the owning room's external id.
type Device struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	RoomID      string         `json:"roomId"`
	IsOnline    bool           `json:"isOnline"`
	State       DeviceState    `json:"state"`
	CurrentLoad *float64       `json:"currentLoad,omitempty"`
	LastUpdate  *time.Time     `json:"lastUpdate,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// Room is the aggregate root for a room and its embedded device list.
// The device list is stored as a single JSON column and is always read and
// replaced as one unit; device order is insertion order.
type Room struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	RoomID      string    `gorm:"uniqueIndex;not null;column:room_id" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Type        string    `gorm:"not null" json:"type"`
	Devices     []Device  `gorm:"serializer:json;type:jsonb" json:"devices"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	IsFavorite  bool      `json:"isFavorite"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for the Room model.
func (Room) TableName() string {
	return "rooms"
}

// Home is a named location attached to a user profile.
type Home struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Settings is the per-user app settings sub-document.
type Settings struct {
	ThemeMode               int  `json:"themeMode"`
	Language                int  `json:"language"`
	NotificationsPower      bool `json:"notificationsPower"`
	NotificationsAutomation bool `json:"notificationsAutomation"`
	NotificationsUpdates    bool `json:"notificationsUpdates"`
	AccessibilityMode       bool `json:"accessibilityMode"`
}

// DefaultSettings returns the settings a profile starts with.
func DefaultSettings() Settings {
	return Settings{
		ThemeMode:               0,
		Language:                2,
		NotificationsPower:      true,
		NotificationsAutomation: true,
		NotificationsUpdates:    true,
		AccessibilityMode:       false,
	}
}

// UserProfile is the single profile record for a user identity. Homes and
// Settings are stored as JSON columns; UserID is the only external key.
type UserProfile struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	UserID        string    `gorm:"uniqueIndex;not null" json:"userId"`
	Name          string    `gorm:"not null" json:"name"`
	Address       string    `json:"address"`
	PreferredUnit string    `json:"preferredUnit"`
	Homes         []Home    `gorm:"serializer:json;type:jsonb" json:"homes"`
	Settings      Settings  `gorm:"serializer:json;type:jsonb" json:"settings"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name for the UserProfile model.
func (UserProfile) TableName() string {
	return "user_profiles"
}

// DefaultProfile returns the synthesized guest profile served when no
// record exists for a user. It is never persisted by reads.
func DefaultProfile(userID string) UserProfile {
	return UserProfile{
		UserID:        userID,
		Name:          "Guest User",
		Address:       defaultAddress,
		PreferredUnit: UnitKWh,
		Homes: []Home{
			{ID: "h1", Name: "My Home", Address: defaultAddress},
		},
		Settings: DefaultSettings(),
	}
}

// NewProfile returns the schema defaults a freshly created record starts
// from. Unlike DefaultProfile it carries no homes; the placeholder home is
// a display-only default and must never be persisted.
func NewProfile(userID string) UserProfile {
	return UserProfile{
		UserID:        userID,
		Name:          "Guest User",
		Address:       defaultAddress,
		PreferredUnit: UnitKWh,
		Homes:         make([]Home, 0),
		Settings:      DefaultSettings(),
	}
}
