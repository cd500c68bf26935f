// Package api provides the HTTP boundary of the smart-home backend. It maps
// the fixed JSON contract consumed by the mobile app onto the stores,
// coercing and validating external input on the way in.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"procodus.dev/smarthome/internal/gateway"
	"procodus.dev/smarthome/internal/store"
	"procodus.dev/smarthome/pkg/metrics"
)

// EnergyStore is the sample persistence the handlers delegate to.
type EnergyStore interface {
	Append(ctx context.Context, deviceID string, watts float64, timestamp time.Time) (store.EnergySample, error)
	Query(ctx context.Context, filter store.EnergyFilter) ([]store.EnergySample, error)
}

// RoomStore is the room persistence the handlers delegate to.
type RoomStore interface {
	ListAll(ctx context.Context) ([]store.Room, error)
	GetByID(ctx context.Context, roomID string) (store.Room, error)
	UpdateDeviceState(ctx context.Context, roomID, deviceID string, update store.DeviceStateUpdate) (store.Room, error)
}

// ProfileStore is the profile persistence the handlers delegate to.
type ProfileStore interface {
	GetByUserID(ctx context.Context, userID string) (store.UserProfile, error)
	Upsert(ctx context.Context, userID string, update store.ProfileUpdate) (store.UserProfile, error)
}

// Handler holds the HTTP handlers for the JSON API.
type Handler struct {
	logger   *slog.Logger
	energy   EnergyStore
	rooms    RoomStore
	profiles ProfileStore
	metrics  *metrics.APIMetrics // Optional metrics
}

// NewHandler creates a new Handler instance.
func NewHandler(logger *slog.Logger, energy EnergyStore, rooms RoomStore, profiles ProfileStore) (*Handler, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if energy == nil || rooms == nil || profiles == nil {
		return nil, errors.New("stores cannot be nil")
	}

	return &Handler{
		logger:   logger,
		energy:   energy,
		rooms:    rooms,
		profiles: profiles,
	}, nil
}

// SetMetrics sets the metrics collector for the HTTP handlers.
func (h *Handler) SetMetrics(m *metrics.APIMetrics) {
	h.metrics = m
}

// Routes returns the configured HTTP routes.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", h.handleHealth)

	// Energy samples
	mux.HandleFunc("POST /api/energy", h.handleCreateSample)
	mux.HandleFunc("GET /api/energy", h.handleListSamples)

	// Rooms
	mux.HandleFunc("GET /api/rooms", h.handleListRooms)
	mux.HandleFunc("GET /api/rooms/{roomId}", h.handleGetRoom)
	mux.HandleFunc("PATCH /api/rooms/{roomId}/devices/{deviceId}/state", h.handleUpdateDeviceState)

	// User profile
	mux.HandleFunc("GET /api/users/profile", h.handleGetProfile)
	mux.HandleFunc("PUT /api/users/profile", h.handleUpsertProfile)

	// Prometheus exposition
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}

// handleHealth serves the health check endpoint.
func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createSampleRequest accepts watts and timestamp in any externally-supplied
// representation; coercion happens in the gateway helpers.
type createSampleRequest struct {
	DeviceID  string `json:"deviceId"`
	Watts     any    `json:"watts"`
	Timestamp any    `json:"timestamp"`
}

// handleCreateSample appends one energy sample.
func (h *Handler) handleCreateSample(w http.ResponseWriter, r *http.Request) {
	var req createSampleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errInvalidBody(err))
		return
	}

	if req.DeviceID == "" || req.Watts == nil || req.Timestamp == nil {
		h.writeError(w, errMissingFields("deviceId, watts, timestamp"))
		return
	}

	watts, err := gateway.Number(req.Watts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	timestamp, err := gateway.Instant(req.Timestamp)
	if err != nil {
		h.writeError(w, err)
		return
	}

	sample, err := h.energy.Append(r.Context(), req.DeviceID, watts, timestamp)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"sample":  sample,
	})
}

// handleListSamples serves filtered energy samples, newest first.
func (h *Handler) handleListSamples(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	start, err := gateway.InstantBound(query.Get("start"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	end, err := gateway.InstantBound(query.Get("end"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	samples, err := h.energy.Query(r.Context(), store.EnergyFilter{
		DeviceID: query.Get("deviceId"),
		Start:    start,
		End:      end,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"samples": samples})
}

// handleListRooms serves all rooms. An empty list is a valid response.
func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.ListAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// handleGetRoom serves one room aggregate by its external id.
func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.rooms.GetByID(r.Context(), r.PathValue("roomId"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"room": room})
}

// handleUpdateDeviceState merges a partial state change into one device.
func (h *Handler) handleUpdateDeviceState(w http.ResponseWriter, r *http.Request) {
	var update store.DeviceStateUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, errInvalidBody(err))
		return
	}

	if update.Empty() {
		h.writeError(w, errMissingFields("at least one state field"))
		return
	}

	room, err := h.rooms.UpdateDeviceState(r.Context(), r.PathValue("roomId"), r.PathValue("deviceId"), update)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"room": room})
}

// handleGetProfile serves the acting user's profile, synthesized when no
// record exists.
func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := gateway.UserID(r.Context(), r.URL.Query().Get("userId"))

	profile, err := h.profiles.GetByUserID(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

// handleUpsertProfile creates or merge-updates the acting user's profile.
func (h *Handler) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var update store.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, errInvalidBody(err))
		return
	}

	explicit := r.URL.Query().Get("userId")
	if explicit == "" {
		explicit = update.UserID
	}
	userID := gateway.UserID(r.Context(), explicit)

	profile, err := h.profiles.Upsert(r.Context(), userID, update)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"profile": profile,
	})
}
