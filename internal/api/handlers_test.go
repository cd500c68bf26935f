package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/smarthome/internal/api"
	"procodus.dev/smarthome/internal/store"
)

var _ = Describe("Handler", func() {
	var (
		logger   *slog.Logger
		energy   *fakeEnergyStore
		rooms    *fakeRoomStore
		profiles *fakeProfileStore
		handler  *api.Handler
		mux      http.Handler
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		energy = &fakeEnergyStore{}
		rooms = &fakeRoomStore{}
		profiles = &fakeProfileStore{}

		var err error
		handler, err = api.NewHandler(logger, energy, rooms, profiles)
		Expect(err).NotTo(HaveOccurred())
		mux = handler.Routes()
	})

	doJSON := func(method, target string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, target, &buf)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder) map[string]any {
		var out map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &out)).To(Succeed())
		return out
	}

	Describe("NewHandler", func() {
		It("should reject a nil logger", func() {
			_, err := api.NewHandler(nil, energy, rooms, profiles)
			Expect(err).To(HaveOccurred())
		})

		It("should reject nil stores", func() {
			_, err := api.NewHandler(logger, nil, rooms, profiles)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GET /health", func() {
		It("should report ok", func() {
			rec := doJSON(http.MethodGet, "/health", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(decode(rec)).To(HaveKeyWithValue("status", "ok"))
		})
	})

	Describe("POST /api/energy", func() {
		It("should create a sample from a native payload", func() {
			rec := doJSON(http.MethodPost, "/api/energy", map[string]any{
				"deviceId":  "d1",
				"watts":     42.5,
				"timestamp": "2024-06-01T10:30:00Z",
			})

			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(decode(rec)).To(HaveKeyWithValue("success", true))
			Expect(energy.lastDeviceID).To(Equal("d1"))
			Expect(energy.lastWatts).To(Equal(42.5))
			Expect(energy.lastTime).To(Equal(time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)))
		})

		It("should coerce watts sent as a string", func() {
			rec := doJSON(http.MethodPost, "/api/energy", map[string]any{
				"deviceId":  "d1",
				"watts":     "120",
				"timestamp": "2024-06-01T10:30:00Z",
			})

			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(energy.lastWatts).To(Equal(120.0))
		})

		It("should coerce an epoch-milliseconds timestamp", func() {
			rec := doJSON(http.MethodPost, "/api/energy", map[string]any{
				"deviceId":  "d1",
				"watts":     10,
				"timestamp": 1717237800000,
			})

			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(energy.lastTime).To(Equal(time.UnixMilli(1717237800000).UTC()))
		})

		It("should reject a payload with missing fields", func() {
			rec := doJSON(http.MethodPost, "/api/energy", map[string]any{
				"deviceId": "d1",
			})

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(decode(rec)["error"]).To(ContainSubstring("missing required fields"))
		})

		It("should reject a non-numeric watts value", func() {
			rec := doJSON(http.MethodPost, "/api/energy", map[string]any{
				"deviceId":  "d1",
				"watts":     "lots",
				"timestamp": "2024-06-01T10:30:00Z",
			})

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/energy", bytes.NewBufferString("{"))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should surface persistence failures as server errors", func() {
			energy.appendErr = errors.New("connection refused")

			rec := doJSON(http.MethodPost, "/api/energy", map[string]any{
				"deviceId":  "d1",
				"watts":     10,
				"timestamp": "2024-06-01T10:30:00Z",
			})

			Expect(rec.Code).To(Equal(http.StatusInternalServerError))
			Expect(decode(rec)).To(HaveKeyWithValue("error", "internal server error"))
		})
	})

	Describe("GET /api/energy", func() {
		It("should pass the filter through to the store", func() {
			rec := doJSON(http.MethodGet, "/api/energy?deviceId=d1&start=2024-06-01&end=2024-06-02", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(energy.lastFilter.DeviceID).To(Equal("d1"))
			Expect(energy.lastFilter.Start).NotTo(BeNil())
			Expect(*energy.lastFilter.Start).To(Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
			Expect(energy.lastFilter.End).NotTo(BeNil())
		})

		It("should serve an empty list as a valid response", func() {
			rec := doJSON(http.MethodGet, "/api/energy", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decode(rec)
			Expect(body["samples"]).To(BeEmpty())
			Expect(body["samples"]).NotTo(BeNil())
		})

		It("should reject an invalid start bound", func() {
			rec := doJSON(http.MethodGet, "/api/energy?start=garbage", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /api/rooms", func() {
		It("should serve all rooms", func() {
			rooms.rooms = store.DefaultRooms()

			rec := doJSON(http.MethodGet, "/api/rooms", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			list, ok := decode(rec)["rooms"].([]any)
			Expect(ok).To(BeTrue())
			Expect(list).To(HaveLen(2))
		})

		It("should serve an empty list when no rooms exist", func() {
			rec := doJSON(http.MethodGet, "/api/rooms", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			body := decode(rec)
			Expect(body["rooms"]).To(BeEmpty())
			Expect(body["rooms"]).NotTo(BeNil())
		})
	})

	Describe("GET /api/rooms/{roomId}", func() {
		It("should serve one room by its external id", func() {
			rooms.rooms = store.DefaultRooms()

			rec := doJSON(http.MethodGet, "/api/rooms/1", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			room, ok := decode(rec)["room"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(room).To(HaveKeyWithValue("id", "1"))
			Expect(room).To(HaveKeyWithValue("name", "Living Room"))
		})

		It("should report 404 for an unknown room", func() {
			rec := doJSON(http.MethodGet, "/api/rooms/nope", nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("PATCH /api/rooms/{roomId}/devices/{deviceId}/state", func() {
		It("should forward the partial update to the store", func() {
			rooms.rooms = store.DefaultRooms()

			rec := doJSON(http.MethodPatch, "/api/rooms/1/devices/d1/state", map[string]any{
				"isOn":       true,
				"brightness": 80,
			})

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rooms.lastRoomID).To(Equal("1"))
			Expect(rooms.lastDeviceID).To(Equal("d1"))
			Expect(rooms.lastUpdate.IsOn).NotTo(BeNil())
			Expect(*rooms.lastUpdate.IsOn).To(BeTrue())
			Expect(rooms.lastUpdate.Brightness).NotTo(BeNil())
			Expect(*rooms.lastUpdate.Brightness).To(Equal(80.0))
			Expect(rooms.lastUpdate.FanSpeed).To(BeNil())
		})

		It("should reject an update with no fields", func() {
			rec := doJSON(http.MethodPatch, "/api/rooms/1/devices/d1/state", map[string]any{})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("should report 404 for an unknown device", func() {
			rooms.updateErr = store.ErrNotFound

			rec := doJSON(http.MethodPatch, "/api/rooms/1/devices/nope/state", map[string]any{
				"isOn": true,
			})
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /api/users/profile", func() {
		It("should fall back to the fixed identity", func() {
			rec := doJSON(http.MethodGet, "/api/users/profile", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(profiles.lastUserID).To(Equal(store.SeedUserID))

			profile, ok := decode(rec)["profile"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(profile).To(HaveKeyWithValue("name", "Guest User"))
		})

		It("should honor an explicit userId parameter", func() {
			rec := doJSON(http.MethodGet, "/api/users/profile?userId=alice", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(profiles.lastUserID).To(Equal("alice"))
		})
	})

	Describe("PUT /api/users/profile", func() {
		It("should upsert under the fixed identity by default", func() {
			rec := doJSON(http.MethodPut, "/api/users/profile", map[string]any{
				"name": "Alice",
			})

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(profiles.lastUserID).To(Equal(store.SeedUserID))
			Expect(profiles.lastUpdate.Name).NotTo(BeNil())
			Expect(*profiles.lastUpdate.Name).To(Equal("Alice"))
			Expect(decode(rec)).To(HaveKeyWithValue("success", true))
		})

		It("should take the identity from the body when present", func() {
			rec := doJSON(http.MethodPut, "/api/users/profile", map[string]any{
				"userId": "alice",
				"name":   "Alice",
			})

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(profiles.lastUserID).To(Equal("alice"))
		})

		It("should surface validation failures from the store", func() {
			profiles.upsertErr = store.ErrValidation

			rec := doJSON(http.MethodPut, "/api/users/profile", map[string]any{
				"preferredUnit": "Joules",
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})
})
