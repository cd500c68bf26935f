package store_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/smarthome/internal/store"
)

var _ = Describe("Models", func() {
	Describe("EnergySample", func() {
		Context("table name", func() {
			It("should return energy_samples", func() {
				sample := store.EnergySample{}
				Expect(sample.TableName()).To(Equal("energy_samples"))
			})
		})

		Context("JSON shape", func() {
			It("should expose deviceId, watts, and timestamp", func() {
				sample := store.EnergySample{
					DeviceID: "d1",
					Watts:    42.5,
				}

				data, err := json.Marshal(sample)
				Expect(err).NotTo(HaveOccurred())

				var decoded map[string]any
				Expect(json.Unmarshal(data, &decoded)).To(Succeed())
				Expect(decoded).To(HaveKeyWithValue("deviceId", "d1"))
				Expect(decoded).To(HaveKeyWithValue("watts", 42.5))
				Expect(decoded).To(HaveKey("timestamp"))
			})

			It("should not expose the database primary key", func() {
				sample := store.EnergySample{ID: 7, DeviceID: "d1"}

				data, err := json.Marshal(sample)
				Expect(err).NotTo(HaveOccurred())

				var decoded map[string]any
				Expect(json.Unmarshal(data, &decoded)).To(Succeed())
				Expect(decoded).NotTo(HaveKey("id"))
			})
		})
	})

	Describe("Room", func() {
		Context("table name", func() {
			It("should return rooms", func() {
				room := store.Room{}
				Expect(room.TableName()).To(Equal("rooms"))
			})
		})

		Context("JSON shape", func() {
			It("should expose the external room id as id", func() {
				room := store.Room{ID: 3, RoomID: "1", Name: "Living Room"}

				data, err := json.Marshal(room)
				Expect(err).NotTo(HaveOccurred())

				var decoded map[string]any
				Expect(json.Unmarshal(data, &decoded)).To(Succeed())
				Expect(decoded).To(HaveKeyWithValue("id", "1"))
				Expect(decoded).To(HaveKeyWithValue("name", "Living Room"))
			})
		})
	})

	Describe("UserProfile", func() {
		Context("table name", func() {
			It("should return user_profiles", func() {
				profile := store.UserProfile{}
				Expect(profile.TableName()).To(Equal("user_profiles"))
			})
		})
	})

	Describe("DefaultSettings", func() {
		It("should enable notifications and disable accessibility", func() {
			settings := store.DefaultSettings()

			Expect(settings.ThemeMode).To(Equal(0))
			Expect(settings.Language).To(Equal(2))
			Expect(settings.NotificationsPower).To(BeTrue())
			Expect(settings.NotificationsAutomation).To(BeTrue())
			Expect(settings.NotificationsUpdates).To(BeTrue())
			Expect(settings.AccessibilityMode).To(BeFalse())
		})
	})

	Describe("DefaultProfile", func() {
		It("should synthesize a guest profile for the given user", func() {
			profile := store.DefaultProfile("someone")

			Expect(profile.UserID).To(Equal("someone"))
			Expect(profile.Name).To(Equal("Guest User"))
			Expect(profile.Address).To(Equal("—"))
			Expect(profile.PreferredUnit).To(Equal(store.UnitKWh))
			Expect(profile.Homes).To(HaveLen(1))
			Expect(profile.Homes[0].ID).To(Equal("h1"))
			Expect(profile.Homes[0].Name).To(Equal("My Home"))
			Expect(profile.Settings).To(Equal(store.DefaultSettings()))
		})
	})

	Describe("NewProfile", func() {
		It("should start with no homes", func() {
			profile := store.NewProfile("someone")

			Expect(profile.UserID).To(Equal("someone"))
			Expect(profile.Name).To(Equal("Guest User"))
			Expect(profile.Address).To(Equal("—"))
			Expect(profile.PreferredUnit).To(Equal(store.UnitKWh))
			Expect(profile.Homes).To(BeEmpty())
			Expect(profile.Settings).To(Equal(store.DefaultSettings()))
		})
	})

	Describe("DeviceStateUpdate", func() {
		Context("Empty", func() {
			It("should report true when no field is set", func() {
				update := store.DeviceStateUpdate{}
				Expect(update.Empty()).To(BeTrue())
			})

			It("should report false when any field is set", func() {
				on := true
				Expect(store.DeviceStateUpdate{IsOn: &on}.Empty()).To(BeFalse())

				brightness := 80.0
				Expect(store.DeviceStateUpdate{Brightness: &brightness}.Empty()).To(BeFalse())

				mode := "cool"
				Expect(store.DeviceStateUpdate{Mode: &mode}.Empty()).To(BeFalse())
			})
		})
	})
})
