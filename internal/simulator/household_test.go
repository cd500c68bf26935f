package simulator_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/smarthome/internal/simulator"
)

var _ = Describe("HouseholdDevice", func() {
	Describe("NewHouseholdDevice", func() {
		It("should fabricate identity fields", func() {
			device := simulator.NewHouseholdDevice()

			Expect(device.DeviceID).NotTo(BeEmpty())
			Expect(device.Name).NotTo(BeEmpty())
			Expect(device.Type).To(BeElementOf(
				simulator.TypeLight,
				simulator.TypeFan,
				simulator.TypeTV,
				simulator.TypeAirConditioner,
			))
		})

		It("should give every device a unique id", func() {
			seen := map[string]bool{}
			for i := 0; i < 50; i++ {
				device := simulator.NewHouseholdDevice()
				Expect(seen).NotTo(HaveKey(device.DeviceID))
				seen[device.DeviceID] = true
			}
		})
	})

	Describe("GenerateLoad", func() {
		It("should never produce a negative load", func() {
			device := simulator.NewHouseholdDevice()

			t := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
			for i := 0; i < 24*12; i++ {
				load := device.GenerateLoad(t)
				Expect(load).To(BeNumerically(">=", 0))
				t = t.Add(5 * time.Minute)
			}
		})

		It("should stay within a plausible range for the device type", func() {
			// An AC tops out around its baseline; a light never draws kilowatts.
			for i := 0; i < 20; i++ {
				device := simulator.NewHouseholdDevice()
				t := time.Date(2024, 6, 1, 14, 0, 0, 0, time.UTC)
				for j := 0; j < 48; j++ {
					load := device.GenerateLoad(t)
					Expect(load).To(BeNumerically("<", 3000))
					t = t.Add(15 * time.Minute)
				}
			}
		})
	})
})
