// Package simulator generates synthetic household power telemetry and
// publishes it to RabbitMQ, feeding the ingest path with realistic load
// curves for development and demos.
package simulator

import (
	"math"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// Device type names match the values the mobile app renders.
const (
	TypeLight          = "light"
	TypeFan            = "fan"
	TypeTV             = "tv"
	TypeAirConditioner = "airConditioner"
)

var deviceTypes = []string{TypeLight, TypeFan, TypeTV, TypeAirConditioner}

// baseLoads holds the nominal draw in watts per device type.
var baseLoads = map[string]float64{
	TypeLight:          12,
	TypeFan:            60,
	TypeTV:             120,
	TypeAirConditioner: 1400,
}

// HouseholdDevice is one simulated appliance producing power readings.
type HouseholdDevice struct {
	DeviceID string
	Name     string
	Type     string

	baseLoad float64
	noise    float64
	lastLoad float64
}

// NewHouseholdDevice creates a simulated device of a random type with a
// fabricated name.
func NewHouseholdDevice() *HouseholdDevice {
	deviceType := deviceTypes[rand.Intn(len(deviceTypes))]
	return newDeviceOfType(deviceType)
}

func newDeviceOfType(deviceType string) *HouseholdDevice {
	base := baseLoads[deviceType]

	d := &HouseholdDevice{
		DeviceID: uuid.NewString(),
		Name:     gofakeit.ProductName(),
		Type:     deviceType,
		// Spread baselines so a fleet of devices doesn't draw identical curves.
		baseLoad: base * (0.8 + rand.Float64()*0.4),
		noise:    base * 0.05,
	}
	d.lastLoad = d.baseLoad
	return d
}

// GenerateLoad produces the device's power draw at time t, in watts.
// The curve follows a daily usage cycle per device type with random noise
// and occasional off periods.
func (d *HouseholdDevice) GenerateLoad(t time.Time) float64 {
	hour := float64(t.Hour()) + float64(t.Minute())/60

	var dailyCycle float64
	switch d.Type {
	case TypeLight:
		// Lights are on in the evening and early morning.
		dailyCycle = 0.5 - 0.5*math.Sin((hour-6)*math.Pi/12)
	case TypeAirConditioner:
		// Cooling peaks in the afternoon heat.
		dailyCycle = 0.3 + 0.7*math.Max(0, math.Sin((hour-8)*math.Pi/12))
	case TypeTV:
		// Viewing peaks in the evening.
		dailyCycle = 0.2 + 0.8*math.Max(0, math.Sin((hour-12)*math.Pi/12))
	default:
		// Fans run fairly flat with a mild daytime bump.
		dailyCycle = 0.6 + 0.4*math.Max(0, math.Sin((hour-6)*math.Pi/12))
	}

	// Random noise
	noise := (rand.Float64() - 0.5) * d.noise

	// Devices switch off sometimes (8% chance per reading)
	if rand.Float64() < 0.08 {
		d.lastLoad = 0
		return 0
	}

	// Smooth toward the cycle target so consecutive readings don't jump
	target := d.baseLoad*dailyCycle + noise
	load := d.lastLoad + (target-d.lastLoad)*0.5
	load = math.Max(0, load)

	d.lastLoad = load
	return math.Round(load*100) / 100
}
