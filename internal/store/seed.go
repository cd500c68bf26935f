package store

// Seed data loaded by the administrative seed commands. These run as
// one-shot procedures outside the request-serving path.

func floatPtr(v float64) *float64 { return &v }

// SeedUserID is the fixed identity the seed profile is written under, and
// the fallback identity used when no authentication layer is present.
const SeedUserID = "u1"

// SeedProfileUpdate returns the idempotent default-profile payload.
func SeedProfileUpdate() ProfileUpdate {
	name := "Guest User"
	address := defaultAddress
	unit := UnitKWh
	homes := []Home{{ID: "h1", Name: "My Home", Address: defaultAddress}}
	settings := DefaultSettings()

	return ProfileUpdate{
		UserID:        SeedUserID,
		Name:          &name,
		Address:       &address,
		PreferredUnit: &unit,
		Homes:         &homes,
		Settings:      &settings,
	}
}

// DefaultRooms returns the fixed room/device topology loaded by the
// destructive rooms seed.
func DefaultRooms() []Room {
	return []Room{
		{
			RoomID:      "1",
			Name:        "Living Room",
			Description: "Main living space",
			Type:        "livingRoom",
			IsFavorite:  false,
			Devices: []Device{
				{
					ID: "d1", Name: "Main Light", Type: "light", RoomID: "1", IsOnline: true,
					State:       DeviceState{IsOn: false, Brightness: floatPtr(100)},
					CurrentLoad: floatPtr(50.5),
				},
				{
					ID: "d2", Name: "Ceiling Fan", Type: "fan", RoomID: "1", IsOnline: true,
					State:       DeviceState{IsOn: false, FanSpeed: floatPtr(3)},
					CurrentLoad: floatPtr(60.0),
				},
				{
					ID: "d3", Name: "Smart TV", Type: "tv", RoomID: "1", IsOnline: true,
					State:       DeviceState{IsOn: false},
					CurrentLoad: floatPtr(120.0),
				},
				{
					ID: "d4", Name: "Air Conditioner", Type: "airConditioner", RoomID: "1", IsOnline: true,
					State:       DeviceState{IsOn: false, Temperature: floatPtr(26), Mode: "cool"},
					CurrentLoad: floatPtr(900.0),
				},
			},
		},
		{
			RoomID:      "2",
			Name:        "Bedroom 1",
			Description: "Master bedroom",
			Type:        "bedroom1",
			IsFavorite:  false,
			Devices: []Device{
				{
					ID: "d5", Name: "Bedside Lamp", Type: "light", RoomID: "2", IsOnline: true,
					State:       DeviceState{IsOn: false, Brightness: floatPtr(50)},
					CurrentLoad: floatPtr(25.0),
				},
				{
					ID: "d6", Name: "Ceiling Fan", Type: "fan", RoomID: "2", IsOnline: true,
					State:       DeviceState{IsOn: false, FanSpeed: floatPtr(2)},
					CurrentLoad: floatPtr(40.0),
				},
				{
					ID: "d7", Name: "TV", Type: "tv", RoomID: "2", IsOnline: true,
					State:       DeviceState{IsOn: false},
					CurrentLoad: floatPtr(120.0),
				},
				{
					ID: "d8", Name: "AC", Type: "airConditioner", RoomID: "2", IsOnline: true,
					State:       DeviceState{IsOn: true, Temperature: floatPtr(24), Mode: "cool"},
					CurrentLoad: floatPtr(900.0),
				},
			},
		},
	}
}
