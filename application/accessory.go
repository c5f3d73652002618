package application

import (
	"context"

	"github.com/google/uuid"
)

// accessoryNamespace seeds the name based accessory UUIDs so a device keeps the
// same identity across restarts.
var accessoryNamespace = uuid.MustParse("6b0f3f4e-6a43-4c3b-9d0e-8c1e0b7a5d21")

// Accessory is a device as exposed on the home automation side.
type Accessory struct {
	UUID     string `yaml:"uuid"`
	DeviceID string `yaml:"device_id"`
	Alias    string `yaml:"alias"`
	Modes    []Mode `yaml:"modes"`
}

func AccessoryUUID(deviceID string) string {
	return uuid.NewSHA1(accessoryNamespace, []byte(deviceID)).String()
}

func NewAccessory(binding DeviceBinding, modes []Mode) Accessory {
	return Accessory{
		UUID:     AccessoryUUID(binding.DeviceID),
		DeviceID: binding.DeviceID,
		Alias:    binding.Alias,
		Modes:    append([]Mode(nil), modes...),
	}
}

// Switch is the host side representation of one mode of one device.
type Switch interface {
	// OnGet registers the handler answering value reads.
	OnGet(handler func() bool)
	// OnSet registers the handler invoked when the user flips the switch.
	OnSet(handler func(ctx context.Context, on bool) error)
	// Update pushes a value to the host without going through the set handler.
	Update(on bool) error
}

type AccessoryRegistry interface {
	Register(ctx context.Context, accessory Accessory) error
	Unregister(ctx context.Context, accessory Accessory, modes []Mode) error
	Switch(accessory Accessory, mode Mode) (Switch, error)
}

type AccessoryCache interface {
	Load() ([]Accessory, error)
	Save(accessories []Accessory) error
}
