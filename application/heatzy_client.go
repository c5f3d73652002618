package application

import "context"

type DeviceBinding struct {
	DeviceID string
	Alias    string
}

type HeatzyClient interface {
	ListBindings(ctx context.Context) ([]DeviceBinding, error)
	ReadMode(ctx context.Context, deviceID string) (Mode, error)
	WriteMode(ctx context.Context, deviceID string, mode Mode) error
}
