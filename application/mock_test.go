package application

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

type MockHeatzyClient struct {
	mock.Mock
}

func (m *MockHeatzyClient) ListBindings(ctx context.Context) ([]DeviceBinding, error) {
	args := m.Called(ctx)

	var bindings []DeviceBinding
	if b := args.Get(0); b != nil {
		bindings = b.([]DeviceBinding)
	}
	return bindings, args.Error(1)
}

func (m *MockHeatzyClient) ReadMode(ctx context.Context, deviceID string) (Mode, error) {
	args := m.Called(ctx, deviceID)
	return args.Get(0).(Mode), args.Error(1)
}

func (m *MockHeatzyClient) WriteMode(ctx context.Context, deviceID string, mode Mode) error {
	args := m.Called(ctx, deviceID, mode)
	return args.Error(0)
}

var _ HeatzyClient = &MockHeatzyClient{}

type MockAccessoryRegistry struct {
	mock.Mock
}

func (m *MockAccessoryRegistry) Register(ctx context.Context, accessory Accessory) error {
	return m.Called(ctx, accessory).Error(0)
}

func (m *MockAccessoryRegistry) Unregister(ctx context.Context, accessory Accessory, modes []Mode) error {
	return m.Called(ctx, accessory, modes).Error(0)
}

func (m *MockAccessoryRegistry) Switch(accessory Accessory, mode Mode) (Switch, error) {
	args := m.Called(accessory, mode)

	var sw Switch
	if s := args.Get(0); s != nil {
		sw = s.(Switch)
	}
	return sw, args.Error(1)
}

var _ AccessoryRegistry = &MockAccessoryRegistry{}

type MockAccessoryCache struct {
	mock.Mock
}

func (m *MockAccessoryCache) Load() ([]Accessory, error) {
	args := m.Called()

	var accessories []Accessory
	if a := args.Get(0); a != nil {
		accessories = a.([]Accessory)
	}
	return accessories, args.Error(1)
}

func (m *MockAccessoryCache) Save(accessories []Accessory) error {
	return m.Called(accessories).Error(0)
}

var _ AccessoryCache = &MockAccessoryCache{}

type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	return m.Called(topic, qos, retained, msg).Error(0)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, handler func(msg MQTTMessage)) error {
	return m.Called(topic, qos, handler).Error(0)
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) error {
	return m.Called(topics).Error(0)
}

func (m *MockMQTTClient) Connect() error {
	return m.Called().Error(0)
}

func (m *MockMQTTClient) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) Status() MQTTStatus {
	return m.Called().Get(0).(MQTTStatus)
}

var _ MQTTClient = &MockMQTTClient{}

// recordingSwitch keeps every value pushed through Update.
type recordingSwitch struct {
	mu      sync.Mutex
	updates []bool

	get func() bool
	set func(ctx context.Context, on bool) error
}

func (r *recordingSwitch) OnGet(handler func() bool) {
	r.get = handler
}

func (r *recordingSwitch) OnSet(handler func(ctx context.Context, on bool) error) {
	r.set = handler
}

func (r *recordingSwitch) Update(on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, on)
	return nil
}

func (r *recordingSwitch) Updates() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.updates...)
}

func (r *recordingSwitch) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = nil
}

var _ Switch = &recordingSwitch{}

func newRecordingSwitches(modes ...Mode) (map[Mode]Switch, map[Mode]*recordingSwitch) {
	switches := make(map[Mode]Switch, len(modes))
	recorders := make(map[Mode]*recordingSwitch, len(modes))
	for _, mode := range modes {
		r := &recordingSwitch{}
		switches[mode] = r
		recorders[mode] = r
	}
	return switches, recorders
}
