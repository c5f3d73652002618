package adapters

import (
	"sync"
	"time"

	"heatzy-to-mqtt/application"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/mock"
)

type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) IsConnectionOpen() bool {
	return m.Called().Bool(0)
}

func (m *MockMQTTClient) Connect() mqtt.Token {
	return m.Called().Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	return m.Called(topic, qos, retained, payload).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	return m.Called(topic, qos, callback).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) SubscribeMultiple(filters map[string]byte, callback mqtt.MessageHandler) mqtt.Token {
	return m.Called(filters, callback).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Unsubscribe(topics ...string) mqtt.Token {
	return m.Called(topics).Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) AddRoute(topic string, callback mqtt.MessageHandler) {
	m.Called(topic, callback)
}

func (m *MockMQTTClient) OptionsReader() mqtt.ClientOptionsReader {
	return m.Called().Get(0).(mqtt.ClientOptionsReader)
}

var _ mqtt.Client = &MockMQTTClient{}

type MockToken struct {
	mock.Mock
}

func (m *MockToken) Wait() bool {
	return m.Called().Bool(0)
}

func (m *MockToken) WaitTimeout(d time.Duration) bool {
	return m.Called(d).Bool(0)
}

// Done returns a closed channel, the token is always complete.
func (m *MockToken) Done() <-chan struct{} {
	m.Called()
	ch := make(chan struct{})
	close(ch)
	return ch
}

func (m *MockToken) Error() error {
	return m.Called().Error(0)
}

var _ mqtt.Token = &MockToken{}

// fakeBroker is an in memory application.MQTTClient delivering published
// messages to matching subscriptions.
type fakeBroker struct {
	mu        sync.Mutex
	published []fakeMessage
	handlers  map[string]func(msg application.MQTTMessage)
	publishFn func(topic string) error
}

type fakeMessage struct {
	topic    string
	payload  []byte
	retained bool
}

func (f fakeMessage) Topic() string   { return f.topic }
func (f fakeMessage) Payload() []byte { return f.payload }

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]func(msg application.MQTTMessage))}
}

func (f *fakeBroker) Publish(topic string, qos byte, retained bool, msg any) error {
	if f.publishFn != nil {
		if err := f.publishFn(topic); err != nil {
			return err
		}
	}

	var payload []byte
	switch v := msg.(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, fakeMessage{topic: topic, payload: payload, retained: retained})
	return nil
}

func (f *fakeBroker) Subscribe(topic string, qos byte, handler func(msg application.MQTTMessage)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeBroker) Unsubscribe(topics ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, topic := range topics {
		delete(f.handlers, topic)
	}
	return nil
}

func (f *fakeBroker) Connect() error    { return nil }
func (f *fakeBroker) IsConnected() bool { return true }

func (f *fakeBroker) Status() application.MQTTStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return application.MQTTStatus{MessageCount: uint64(len(f.published)), Connected: true}
}

// deliver hands a message to the subscriber of topic.
func (f *fakeBroker) deliver(topic string, payload string) bool {
	f.mu.Lock()
	handler, ok := f.handlers[topic]
	f.mu.Unlock()

	if !ok {
		return false
	}
	handler(fakeMessage{topic: topic, payload: []byte(payload)})
	return true
}

func (f *fakeBroker) messages(topic string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var payloads []string
	for _, msg := range f.published {
		if msg.topic == topic {
			payloads = append(payloads, string(msg.payload))
		}
	}
	return payloads
}

func (f *fakeBroker) subscribed(topic string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.handlers[topic]
	return ok
}

var _ application.MQTTClient = &fakeBroker{}
