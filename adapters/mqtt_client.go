package adapters

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"heatzy-to-mqtt/application"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const (
	MQTTDefaultConnectTimeout = 30 * time.Second
	MQTTDefaultPublishTimeout = 5 * time.Second

	MQTTPayloadOnline  = "online"
	MQTTPayloadOffline = "offline"
)

var (
	ErrMQTTNotConnected     = fmt.Errorf("not connected")
	ErrMQTTConnectTimeout   = fmt.Errorf("connect timeout")
	ErrMQTTPublishTimeout   = fmt.Errorf("publish timeout")
	ErrMQTTSubscribeTimeout = fmt.Errorf("subscribe timeout")
)

type MQTTClientParams struct {
	ClientID string
	Username string
	Password string
	MQTTUrl  string

	// AvailabilityTopic receives "online" once connected and "offline" as the
	// last will.
	AvailabilityTopic string

	ConnectTimeout time.Duration
	PublishTimeout time.Duration

	NewClientFunc func(options *mqtt.ClientOptions) mqtt.Client

	Log zerolog.Logger
}

func (m *MQTTClientParams) EnsureDefaults() {
	if m.ConnectTimeout == 0 {
		m.ConnectTimeout = MQTTDefaultConnectTimeout
	}

	if m.PublishTimeout == 0 {
		m.PublishTimeout = MQTTDefaultPublishTimeout
	}

	if m.NewClientFunc == nil {
		m.NewClientFunc = mqtt.NewClient
	}
}

type subscription struct {
	qos     byte
	handler mqtt.MessageHandler
}

type MQTTClient struct {
	params MQTTClientParams

	client mqtt.Client

	connected          uint64
	msgCount           uint64
	msgCountUpdateTime atomic.Pointer[time.Time]

	// subscriptions are replayed after a reconnect
	mu            sync.RWMutex
	subscriptions map[string]subscription

	log zerolog.Logger
}

func NewMQTTClient(params MQTTClientParams) *MQTTClient {
	params.EnsureDefaults()

	m := &MQTTClient{
		params:        params,
		subscriptions: make(map[string]subscription),
		log:           params.Log,
	}
	m.client = m.newMqttClient()

	t := time.Unix(0, 0)
	m.msgCountUpdateTime.Store(&t)

	return m
}

func (m *MQTTClient) Connect() error {
	if atomic.LoadUint64(&m.connected) == 1 {
		return nil
	}

	if err := m.wait(m.client.Connect(), m.params.ConnectTimeout, ErrMQTTConnectTimeout); err != nil {
		return err
	}

	atomic.StoreUint64(&m.connected, 1)
	return nil
}

// Disconnect announces the bridge offline and closes the connection.
func (m *MQTTClient) Disconnect() {
	if !m.IsConnected() {
		return
	}

	if m.params.AvailabilityTopic != "" {
		if err := m.Publish(m.params.AvailabilityTopic, 1, true, MQTTPayloadOffline); err != nil {
			m.log.Warn().Err(err).Msg("failed to publish availability")
		}
	}

	m.client.Disconnect(250)
	atomic.StoreUint64(&m.connected, 0)
}

func (m *MQTTClient) IsConnected() bool {
	return atomic.LoadUint64(&m.connected) == 1
}

func (m *MQTTClient) Status() application.MQTTStatus {
	return application.MQTTStatus{
		MessageCount:      atomic.LoadUint64(&m.msgCount),
		LastTimePublished: *m.msgCountUpdateTime.Load(),
		Connected:         m.IsConnected(),
	}
}

func (m *MQTTClient) Publish(topic string, qos byte, retained bool, msg any) error {
	if !m.IsConnected() {
		return ErrMQTTNotConnected
	}

	if err := m.wait(m.client.Publish(topic, qos, retained, msg), m.params.PublishTimeout, ErrMQTTPublishTimeout); err != nil {
		return err
	}

	t := time.Now()
	m.msgCountUpdateTime.Store(&t)
	atomic.AddUint64(&m.msgCount, 1)
	return nil
}

func (m *MQTTClient) Subscribe(topic string, qos byte, handler func(msg application.MQTTMessage)) error {
	callback := func(client mqtt.Client, msg mqtt.Message) {
		handler(msg)
	}

	m.mu.Lock()
	m.subscriptions[topic] = subscription{qos: qos, handler: callback}
	m.mu.Unlock()

	if !m.IsConnected() {
		// subscribed on connect
		return nil
	}

	return m.wait(m.client.Subscribe(topic, qos, callback), m.params.PublishTimeout, ErrMQTTSubscribeTimeout)
}

func (m *MQTTClient) Unsubscribe(topics ...string) error {
	m.mu.Lock()
	for _, topic := range topics {
		delete(m.subscriptions, topic)
	}
	m.mu.Unlock()

	if !m.IsConnected() {
		return nil
	}

	return m.wait(m.client.Unsubscribe(topics...), m.params.PublishTimeout, ErrMQTTSubscribeTimeout)
}

func (m *MQTTClient) PublishHandler(client mqtt.Client, msg mqtt.Message) {
	m.log.Debug().Str("topic", msg.Topic()).Msg("unrouted message")
}

func (m *MQTTClient) OnConnect(client mqtt.Client) {
	m.log.Info().Msgf("connected")
	atomic.StoreUint64(&m.connected, 1)

	if m.params.AvailabilityTopic != "" {
		client.Publish(m.params.AvailabilityTopic, 1, true, MQTTPayloadOnline)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for topic, sub := range m.subscriptions {
		m.log.Debug().Str("topic", topic).Msg("subscribing")
		client.Subscribe(topic, sub.qos, sub.handler)
	}
}

func (m *MQTTClient) OnConnectionLost(client mqtt.Client, err error) {
	m.log.Info().Msgf("connect lost: %v", err)
	atomic.StoreUint64(&m.connected, 0)
}

func (m *MQTTClient) wait(token mqtt.Token, timeout time.Duration, errTimeout error) error {
	tc := time.NewTimer(timeout)
	defer tc.Stop()

	select {
	case <-tc.C:
		return errTimeout
	case <-token.Done():
		return token.Error()
	}
}

func (m *MQTTClient) newMqttClient() mqtt.Client {
	opts := mqtt.NewClientOptions()

	opts.AddBroker(m.params.MQTTUrl)
	opts.SetClientID(m.params.ClientID)
	opts.SetUsername(m.params.Username)
	opts.SetPassword(m.params.Password)
	opts.SetAutoReconnect(true)
	// set handlers call the heatzy api, they must not hold up the router
	opts.SetOrderMatters(false)

	if m.params.AvailabilityTopic != "" {
		opts.SetWill(m.params.AvailabilityTopic, MQTTPayloadOffline, 1, true)
	}

	opts.SetDefaultPublishHandler(m.PublishHandler)
	opts.OnConnect = m.OnConnect
	opts.OnConnectionLost = m.OnConnectionLost

	return m.params.NewClientFunc(opts)
}

var _ application.MQTTClient = &MQTTClient{}
