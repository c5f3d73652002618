package adapters

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"heatzy-to-mqtt/application"

	"github.com/rs/zerolog"
)

const (
	MQTTPayloadOn  = "ON"
	MQTTPayloadOff = "OFF"
)

// MQTTSwitch exposes one mode of one device as a switch on MQTT. The value is
// published retained on the state topic, commands arrive on the set topic and
// any message on the get topic republishes the current value.
type MQTTSwitch struct {
	client application.MQTTClient

	stateTopic   string
	commandTopic string
	getTopic     string

	mu  sync.RWMutex
	get func() bool
	set func(ctx context.Context, on bool) error

	log zerolog.Logger
}

func (s *MQTTSwitch) OnGet(handler func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get = handler
}

func (s *MQTTSwitch) OnSet(handler func(ctx context.Context, on bool) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = handler
}

func (s *MQTTSwitch) Update(on bool) error {
	return s.client.Publish(s.stateTopic, 1, true, payloadFromBool(on))
}

func (s *MQTTSwitch) subscribe() error {
	if err := s.client.Subscribe(s.commandTopic, 1, s.handleCommand); err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.commandTopic, err)
	}
	if err := s.client.Subscribe(s.getTopic, 0, s.handleGet); err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.getTopic, err)
	}
	return nil
}

func (s *MQTTSwitch) handleCommand(msg application.MQTTMessage) {
	on, err := boolFromPayload(msg.Payload())
	if err != nil {
		s.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("ignoring command")
		return
	}

	s.mu.RLock()
	set := s.set
	s.mu.RUnlock()

	if set == nil {
		s.log.Warn().Str("topic", msg.Topic()).Msg("no set handler, ignoring command")
		return
	}

	if err := set(context.Background(), on); err != nil {
		s.log.Error().Err(err).Bool("value", on).Msg("failed to set switch")
		// put the displayed value back
		s.handleGet(msg)
	}
}

func (s *MQTTSwitch) handleGet(msg application.MQTTMessage) {
	s.mu.RLock()
	get := s.get
	s.mu.RUnlock()

	if get == nil {
		return
	}

	if err := s.Update(get()); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish switch state")
	}
}

func payloadFromBool(on bool) string {
	if on {
		return MQTTPayloadOn
	}
	return MQTTPayloadOff
}

func boolFromPayload(payload []byte) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(string(payload))) {
	case MQTTPayloadOn, "TRUE", "1":
		return true, nil
	case MQTTPayloadOff, "FALSE", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid switch payload %q", string(payload))
	}
}

var _ application.Switch = &MQTTSwitch{}
