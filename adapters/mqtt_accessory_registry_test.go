package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"heatzy-to-mqtt/application"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAccessory = application.NewAccessory(
	application.DeviceBinding{DeviceID: "did-1", Alias: "Salon"},
	[]application.Mode{application.ModeComfort, application.ModeEco},
)

func newTestRegistry(t *testing.T, broker *fakeBroker, includeAliases bool) *MQTTAccessoryRegistry {
	t.Helper()

	registry, err := NewMQTTAccessoryRegistry(MQTTAccessoryRegistryParams{
		Client:            broker,
		AvailabilityTopic: "heatzy/bridge/availability",
		IncludeAliases:    includeAliases,
	})
	require.NoError(t, err)
	return registry
}

func TestNewMQTTAccessoryRegistry_NoClient(t *testing.T) {
	registry, err := NewMQTTAccessoryRegistry(MQTTAccessoryRegistryParams{})
	require.Error(t, err)
	require.Nil(t, registry)
}

func TestMQTTAccessoryRegistry_Register(t *testing.T) {
	broker := newFakeBroker()
	registry := newTestRegistry(t, broker, false)

	err := registry.Register(context.Background(), testAccessory)
	require.NoError(t, err)

	topic := fmt.Sprintf("homeassistant/switch/%s_eco/config", testAccessory.UUID)
	messages := broker.messages(topic)
	require.Len(t, messages, 1)

	var msg DiscoveryMessage
	require.NoError(t, json.Unmarshal([]byte(messages[0]), &msg))
	assert.Equal(t, "Eco", msg.Name)
	assert.Equal(t, testAccessory.UUID+"_eco", msg.ID)
	assert.Equal(t, "heatzy/did-1/eco/state", msg.StateTopic)
	assert.Equal(t, "heatzy/did-1/eco/set", msg.CommandTopic)
	assert.Equal(t, "heatzy/bridge/availability", msg.AvailabilityTopic)
	assert.Equal(t, []string{"did-1"}, msg.Device.Identifiers)
	assert.Equal(t, "Heatzy", msg.Device.Manufacturer)
	assert.Equal(t, "Heatzy Pilote Salon", msg.Device.Name)

	assert.Len(t, broker.messages(fmt.Sprintf("homeassistant/switch/%s_comfort/config", testAccessory.UUID)), 1)
	assert.Empty(t, broker.messages(fmt.Sprintf("homeassistant/switch/%s_off/config", testAccessory.UUID)))
}

func TestMQTTAccessoryRegistry_RegisterPublishError(t *testing.T) {
	broker := newFakeBroker()
	broker.publishFn = func(topic string) error {
		return ErrMQTTNotConnected
	}
	registry := newTestRegistry(t, broker, false)

	err := registry.Register(context.Background(), testAccessory)
	require.ErrorIs(t, err, ErrMQTTNotConnected)
}

func TestMQTTAccessoryRegistry_SwitchName(t *testing.T) {
	broker := newFakeBroker()

	assert.Equal(t, "Hors-gel", newTestRegistry(t, broker, false).SwitchName(testAccessory, application.ModeAntiFrost))
	assert.Equal(t, "Salon Confort", newTestRegistry(t, broker, true).SwitchName(testAccessory, application.ModeComfort))
}

func TestMQTTAccessoryRegistry_Unregister(t *testing.T) {
	broker := newFakeBroker()
	registry := newTestRegistry(t, broker, false)

	_, err := registry.Switch(testAccessory, application.ModeEco)
	require.NoError(t, err)
	require.True(t, broker.subscribed("heatzy/did-1/eco/set"))

	err = registry.Unregister(context.Background(), testAccessory, []application.Mode{application.ModeEco})
	require.NoError(t, err)

	assert.Equal(t, []string{""}, broker.messages(fmt.Sprintf("homeassistant/switch/%s_eco/config", testAccessory.UUID)))
	assert.Equal(t, []string{""}, broker.messages("heatzy/did-1/eco/state"))
	assert.False(t, broker.subscribed("heatzy/did-1/eco/set"))
	assert.False(t, broker.subscribed("heatzy/did-1/eco/get"))
	assert.Empty(t, broker.messages(fmt.Sprintf("homeassistant/switch/%s_comfort/config", testAccessory.UUID)))
}

func TestMQTTAccessoryRegistry_CustomTopics(t *testing.T) {
	broker := newFakeBroker()
	registry, err := NewMQTTAccessoryRegistry(MQTTAccessoryRegistryParams{
		Client:          broker,
		Topic:           "home/heaters/",
		DiscoveryPrefix: "ha/",
	})
	require.NoError(t, err)

	msg := registry.DiscoveryMessage(testAccessory, application.ModeOff)
	assert.Equal(t, "home/heaters/did-1/off/state", msg.StateTopic)
	assert.Empty(t, msg.AvailabilityTopic)

	require.NoError(t, registry.Register(context.Background(), testAccessory))
	assert.Len(t, broker.messages(fmt.Sprintf("ha/switch/%s_comfort/config", testAccessory.UUID)), 1)
}
