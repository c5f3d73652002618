package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"heatzy-to-mqtt/application"

	"github.com/rs/zerolog"
)

const (
	MQTTDefaultTopic           = "heatzy"
	MQTTDefaultDiscoveryPrefix = "homeassistant"

	heatzyManufacturer = "Heatzy"
	heatzyModel        = "Heatzy Pilote V1"
)

type DiscoveryDevice struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Model        string   `json:"model"`
	Manufacturer string   `json:"manufacturer"`
}

// DiscoveryMessage is the home assistant mqtt discovery payload of a switch.
type DiscoveryMessage struct {
	Name              string          `json:"name"`
	ID                string          `json:"unique_id"`
	StateTopic        string          `json:"state_topic"`
	CommandTopic      string          `json:"command_topic"`
	AvailabilityTopic string          `json:"availability_topic,omitempty"`
	PayloadOn         string          `json:"payload_on"`
	PayloadOff        string          `json:"payload_off"`
	Optimistic        bool            `json:"optimistic"`
	Icon              string          `json:"icon,omitempty"`
	Device            DiscoveryDevice `json:"device"`
}

type MQTTAccessoryRegistryParams struct {
	Client application.MQTTClient

	Topic             string
	DiscoveryPrefix   string
	AvailabilityTopic string

	// IncludeAliases prefixes switch names with the device alias.
	IncludeAliases bool

	Log zerolog.Logger
}

func (p *MQTTAccessoryRegistryParams) EnsureDefaults() {
	if p.Topic == "" {
		p.Topic = MQTTDefaultTopic
	}

	if p.DiscoveryPrefix == "" {
		p.DiscoveryPrefix = MQTTDefaultDiscoveryPrefix
	}

	p.Topic = strings.TrimSuffix(p.Topic, "/")
	p.DiscoveryPrefix = strings.TrimSuffix(p.DiscoveryPrefix, "/")
}

// MQTTAccessoryRegistry announces accessories through home assistant discovery
// and hands out one MQTTSwitch per mode.
type MQTTAccessoryRegistry struct {
	params MQTTAccessoryRegistryParams

	log zerolog.Logger
}

func NewMQTTAccessoryRegistry(params MQTTAccessoryRegistryParams) (*MQTTAccessoryRegistry, error) {
	params.EnsureDefaults()

	if params.Client == nil {
		return nil, fmt.Errorf("mqtt client is required")
	}

	return &MQTTAccessoryRegistry{params: params, log: params.Log}, nil
}

func (r *MQTTAccessoryRegistry) Register(ctx context.Context, accessory application.Accessory) error {
	for _, mode := range accessory.Modes {
		msg, err := json.Marshal(r.DiscoveryMessage(accessory, mode))
		if err != nil {
			return err
		}

		if err := r.params.Client.Publish(r.discoveryTopic(accessory, mode), 1, true, msg); err != nil {
			return fmt.Errorf("publishing discovery for %s: %w", mode, err)
		}
	}

	r.log.Debug().Str("accessory", accessory.Alias).Msg("registered accessory")
	return nil
}

// Unregister clears the retained discovery and state messages of the given
// modes so the host forgets those switches.
func (r *MQTTAccessoryRegistry) Unregister(ctx context.Context, accessory application.Accessory, modes []application.Mode) error {
	for _, mode := range modes {
		if err := r.params.Client.Publish(r.discoveryTopic(accessory, mode), 1, true, ""); err != nil {
			return fmt.Errorf("clearing discovery for %s: %w", mode, err)
		}

		if err := r.params.Client.Publish(r.switchTopic(accessory, mode, "state"), 1, true, ""); err != nil {
			return fmt.Errorf("clearing state for %s: %w", mode, err)
		}

		if err := r.params.Client.Unsubscribe(
			r.switchTopic(accessory, mode, "set"),
			r.switchTopic(accessory, mode, "get"),
		); err != nil {
			return fmt.Errorf("unsubscribing %s: %w", mode, err)
		}
	}

	r.log.Debug().Str("accessory", accessory.Alias).Int("switches", len(modes)).Msg("unregistered switches")
	return nil
}

func (r *MQTTAccessoryRegistry) Switch(accessory application.Accessory, mode application.Mode) (application.Switch, error) {
	sw := &MQTTSwitch{
		client:       r.params.Client,
		stateTopic:   r.switchTopic(accessory, mode, "state"),
		commandTopic: r.switchTopic(accessory, mode, "set"),
		getTopic:     r.switchTopic(accessory, mode, "get"),
		log: r.log.With().
			Str("accessory", accessory.Alias).
			Str("mode", string(mode)).
			Logger(),
	}

	if err := sw.subscribe(); err != nil {
		return nil, err
	}
	return sw, nil
}

func (r *MQTTAccessoryRegistry) DiscoveryMessage(accessory application.Accessory, mode application.Mode) DiscoveryMessage {
	return DiscoveryMessage{
		Name:              r.SwitchName(accessory, mode),
		ID:                fmt.Sprintf("%s_%s", accessory.UUID, mode.Slug()),
		StateTopic:        r.switchTopic(accessory, mode, "state"),
		CommandTopic:      r.switchTopic(accessory, mode, "set"),
		AvailabilityTopic: r.params.AvailabilityTopic,
		PayloadOn:         MQTTPayloadOn,
		PayloadOff:        MQTTPayloadOff,
		Icon:              "mdi:radiator",
		Device: DiscoveryDevice{
			Name:         fmt.Sprintf("Heatzy Pilote %s", accessory.Alias),
			Identifiers:  []string{accessory.DeviceID},
			Model:        heatzyModel,
			Manufacturer: heatzyManufacturer,
		},
	}
}

func (r *MQTTAccessoryRegistry) SwitchName(accessory application.Accessory, mode application.Mode) string {
	if r.params.IncludeAliases {
		return fmt.Sprintf("%s %s", accessory.Alias, mode.DisplayName())
	}
	return mode.DisplayName()
}

func (r *MQTTAccessoryRegistry) discoveryTopic(accessory application.Accessory, mode application.Mode) string {
	return fmt.Sprintf("%s/switch/%s_%s/config", r.params.DiscoveryPrefix, accessory.UUID, mode.Slug())
}

func (r *MQTTAccessoryRegistry) switchTopic(accessory application.Accessory, mode application.Mode, suffix string) string {
	return fmt.Sprintf("%s/%s/%s/%s", r.params.Topic, accessory.DeviceID, mode.Slug(), suffix)
}

var _ application.AccessoryRegistry = &MQTTAccessoryRegistry{}
