package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"
)

const DefaultReportInterval = 30 * time.Second

type BridgeService interface {
	Run(ctx context.Context) error
}

type BridgeServiceParams struct {
	HeatzyClient HeatzyClient
	MQTTClient   MQTTClient
	Registry     AccessoryRegistry
	Cache        AccessoryCache

	EnableAntiFrost bool
	EnableOff       bool
	PollInterval    time.Duration
	ReportInterval  time.Duration

	Log zerolog.Logger
}

type bridgeService struct {
	params BridgeServiceParams
	modes  []Mode

	log zerolog.Logger
}

func NewBridgeService(params BridgeServiceParams) (BridgeService, error) {
	if params.HeatzyClient == nil {
		return nil, fmt.Errorf("HeatzyClient is nil")
	}
	if params.MQTTClient == nil {
		return nil, fmt.Errorf("MQTTClient is nil")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("Registry is nil")
	}
	if params.Cache == nil {
		return nil, fmt.Errorf("Cache is nil")
	}
	if params.ReportInterval == 0 {
		params.ReportInterval = DefaultReportInterval
	}

	return &bridgeService{
		params: params,
		modes:  EnabledModes(params.EnableAntiFrost, params.EnableOff),
		log:    params.Log,
	}, nil
}

func (b *bridgeService) Run(ctx context.Context) error {
	synchronizers, err := b.setup(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	// device synchronizers
	g.Go(func() error {
		b.log.Info().Int("devices", len(synchronizers)).Msg("start syncing devices")
		defer b.log.Info().Msg("stop syncing devices")

		var wg conc.WaitGroup
		for _, s := range synchronizers {
			s := s
			wg.Go(func() {
				s.Run(ctx)
			})
		}
		wg.Wait()
		return nil
	})

	// mqtt publish reported
	g.Go(func() error {
		b.report(ctx)
		return nil
	})

	return g.Wait()
}

// setup reconciles the cached accessories with the bindings of the account and
// builds one synchronizer per device.
func (b *bridgeService) setup(ctx context.Context) ([]*ModeSynchronizer, error) {
	cached, err := b.params.Cache.Load()
	if err != nil {
		return nil, fmt.Errorf("loading accessory cache: %w", err)
	}

	cachedByUUID := make(map[string]Accessory, len(cached))
	for _, accessory := range cached {
		b.log.Info().Str("accessory", accessory.Alias).Msg("loading accessory from cache")
		cachedByUUID[accessory.UUID] = accessory
	}

	b.log.Debug().Msg("discovering devices from heatzy account")
	bindings, err := b.params.HeatzyClient.ListBindings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing bindings: %w", err)
	}

	discovered := make(map[string]bool, len(bindings))
	accessories := make([]Accessory, 0, len(bindings))
	synchronizers := make([]*ModeSynchronizer, 0, len(bindings))

	for _, binding := range bindings {
		accessory := NewAccessory(binding, b.modes)
		discovered[accessory.UUID] = true

		log := b.log.With().Str("accessory", binding.Alias).Str("device_id", binding.DeviceID).Logger()
		if previous, ok := cachedByUUID[accessory.UUID]; ok {
			log.Debug().Msg("restoring previously configured accessory")
			if stale := missingModes(previous.Modes, b.modes); len(stale) > 0 {
				if err := b.params.Registry.Unregister(ctx, previous, stale); err != nil {
					log.Warn().Err(err).Msg("failed to remove disabled switches")
				}
			}
		} else {
			log.Debug().Msg("configuring new accessory")
		}

		if err := b.params.Registry.Register(ctx, accessory); err != nil {
			return nil, fmt.Errorf("registering accessory %s: %w", binding.Alias, err)
		}

		s, err := b.newSynchronizer(accessory, binding, log)
		if err != nil {
			return nil, err
		}

		accessories = append(accessories, accessory)
		synchronizers = append(synchronizers, s)
	}

	for _, accessory := range cached {
		if discovered[accessory.UUID] {
			continue
		}
		b.log.Debug().Str("accessory", accessory.Alias).Msg("removing existing accessory from cache")
		if err := b.params.Registry.Unregister(ctx, accessory, accessory.Modes); err != nil {
			b.log.Warn().Err(err).Str("accessory", accessory.Alias).Msg("failed to unregister accessory")
		}
	}

	if err := b.params.Cache.Save(accessories); err != nil {
		return nil, fmt.Errorf("saving accessory cache: %w", err)
	}

	return synchronizers, nil
}

func (b *bridgeService) newSynchronizer(accessory Accessory, binding DeviceBinding, log zerolog.Logger) (*ModeSynchronizer, error) {
	switches := make(map[Mode]Switch, len(accessory.Modes))
	for _, mode := range accessory.Modes {
		log.Debug().Str("mode", string(mode)).Msg("adding switch")
		sw, err := b.params.Registry.Switch(accessory, mode)
		if err != nil {
			return nil, fmt.Errorf("creating %s switch for %s: %w", mode, binding.Alias, err)
		}
		switches[mode] = sw
	}

	return NewModeSynchronizer(ModeSynchronizerParams{
		Binding:      binding,
		Client:       b.params.HeatzyClient,
		Modes:        accessory.Modes,
		Switches:     switches,
		PollInterval: b.params.PollInterval,
		Log:          log,
	})
}

func (b *bridgeService) report(ctx context.Context) {
	ticker := time.NewTicker(b.params.ReportInterval)
	defer ticker.Stop()

	lastStatus := MQTTStatus{}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			newStatus := b.params.MQTTClient.Status()
			b.log.Info().
				Uint64("published", newStatus.MessageCount-lastStatus.MessageCount).
				Bool("is_connected", newStatus.Connected).
				Time("last_time_published", newStatus.LastTimePublished).
				Msg("publish report")
			lastStatus = newStatus
		}
	}
}

func missingModes(previous, current []Mode) []Mode {
	var missing []Mode
	for _, p := range previous {
		found := false
		for _, c := range current {
			if p == c {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, p)
		}
	}
	return missing
}
