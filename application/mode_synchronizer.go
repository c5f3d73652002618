package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultPollInterval = 10 * time.Second
	DefaultRevertDelay  = time.Second
)

type ModeSynchronizerParams struct {
	Binding  DeviceBinding
	Client   HeatzyClient
	Modes    []Mode
	Switches map[Mode]Switch

	PollInterval time.Duration
	RevertDelay  time.Duration

	Log zerolog.Logger
}

func (p *ModeSynchronizerParams) EnsureDefaults() {
	if p.PollInterval == 0 {
		p.PollInterval = DefaultPollInterval
	}

	if p.RevertDelay == 0 {
		p.RevertDelay = DefaultRevertDelay
	}

	if len(p.Modes) == 0 {
		p.Modes = EnabledModes(false, false)
	}
}

// ModeSynchronizer keeps one switch per enabled mode in line with the mode the
// cloud reports for a device. At most one switch is on at a time.
type ModeSynchronizer struct {
	params ModeSynchronizerParams

	mu sync.Mutex
	// modes absent from state have never been published
	state map[Mode]bool

	stop     chan struct{}
	stopOnce sync.Once

	log zerolog.Logger
}

func NewModeSynchronizer(params ModeSynchronizerParams) (*ModeSynchronizer, error) {
	params.EnsureDefaults()

	if params.Client == nil {
		return nil, fmt.Errorf("HeatzyClient is nil")
	}
	if params.Binding.DeviceID == "" {
		return nil, fmt.Errorf("device id is empty")
	}
	for _, mode := range params.Modes {
		if params.Switches[mode] == nil {
			return nil, fmt.Errorf("no switch for mode %s", mode)
		}
	}

	s := &ModeSynchronizer{
		params: params,
		state:  make(map[Mode]bool, len(params.Modes)),
		stop:   make(chan struct{}),
		log:    params.Log.With().Str("device", params.Binding.Alias).Logger(),
	}

	for _, mode := range params.Modes {
		mode := mode
		sw := params.Switches[mode]
		sw.OnGet(func() bool {
			return s.Get(mode)
		})
		sw.OnSet(func(ctx context.Context, on bool) error {
			return s.Set(ctx, mode, on)
		})
	}

	return s, nil
}

// Run polls the device until ctx is done or Stop is called.
func (s *ModeSynchronizer) Run(ctx context.Context) {
	ticker := time.NewTicker(s.params.PollInterval)
	defer ticker.Stop()

	s.log.Debug().Dur("interval", s.params.PollInterval).Msg("start polling")
	defer s.log.Debug().Msg("stop polling")

	for {
		if err := s.Poll(ctx); err != nil {
			s.log.Warn().Err(err).Msg("failed to sync state")
		}

		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
		}
	}
}

// Stop ends Run and drops pending reverts.
func (s *ModeSynchronizer) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Poll fetches the device mode and publishes the switches that changed.
func (s *ModeSynchronizer) Poll(ctx context.Context) error {
	s.log.Debug().Msg("syncing state")

	mode, err := s.params.Client.ReadMode(ctx, s.params.Binding.DeviceID)
	if err != nil {
		return err
	}

	if changed := s.apply(mode); changed > 0 {
		s.log.Debug().Str("mode", string(mode)).Msg("state changed")
	}
	return nil
}

func (s *ModeSynchronizer) Get(mode Mode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	value := s.state[mode]
	s.log.Debug().Str("mode", string(mode)).Bool("value", value).Msg("get")
	return value
}

// Set handles a user toggle. Turning a switch off has no matching device state,
// so the switch is flipped back on after the revert delay and the device is left
// alone.
func (s *ModeSynchronizer) Set(ctx context.Context, mode Mode, on bool) error {
	s.log.Debug().Str("mode", string(mode)).Bool("value", on).Msg("set")

	sw, ok := s.params.Switches[mode]
	if !ok || !s.enabled(mode) {
		return fmt.Errorf("mode %s is not enabled", mode)
	}

	if !on {
		s.log.Debug().Str("mode", string(mode)).Msg("refusing to turn mode off, restoring switch")
		go s.revert(sw, mode)
		return nil
	}

	s.log.Debug().Str("mode", string(mode)).Msg("setting mode")
	if err := s.params.Client.WriteMode(ctx, s.params.Binding.DeviceID, mode); err != nil {
		return err
	}

	s.apply(mode)
	return nil
}

// State returns a copy of the current switch values.
func (s *ModeSynchronizer) State() map[Mode]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := make(map[Mode]bool, len(s.params.Modes))
	for _, mode := range s.params.Modes {
		state[mode] = s.state[mode]
	}
	return state
}

func (s *ModeSynchronizer) revert(sw Switch, mode Mode) {
	t := time.NewTimer(s.params.RevertDelay)
	defer t.Stop()

	select {
	case <-s.stop:
		return
	case <-t.C:
	}

	if err := sw.Update(true); err != nil {
		s.log.Warn().Err(err).Str("mode", string(mode)).Msg("failed to restore switch")
	}
}

// apply makes mode the only active switch and notifies the switches whose value
// differs from what was last published. It returns the number of notifications.
func (s *ModeSynchronizer) apply(mode Mode) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, m := range s.params.Modes {
		value := m == mode
		if prev, known := s.state[m]; known && prev == value {
			continue
		}

		s.state[m] = value
		changed++
		if err := s.params.Switches[m].Update(value); err != nil {
			s.log.Warn().Err(err).Str("mode", string(m)).Msg("failed to update switch")
		}
	}
	return changed
}

func (s *ModeSynchronizer) enabled(mode Mode) bool {
	for _, m := range s.params.Modes {
		if m == mode {
			return true
		}
	}
	return false
}
