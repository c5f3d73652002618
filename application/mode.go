package application

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Mode is one of the pilot wire heating modes of a Heatzy device.
type Mode string

const (
	ModeComfort   Mode = "COMFORT"
	ModeEco       Mode = "ECO"
	ModeAntiFrost Mode = "ANTIFROST"
	ModeOff       Mode = "OFF"
)

var allModes = []Mode{ModeComfort, ModeEco, ModeAntiFrost, ModeOff}

// AllModes returns every mode in control code order.
func AllModes() []Mode {
	modes := make([]Mode, len(allModes))
	copy(modes, allModes)
	return modes
}

var controlCodes = map[Mode][3]int{
	ModeComfort:   {1, 1, 0},
	ModeEco:       {1, 1, 1},
	ModeAntiFrost: {1, 1, 2},
	ModeOff:       {1, 1, 3},
}

// the cloud reports the current mode with its chinese labels
var vendorModes = map[string]Mode{
	"舒适": ModeComfort,
	"经济": ModeEco,
	"解冻": ModeAntiFrost,
	"停止": ModeOff,
}

var displayNames = map[Mode]string{
	ModeComfort:   "Confort",
	ModeEco:       "Eco",
	ModeAntiFrost: "Hors-gel",
	ModeOff:       "Off",
}

// ControlCode returns the raw payload that switches a device to the mode.
func (m Mode) ControlCode() ([3]int, error) {
	code, ok := controlCodes[m]
	if !ok {
		return [3]int{}, errors.Newf("unknown mode %q", string(m))
	}
	return code, nil
}

func (m Mode) DisplayName() string {
	if name, ok := displayNames[m]; ok {
		return name
	}
	return string(m)
}

// Slug is the lower case form used in topics and ids.
func (m Mode) Slug() string {
	return strings.ToLower(string(m))
}

func (m Mode) Valid() bool {
	_, ok := controlCodes[m]
	return ok
}

// ParseVendorMode translates the mode label reported by the cloud.
func ParseVendorMode(s string) (Mode, error) {
	mode, ok := vendorModes[s]
	if !ok {
		return "", errors.Mark(errors.Newf("unrecognized device mode %q", s), ErrProtocol)
	}
	return mode, nil
}

// EnabledModes returns the modes exposed as switches for the given options.
// Comfort and eco are always exposed.
func EnabledModes(enableAntiFrost, enableOff bool) []Mode {
	modes := []Mode{ModeComfort, ModeEco}
	if enableAntiFrost {
		modes = append(modes, ModeAntiFrost)
	}
	if enableOff {
		modes = append(modes, ModeOff)
	}
	return modes
}
