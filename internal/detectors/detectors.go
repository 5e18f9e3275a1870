package detectors

import (
	"fmt"

	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
)

var builtin = map[types.ThreatKind]probe.Check{
	types.RootPrivileges:                RootPrivileges,
	types.Hooks:                         Hooks,
	types.Emulator:                      Emulator,
	types.DevicePasscodeMissing:         DevicePasscodeMissing,
	types.HardwareProtectionUnavailable: HardwareProtectionUnavailable,
}

// CheckFor returns the default probe for kind. expectedSignature is only
// consumed by the AppSignatureMismatch probe.
func CheckFor(kind types.ThreatKind, expectedSignature string) (probe.Check, error) {
	if kind == types.AppSignatureMismatch {
		return AppSignature(expectedSignature), nil
	}
	c, ok := builtin[kind]
	if !ok {
		return nil, fmt.Errorf("no default probe for kind %s", kind)
	}
	return c, nil
}

// DefaultCadence is one-shot for kinds whose inputs do not change while the
// process runs, periodic otherwise.
func DefaultCadence(kind types.ThreatKind) probe.Cadence {
	switch kind {
	case types.AppSignatureMismatch, types.HardwareProtectionUnavailable:
		return probe.OneShot()
	default:
		return probe.Periodic(probe.DefaultCadence)
	}
}

// Defaults returns a descriptor for every kind using default cadence and
// timeout.
func Defaults(expectedSignature string) []probe.Descriptor {
	out := make([]probe.Descriptor, 0, len(types.AllKinds()))
	for _, k := range types.AllKinds() {
		c, err := CheckFor(k, expectedSignature)
		if err != nil {
			continue
		}
		out = append(out, probe.Descriptor{
			Kind:    k,
			Cadence: DefaultCadence(k),
			Timeout: probe.DefaultTimeout,
			Check:   c,
		})
	}
	return out
}
