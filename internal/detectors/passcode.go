package detectors

import (
	"context"

	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
)

// DevicePasscodeMissing reports Present when no device lock is configured.
func DevicePasscodeMissing(ctx context.Context, h probe.Handle) types.ThreatStatus {
	host, err := hostFrom(h)
	if err != nil {
		return types.StatusErrored(err)
	}
	if host.DeviceSecure == nil {
		return types.StatusErrored(ErrUnsupported)
	}
	secure, err := host.DeviceSecure(ctx)
	if err != nil {
		return types.StatusErrored(err)
	}
	return types.StatusFromBool(!secure)
}
