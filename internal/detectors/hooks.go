package detectors

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
)

// Hooks reports Present when an instrumentation server accepts connections
// or an instrumentation library is mapped into the process.
func Hooks(ctx context.Context, h probe.Handle) types.ThreatStatus {
	host, err := hostFrom(h)
	if err != nil {
		return types.StatusErrored(err)
	}
	if host.instrumentationListening(ctx) {
		return types.StatusPresent()
	}
	maps, err := host.readOptional("proc/self/maps")
	if err != nil {
		return types.StatusErrored(fmt.Errorf("read memory maps: %w", err))
	}
	return types.StatusFromBool(strings.Contains(strings.ToLower(string(maps)), "frida"))
}

// instrumentationListening treats any dial failure as "not listening".
func (h *Host) instrumentationListening(ctx context.Context) bool {
	addr := h.InstrumentationAddr
	if addr == "" {
		addr = DefaultInstrumentationAddr
	}
	timeout := h.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
