package detectors

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
)

var emulatorPatterns = []string{
	"dev/socket/{qemud,genyd,baseband_genyd}",
	"dev/qemu_pipe",
	"{fstab.nox,init.nox.rc,ueventd.nox.rc}",
	"{fstab.andy,ueventd.andy.rc}",
	"{ueventd.android_x86.rc,x86.prop,ueventd.ttVM_x86.rc,init.ttVM_x86.rc,fstab.ttVM_x86}",
	"{fstab.vbox86,init.vbox86.rc,ueventd.vbox86.rc}",
}

// Emulator reports Present for emulator build properties, emulator device
// files, or an attached tracer.
func Emulator(ctx context.Context, h probe.Handle) types.ThreatStatus {
	host, err := hostFrom(h)
	if err != nil {
		return types.StatusErrored(err)
	}
	props, err := host.props()
	if err != nil {
		return types.StatusErrored(err)
	}
	if suspiciousBuild(props) {
		return types.StatusPresent()
	}
	hit, err := host.anyExists(ctx, emulatorPatterns)
	if err != nil {
		return types.StatusErrored(err)
	}
	if hit {
		return types.StatusPresent()
	}
	traced, err := host.traced()
	if err != nil {
		return types.StatusErrored(err)
	}
	return types.StatusFromBool(traced)
}

func suspiciousBuild(p map[string]string) bool {
	model, hardware, product := p[PropModel], p[PropHardware], p[PropProduct]
	lower := strings.ToLower
	switch {
	case strings.Contains(p[PropManufacturer], "Genymotion"),
		strings.Contains(model, "google_sdk"),
		strings.Contains(lower(model), "droid4x"),
		strings.Contains(model, "Emulator"),
		strings.Contains(model, "Android SDK built for x86"),
		strings.Contains(hardware, "goldfish"),
		strings.Contains(hardware, "ranchu"),
		strings.Contains(hardware, "vbox86"),
		strings.HasPrefix(p[PropFingerprint], "generic"),
		strings.Contains(product, "sdk"),
		strings.Contains(product, "vbox86p"),
		strings.Contains(lower(hardware), "nox"),
		strings.Contains(lower(product), "nox"),
		strings.Contains(lower(p[PropBoard]), "nox"):
		return true
	}
	return strings.HasPrefix(p[PropBrand], "generic") && strings.HasPrefix(p[PropDevice], "generic")
}

// traced reports a non-zero TracerPid in proc/self/status. A host without
// procfs is not traced.
func (h *Host) traced() (bool, error) {
	b, err := h.readOptional("proc/self/status")
	if err != nil {
		return false, fmt.Errorf("read process status: %w", err)
	}
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		v, ok := strings.CutPrefix(sc.Text(), "TracerPid:")
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("parse TracerPid: %w", err)
		}
		return pid != 0, nil
	}
	return false, nil
}
