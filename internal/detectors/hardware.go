package detectors

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
)

// HardwareProtectionUnavailable reports Present when storage is not
// encrypted or keys cannot be kept in secure hardware.
func HardwareProtectionUnavailable(ctx context.Context, h probe.Handle) types.ThreatStatus {
	host, err := hostFrom(h)
	if err != nil {
		return types.StatusErrored(err)
	}
	encrypted := host.StorageEncrypted
	if encrypted == nil {
		encrypted = host.dmCryptActive
	}
	ok, err := encrypted(ctx)
	if err != nil {
		return types.StatusErrored(fmt.Errorf("storage encryption: %w", err))
	}
	if !ok {
		return types.StatusPresent()
	}
	keys := host.HardwareKeys
	if keys == nil {
		keys = host.tpmPresent
	}
	ok, err = keys(ctx)
	if err != nil {
		return types.StatusErrored(fmt.Errorf("hardware keys: %w", err))
	}
	return types.StatusFromBool(!ok)
}

// dmCryptActive looks for a device-mapper target created by cryptsetup.
func (h *Host) dmCryptActive(ctx context.Context) (bool, error) {
	fsys := h.fsys()
	uuids, err := doublestar.Glob(fsys, "sys/block/dm-*/dm/uuid")
	if err != nil {
		return false, err
	}
	for _, p := range uuids {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return false, err
		}
		if bytes.HasPrefix(bytes.TrimSpace(b), []byte("CRYPT-")) {
			return true, nil
		}
	}
	return false, nil
}

func (h *Host) tpmPresent(ctx context.Context) (bool, error) {
	return h.anyExists(ctx, []string{"sys/class/tpm/tpm[0-9]*"})
}
