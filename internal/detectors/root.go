package detectors

import (
	"context"
	"strings"

	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
)

// Locations where su binaries and root managers are usually dropped.
var rootPatterns = []string{
	"{sbin,system/bin,system/xbin,system/sd/xbin,system/bin/failsafe,data/local,data/local/bin,data/local/xbin,su/bin,vendor/bin}/su",
	"system/app/{Superuser,SuperSU,Kinguser}.apk",
	"{sbin/.magisk,data/adb/magisk,data/adb/ksu}",
	"system/{bin,xbin}/busybox",
}

// RootPrivileges reports Present when the build is signed with test keys or
// an su binary or root manager exists on the host.
func RootPrivileges(ctx context.Context, h probe.Handle) types.ThreatStatus {
	host, err := hostFrom(h)
	if err != nil {
		return types.StatusErrored(err)
	}
	props, err := host.props()
	if err != nil {
		return types.StatusErrored(err)
	}
	if strings.Contains(props[PropBuildTags], "test-keys") {
		return types.StatusPresent()
	}
	hit, err := host.anyExists(ctx, rootPatterns)
	if err != nil {
		return types.StatusErrored(err)
	}
	return types.StatusFromBool(hit)
}
