package devguard

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/devguard/devguard/internal/config"
	"github.com/devguard/devguard/internal/detectors"
	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
)

// settings is the resolved view of flags and config files for one command.
type settings struct {
	probes  []probe.Descriptor
	host    *detectors.Host
	noColor bool
}

// loadSettings resolves configuration with precedence CLI > local > global.
// An explicit --config replaces the local file.
func loadSettings() (settings, error) {
	var gcfg, lcfg config.FileConfig
	if flagConfig != "" {
		c, err := config.LoadFile(flagConfig)
		if err != nil {
			return settings{}, err
		}
		lcfg = c
	} else {
		if c, err := config.LoadGlobal(); err == nil {
			gcfg = c
		}
		abs, _ := filepath.Abs(".")
		if c, err := config.LoadLocal(abs); err == nil {
			lcfg = c
		}
	}

	merged := config.Merge(gcfg, lcfg)
	sig := pickString(flagSignature, lcfg.ExpectedSignature, gcfg.ExpectedSignature)
	merged.ExpectedSignature = &sig
	ds, err := config.Resolve(merged)
	if err != nil {
		return settings{}, err
	}

	host := detectors.NewHost(pickString(flagRoot, lcfg.Root, gcfg.Root))
	if flagListenAddr != "" {
		host.InstrumentationAddr = flagListenAddr
	}
	return settings{
		probes:  ds,
		host:    host,
		noColor: pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor),
	}, nil
}

// filterKinds keeps descriptors whose kind is named in names. Empty names
// keeps everything.
func filterKinds(ds []probe.Descriptor, names []string) ([]probe.Descriptor, error) {
	if len(names) == 0 {
		return ds, nil
	}
	want, err := parseKinds(names)
	if err != nil {
		return nil, err
	}
	keep := map[types.ThreatKind]bool{}
	for _, k := range want {
		keep[k] = true
	}
	var out []probe.Descriptor
	for _, d := range ds {
		if keep[d.Kind] {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no enabled probe matches --kind %s", strings.Join(names, ","))
	}
	return out, nil
}

func parseKinds(names []string) ([]types.ThreatKind, error) {
	var out []types.ThreatKind
	for _, n := range names {
		for _, part := range strings.Split(n, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			k, err := types.ParseKind(part)
			if err != nil {
				return nil, err
			}
			out = append(out, k)
		}
	}
	return out, nil
}

func pickString(cli string, local, global *string) string {
	if cli != "" {
		return cli
	}
	if local != nil && *local != "" {
		return *local
	}
	if global != nil && *global != "" {
		return *global
	}
	return ""
}

func pickBool(cli bool, local, global *bool) bool {
	if cli {
		return true
	}
	if local != nil {
		return *local
	}
	if global != nil {
		return *global
	}
	return false
}
