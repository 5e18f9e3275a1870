package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/blang/semver/v4"
	"github.com/devguard/devguard/internal/detectors"
	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
	"gopkg.in/yaml.v3"
)

// SchemaVersion is written by `config init`. Files with a different major
// version are rejected.
const SchemaVersion = "1.0.0"

// ErrUnsupportedSchema is returned for a schema_version this build cannot read.
var ErrUnsupportedSchema = errors.New("unsupported config schema_version")

// FileConfig is the on-disk YAML configuration shape for devguard.
type FileConfig struct {
	SchemaVersion     *string `yaml:"schema_version"`
	DefaultCadence    *string `yaml:"default_cadence"`
	DefaultTimeout    *string `yaml:"default_timeout"`
	ExpectedSignature *string `yaml:"expected_signature"`
	Root              *string `yaml:"root"`
	NoColor           *bool   `yaml:"no_color"`

	// Probes is keyed by threat kind name, e.g. "root_privileges".
	Probes map[string]ProbeConfig `yaml:"probes"`
}

// ProbeConfig overrides the schedule of one probe.
type ProbeConfig struct {
	Cadence *string `yaml:"cadence"`
	Timeout *string `yaml:"timeout"`
	OneShot *bool   `yaml:"one_shot"`
	Enabled *bool   `yaml:"enabled"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.checkSchema(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches for a config file in the given directory.
// It supports .devguard.yml/.yaml and devguard.yml/.yaml.
func LoadLocal(dir string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".devguard.yml", ".devguard.yaml", "devguard.yml", "devguard.yaml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// GlobalPath returns the global config location, or "" when neither
// XDG_CONFIG_HOME nor a home directory is available.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "devguard", "config.yml")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p := GlobalPath()
	if p == "" {
		return cfg, errors.New("no config dir")
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

func (fc FileConfig) checkSchema() error {
	if fc.SchemaVersion == nil {
		return nil
	}
	v, err := semver.ParseTolerant(*fc.SchemaVersion)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrUnsupportedSchema, *fc.SchemaVersion, err)
	}
	if v.Major != 1 {
		return fmt.Errorf("%w %q: want 1.x", ErrUnsupportedSchema, *fc.SchemaVersion)
	}
	return nil
}

// Merge layers configs so that later arguments win field by field. Probe
// overrides are merged per kind.
func Merge(layers ...FileConfig) FileConfig {
	var out FileConfig
	for _, l := range layers {
		pick(&out.SchemaVersion, l.SchemaVersion)
		pick(&out.DefaultCadence, l.DefaultCadence)
		pick(&out.DefaultTimeout, l.DefaultTimeout)
		pick(&out.ExpectedSignature, l.ExpectedSignature)
		pick(&out.Root, l.Root)
		pick(&out.NoColor, l.NoColor)
		for name, pc := range l.Probes {
			if out.Probes == nil {
				out.Probes = map[string]ProbeConfig{}
			}
			cur := out.Probes[name]
			pick(&cur.Cadence, pc.Cadence)
			pick(&cur.Timeout, pc.Timeout)
			pick(&cur.OneShot, pc.OneShot)
			pick(&cur.Enabled, pc.Enabled)
			out.Probes[name] = cur
		}
	}
	return out
}

func pick[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// Resolve turns the merged configuration into descriptors backed by the
// default detectors. Disabled probes are left out. Malformed durations and
// unknown kind names fail with probe.ErrInvalidDescriptor.
func Resolve(fc FileConfig) ([]probe.Descriptor, error) {
	defCadence, err := duration(fc.DefaultCadence, probe.DefaultCadence, "default_cadence")
	if err != nil {
		return nil, err
	}
	defTimeout, err := duration(fc.DefaultTimeout, probe.DefaultTimeout, "default_timeout")
	if err != nil {
		return nil, err
	}

	overrides := map[types.ThreatKind]ProbeConfig{}
	names := make([]string, 0, len(fc.Probes))
	for name := range fc.Probes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		k, err := types.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("%w: probes.%s: %v", probe.ErrInvalidDescriptor, name, err)
		}
		overrides[k] = fc.Probes[name]
	}

	var out []probe.Descriptor
	for _, k := range types.AllKinds() {
		pc := overrides[k]
		if pc.Enabled != nil && !*pc.Enabled {
			continue
		}
		d, err := resolveOne(k, pc, fc.ExpectedSignature, defCadence, defTimeout)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := probe.ValidateAll(out); err != nil {
		return nil, err
	}
	return out, nil
}

func resolveOne(k types.ThreatKind, pc ProbeConfig, sig *string, defCadence, defTimeout time.Duration) (probe.Descriptor, error) {
	field := "probes." + k.String()
	timeout, err := duration(pc.Timeout, defTimeout, field+".timeout")
	if err != nil {
		return probe.Descriptor{}, err
	}
	every, err := duration(pc.Cadence, defCadence, field+".cadence")
	if err != nil {
		return probe.Descriptor{}, err
	}

	cadence := detectors.DefaultCadence(k)
	if !cadence.IsOneShot() || pc.Cadence != nil {
		cadence = probe.Periodic(every)
	}
	if pc.OneShot != nil {
		if *pc.OneShot {
			cadence = probe.OneShot()
		} else {
			cadence = probe.Periodic(every)
		}
	}

	expected := ""
	if sig != nil {
		expected = *sig
	}
	check, err := detectors.CheckFor(k, expected)
	if err != nil {
		return probe.Descriptor{}, fmt.Errorf("%w: %v", probe.ErrInvalidDescriptor, err)
	}
	return probe.Descriptor{Kind: k, Cadence: cadence, Timeout: timeout, Check: check}, nil
}

func duration(s *string, def time.Duration, field string) (time.Duration, error) {
	if s == nil {
		return def, nil
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", probe.ErrInvalidDescriptor, field, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %s", probe.ErrInvalidDescriptor, field, d)
	}
	return d, nil
}

// Default returns a fully populated configuration reflecting the built-in
// defaults, suitable for `config init`.
func Default() FileConfig {
	str := func(s string) *string { return &s }
	bol := func(b bool) *bool { return &b }
	probes := map[string]ProbeConfig{}
	for _, k := range types.AllKinds() {
		pc := ProbeConfig{Enabled: bol(true), OneShot: bol(detectors.DefaultCadence(k).IsOneShot())}
		probes[k.String()] = pc
	}
	return FileConfig{
		SchemaVersion:     str(SchemaVersion),
		DefaultCadence:    str(probe.DefaultCadence.String()),
		DefaultTimeout:    str(probe.DefaultTimeout.String()),
		ExpectedSignature: str(""),
		Root:              str("/"),
		Probes:            probes,
	}
}

// WriteFile serializes cfg as YAML to path, refusing to overwrite unless
// force is set.
func WriteFile(path string, cfg FileConfig, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
