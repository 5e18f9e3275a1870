package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "devguard.yaml", `schema_version: "1.2"
default_cadence: 30s
expected_signature: AB:CD
probes:
  hooks:
    cadence: 5s
  emulator:
    enabled: false
`)
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.DefaultCadence == nil || *cfg.DefaultCadence != "30s" {
		t.Fatalf("expected default_cadence=30s, got %#v", cfg.DefaultCadence)
	}
	if cfg.ExpectedSignature == nil || *cfg.ExpectedSignature != "AB:CD" {
		t.Fatalf("expected expected_signature=AB:CD, got %#v", cfg.ExpectedSignature)
	}
	if c := cfg.Probes["hooks"].Cadence; c == nil || *c != "5s" {
		t.Fatalf("expected hooks cadence 5s, got %#v", c)
	}
	if e := cfg.Probes["emulator"].Enabled; e == nil || *e {
		t.Fatalf("expected emulator disabled")
	}
}

func TestLoadFile_RejectsSchemaMajor(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "devguard.yaml", "schema_version: 2.0.0\n")
	_, err := LoadFile(p)
	assert.ErrorIs(t, err, ErrUnsupportedSchema)

	p = writeTemp(t, dir, "bad.yaml", "schema_version: banana\n")
	_, err = LoadFile(p)
	assert.ErrorIs(t, err, ErrUnsupportedSchema)
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	// place both, expect the dotfile to be picked first by search order
	writeTemp(t, dir, "devguard.yaml", "default_timeout: 1s\n")
	writeTemp(t, dir, ".devguard.yaml", "default_timeout: 7s\n")
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.DefaultTimeout == nil || *cfg.DefaultTimeout != "7s" {
		t.Fatalf("expected default_timeout=7s from .devguard.yaml, got %#v", cfg.DefaultTimeout)
	}
}

func TestLoadLocal_NoConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error when no local config exists")
	}
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "devguard")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTemp(t, cfgDir, "config.yml", "root: /srv/device\n")
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.Root == nil || *cfg.Root != "/srv/device" {
		t.Fatalf("expected root from global config, got %#v", cfg.Root)
	}
}

func TestLoadGlobal_NoConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	// Simulate no HOME as well by clearing HOME; LoadGlobal should error
	t.Setenv("HOME", "")
	if _, err := LoadGlobal(); err == nil {
		t.Fatal("expected error when no global config dir exists")
	}
}

func TestMerge_LaterWins(t *testing.T) {
	s := func(v string) *string { return &v }
	global := FileConfig{DefaultCadence: s("10m"), Root: s("/"), Probes: map[string]ProbeConfig{"hooks": {Cadence: s("1m"), Timeout: s("2s")}}}
	local := FileConfig{DefaultCadence: s("30s"), Probes: map[string]ProbeConfig{"hooks": {Cadence: s("5s")}}}

	m := Merge(global, local)
	assert.Equal(t, "30s", *m.DefaultCadence)
	assert.Equal(t, "/", *m.Root)
	assert.Equal(t, "5s", *m.Probes["hooks"].Cadence)
	assert.Equal(t, "2s", *m.Probes["hooks"].Timeout)
}

func byKind(ds []probe.Descriptor) map[types.ThreatKind]probe.Descriptor {
	out := map[types.ThreatKind]probe.Descriptor{}
	for _, d := range ds {
		out[d.Kind] = d
	}
	return out
}

func TestResolve_Defaults(t *testing.T) {
	ds, err := Resolve(FileConfig{})
	require.NoError(t, err)
	require.Len(t, ds, len(types.AllKinds()))
	m := byKind(ds)
	assert.Equal(t, probe.DefaultCadence, m[types.Hooks].Cadence.Every())
	assert.Equal(t, probe.DefaultTimeout, m[types.Hooks].Timeout)
	assert.True(t, m[types.AppSignatureMismatch].Cadence.IsOneShot())
	assert.True(t, m[types.HardwareProtectionUnavailable].Cadence.IsOneShot())
}

func TestResolve_Overrides(t *testing.T) {
	dir := t.TempDir()
	p := writeTemp(t, dir, "devguard.yml", `default_cadence: 2m
default_timeout: 3s
probes:
  hooks:
    cadence: 500ms
    timeout: 100ms
  root_privileges:
    one_shot: true
  app_signature_mismatch:
    one_shot: false
  emulator:
    enabled: false
`)
	cfg, err := LoadFile(p)
	require.NoError(t, err)
	ds, err := Resolve(cfg)
	require.NoError(t, err)
	m := byKind(ds)

	require.NotContains(t, m, types.Emulator)
	assert.Equal(t, 500*time.Millisecond, m[types.Hooks].Cadence.Every())
	assert.Equal(t, 100*time.Millisecond, m[types.Hooks].Timeout)
	assert.True(t, m[types.RootPrivileges].Cadence.IsOneShot())
	assert.Equal(t, 2*time.Minute, m[types.AppSignatureMismatch].Cadence.Every())
	assert.Equal(t, 2*time.Minute, m[types.DevicePasscodeMissing].Cadence.Every())
	assert.Equal(t, 3*time.Second, m[types.DevicePasscodeMissing].Timeout)
}

func TestResolve_FailsFast(t *testing.T) {
	s := func(v string) *string { return &v }
	cases := map[string]FileConfig{
		"bad duration":      {DefaultCadence: s("soon")},
		"negative timeout":  {DefaultTimeout: s("-1s")},
		"unknown kind":      {Probes: map[string]ProbeConfig{"jailbreak": {}}},
		"zero probe period": {Probes: map[string]ProbeConfig{"hooks": {Cadence: s("0s")}}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Resolve(cfg)
			assert.ErrorIs(t, err, probe.ErrInvalidDescriptor)
		})
	}
}

func TestDefault_RoundTripsThroughResolve(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, ".devguard.yml")
	require.NoError(t, WriteFile(p, Default(), false))
	assert.Error(t, WriteFile(p, Default(), false))
	require.NoError(t, WriteFile(p, Default(), true))

	cfg, err := LoadLocal(dir)
	require.NoError(t, err)
	ds, err := Resolve(cfg)
	require.NoError(t, err)
	assert.Len(t, ds, len(types.AllKinds()))
}
