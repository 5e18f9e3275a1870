package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/devguard/devguard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() types.Report {
	return types.NewReport().
		With(types.RootPrivileges, types.StatusPresent()).
		With(types.Hooks, types.StatusNotPresent()).
		With(types.Emulator, types.StatusErrored(errors.New("build.prop unreadable")))
}

func TestPrintTable_WithThreats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, sampleReport(), PrintOptions{NoColor: true}))
	out := buf.String()
	if !strings.Contains(out, "STATUS") {
		t.Fatalf("expected table header with STATUS; got: %q", out)
	}
	if !strings.Contains(out, "root_privileges") || !strings.Contains(out, "present") {
		t.Fatalf("expected root row; got: %q", out)
	}
	if !strings.Contains(out, "build.prop unreadable") {
		t.Fatalf("expected errored cause in detail column; got: %q", out)
	}
	if !strings.Contains(out, "│") {
		t.Fatalf("expected table borders; got: %q", out)
	}
	if !strings.Contains(out, "Threats detected: 1 (root_privileges)") {
		t.Fatalf("expected summary footer; got: %q", out)
	}
}

func TestPrintTable_NoThreats(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, types.NewReport(), PrintOptions{NoColor: true}))
	out := buf.String()
	if !strings.Contains(out, "No threats detected") {
		t.Fatalf("expected friendly message; got: %q", out)
	}
	if !strings.Contains(out, "not_checked") {
		t.Fatalf("expected not_checked rows; got: %q", out)
	}
}

func TestPrintLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintLine(&buf, sampleReport(), PrintOptions{NoColor: true}))
	assert.Equal(t, "v3 root_privileges=present hooks=not_present emulator=errored device_passcode_missing=not_checked hardware_protection_unavailable=not_checked app_signature_mismatch=not_checked\n", buf.String())
}

func TestColorEnabled_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, ColorEnabled(&buf, false))
	assert.False(t, ColorEnabled(&buf, true))
}

func TestWriteJSONLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONLine(&buf, sampleReport()))
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))

	var got struct {
		Version  uint64 `json:"version"`
		Statuses map[string]struct {
			State string `json:"state"`
			Cause string `json:"cause"`
		} `json:"statuses"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, uint64(3), got.Version)
	assert.Equal(t, "present", got.Statuses["root_privileges"].State)
	assert.Equal(t, "build.prop unreadable", got.Statuses["emulator"].Cause)
}

func TestShouldFail(t *testing.T) {
	r := sampleReport()
	assert.True(t, ShouldFail(r, nil))
	assert.False(t, ShouldFail(r, []types.ThreatKind{types.RootPrivileges}))
	assert.False(t, ShouldFail(types.NewReport(), nil))
	// errored is not a detection
	assert.Equal(t, []types.ThreatKind{types.RootPrivileges}, NewDetections(r, []types.ThreatKind{types.Emulator}))
}

func TestBaseline_RoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, SaveBaseline(p, sampleReport()))

	b, err := LoadBaseline(p)
	require.NoError(t, err)
	assert.Equal(t, []types.ThreatKind{types.RootPrivileges}, b.Accepted())
	assert.False(t, ShouldFail(sampleReport(), b.Accepted()))

	worse := sampleReport().With(types.Hooks, types.StatusPresent())
	assert.Equal(t, []types.ThreatKind{types.Hooks}, NewDetections(worse, b.Accepted()))
}

func TestLoadBaseline_Missing(t *testing.T) {
	b, err := LoadBaseline(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.NotNil(t, b.Items)
}
