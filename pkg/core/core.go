package core

import (
	"context"
	"time"

	"github.com/devguard/devguard/internal/detectors"
	"github.com/devguard/devguard/internal/engine"
	"github.com/devguard/devguard/internal/probe"
	"github.com/devguard/devguard/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Config       = engine.Config
	Session      = engine.Session
	Subscription = engine.Subscription
	Report       = types.Report
	ThreatKind   = types.ThreatKind
	ThreatStatus = types.ThreatStatus
	Descriptor   = probe.Descriptor
	Cadence      = probe.Cadence
	CheckFunc    = probe.Check
	Handle       = probe.Handle
	Host         = detectors.Host
)

// Threat kinds.
const (
	RootPrivileges                = types.RootPrivileges
	Hooks                         = types.Hooks
	Emulator                      = types.Emulator
	DevicePasscodeMissing         = types.DevicePasscodeMissing
	HardwareProtectionUnavailable = types.HardwareProtectionUnavailable
	AppSignatureMismatch          = types.AppSignatureMismatch
)

var (
	ErrAlreadyStarted    = engine.ErrAlreadyStarted
	ErrSessionClosed     = engine.ErrSessionClosed
	ErrInvalidDescriptor = probe.ErrInvalidDescriptor
	ErrTimeout           = probe.ErrTimeout
)

// Status constructors for custom probes.
func StatusNotPresent() ThreatStatus         { return types.StatusNotPresent() }
func StatusPresent() ThreatStatus            { return types.StatusPresent() }
func StatusErrored(cause error) ThreatStatus { return types.StatusErrored(cause) }

// NewSession validates cfg and returns an idle session.
func NewSession(cfg Config) (*Session, error) { return engine.NewSession(cfg) }

// Check runs one probe synchronously.
func Check(ctx context.Context, d Descriptor, h Handle) (ThreatStatus, error) {
	return engine.Check(ctx, d, h)
}

// CheckAll runs every probe once and returns the folded report.
func CheckAll(ctx context.Context, ds []Descriptor, h Handle) (Report, error) {
	return engine.CheckAll(ctx, ds, h)
}

// DefaultProbes returns the built-in probes for every kind. expectedSignature
// is the hex SHA-256 the signature probe compares against; empty leaves that
// kind NotChecked.
func DefaultProbes(expectedSignature string) []Descriptor {
	return detectors.Defaults(expectedSignature)
}

// NewHost returns the handle the built-in probes expect.
func NewHost(root string) *Host { return detectors.NewHost(root) }

// Periodic runs a probe every d, measured from the end of the previous run.
func Periodic(d time.Duration) Cadence { return probe.Periodic(d) }

// OneShot runs a probe once per session.
func OneShot() Cadence { return probe.OneShot() }

// Kinds returns the names of every threat kind.
func Kinds() []string {
	out := make([]string, 0, len(types.AllKinds()))
	for _, k := range types.AllKinds() {
		out = append(out, k.String())
	}
	return out
}
