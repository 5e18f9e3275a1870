package types

import (
	"encoding/json"
	"fmt"
	"strings"

	xxhash "github.com/cespare/xxhash/v2"
)

// ThreatKind identifies one of the fixed threats a device can be checked for.
type ThreatKind int

const (
	RootPrivileges ThreatKind = iota
	Hooks
	Emulator
	DevicePasscodeMissing
	HardwareProtectionUnavailable
	AppSignatureMismatch

	kindCount
)

var kindNames = [kindCount]string{
	RootPrivileges:                "root_privileges",
	Hooks:                         "hooks",
	Emulator:                      "emulator",
	DevicePasscodeMissing:         "device_passcode_missing",
	HardwareProtectionUnavailable: "hardware_protection_unavailable",
	AppSignatureMismatch:          "app_signature_mismatch",
}

// AllKinds returns every ThreatKind in declaration order.
func AllKinds() []ThreatKind {
	out := make([]ThreatKind, kindCount)
	for i := range out {
		out[i] = ThreatKind(i)
	}
	return out
}

// Valid reports whether k is one of the declared kinds.
func (k ThreatKind) Valid() bool { return k >= 0 && k < kindCount }

func (k ThreatKind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("ThreatKind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind resolves a kind from its snake_case name. Hyphens are accepted
// in place of underscores and matching is case-insensitive.
func ParseKind(s string) (ThreatKind, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range kindNames {
		if n == name {
			return ThreatKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown threat kind %q", s)
}

// MarshalText implements encoding.TextMarshaler so kinds can key JSON objects.
func (k ThreatKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid threat kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ThreatKind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// State is the tag of a ThreatStatus. Switches over State should stay
// exhaustive; the exhaustive linter flags a missing case.
type State int

const (
	NotChecked State = iota
	NotPresent
	Present
	Errored
)

func (s State) String() string {
	switch s {
	case NotChecked:
		return "not_checked"
	case NotPresent:
		return "not_present"
	case Present:
		return "present"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ThreatStatus is the outcome of one probe for one kind. Cause is set only
// when State is Errored.
type ThreatStatus struct {
	State State
	Cause error
}

// StatusNotChecked is the initial status of every kind.
func StatusNotChecked() ThreatStatus { return ThreatStatus{State: NotChecked} }

// StatusNotPresent means the probe ran and found no threat.
func StatusNotPresent() ThreatStatus { return ThreatStatus{State: NotPresent} }

// StatusPresent means the probe ran and found the threat.
func StatusPresent() ThreatStatus { return ThreatStatus{State: Present} }

// StatusErrored means the probe could not complete. A nil cause is replaced
// with a generic one so Errored always carries a reason.
func StatusErrored(cause error) ThreatStatus {
	if cause == nil {
		cause = fmt.Errorf("unspecified probe failure")
	}
	return ThreatStatus{State: Errored, Cause: cause}
}

// StatusFromBool maps a detection result to Present / NotPresent.
func StatusFromBool(detected bool) ThreatStatus {
	if detected {
		return StatusPresent()
	}
	return StatusNotPresent()
}

// Equal compares tags and, for Errored, the cause messages.
func (s ThreatStatus) Equal(o ThreatStatus) bool {
	if s.State != o.State {
		return false
	}
	if s.State != Errored {
		return true
	}
	return causeText(s.Cause) == causeText(o.Cause)
}

func (s ThreatStatus) String() string {
	if s.State == Errored {
		return "errored(" + causeText(s.Cause) + ")"
	}
	return s.State.String()
}

func causeText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

type statusJSON struct {
	State string `json:"state"`
	Cause string `json:"cause,omitempty"`
}

func (s ThreatStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(statusJSON{State: s.State.String(), Cause: causeText(s.Cause)})
}

// Report is an immutable, versioned snapshot holding exactly one status per
// ThreatKind. The zero value is the initial report: version 0, every kind
// NotChecked.
type Report struct {
	version  uint64
	statuses [kindCount]ThreatStatus
}

// NewReport returns the initial report.
func NewReport() Report { return Report{} }

// Version is the sequence number of the snapshot. Published snapshots carry
// strictly increasing versions.
func (r Report) Version() uint64 { return r.version }

// Get returns the status of k. Unknown kinds read as NotChecked.
func (r Report) Get(k ThreatKind) ThreatStatus {
	if !k.Valid() {
		return StatusNotChecked()
	}
	return r.statuses[k]
}

// With returns a copy of r with k replaced by status and the version
// incremented. r itself is unchanged.
func (r Report) With(k ThreatKind, status ThreatStatus) Report {
	next := r
	if k.Valid() {
		next.statuses[k] = status
	}
	next.version++
	return next
}

// Statuses returns a fresh map of every kind to its status.
func (r Report) Statuses() map[ThreatKind]ThreatStatus {
	out := make(map[ThreatKind]ThreatStatus, kindCount)
	for i, s := range r.statuses {
		out[ThreatKind(i)] = s
	}
	return out
}

// Detected lists kinds currently Present, in declaration order.
func (r Report) Detected() []ThreatKind {
	var out []ThreatKind
	for i, s := range r.statuses {
		if s.State == Present {
			out = append(out, ThreatKind(i))
		}
	}
	return out
}

// SameContent reports whether both snapshots hold equal statuses, ignoring
// the version.
func (r Report) SameContent(o Report) bool {
	for i := range r.statuses {
		if !r.statuses[i].Equal(o.statuses[i]) {
			return false
		}
	}
	return true
}

// Fingerprint hashes the statuses (not the version) so consumers can tell
// whether two snapshots differ in content.
func (r Report) Fingerprint() uint64 {
	d := xxhash.New()
	for i, s := range r.statuses {
		_, _ = d.WriteString(kindNames[i])
		_, _ = d.WriteString("=")
		_, _ = d.WriteString(s.String())
		_, _ = d.WriteString(";")
	}
	return d.Sum64()
}

type reportJSON struct {
	Version  uint64                      `json:"version"`
	Statuses map[ThreatKind]ThreatStatus `json:"statuses"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(reportJSON{Version: r.version, Statuses: r.Statuses()})
}
