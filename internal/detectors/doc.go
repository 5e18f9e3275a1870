// Package detectors implements the default leaf probes for every threat kind.
// Each probe inspects a *Host handle read-only and reports one ThreatStatus;
// faults come back as Errored, never as panics or returned errors.
package detectors
