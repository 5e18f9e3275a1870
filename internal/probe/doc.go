// Package probe defines the contract between the orchestration engine and
// the leaf detection functions. A probe checks one ThreatKind against an
// opaque platform handle and always returns a status; faults are reported as
// Errored, never raised.
package probe
