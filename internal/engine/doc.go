// Package engine orchestrates threat probes. A Session owns one lane per
// registered probe, folds every result into a versioned Report through a
// single Aggregator, and broadcasts snapshots on a conflating Stream. Check
// and CheckAll are the pull-style entrypoints that run probes without a
// session. This package is internal; embedding hosts should use pkg/core.
package engine
