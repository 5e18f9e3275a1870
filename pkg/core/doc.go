// Package core provides a small, stable facade over devguard's internal
// engine for applications that embed threat detection. It re-exports a
// narrow API surface so hosts can depend on a stable import path without
// importing internal packages.
//
// Example:
//
//	s, err := core.NewSession(core.Config{
//		Probes: core.DefaultProbes(expectedDigest),
//		Handle: core.NewHost("/"),
//	})
//	if err != nil { /* handle */ }
//	_ = s.Start()
//	defer s.Close()
//	for r := range s.Subscribe().C() {
//		_ = core.MarshalReport(os.Stdout, r)
//	}
package core
