package core_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/devguard/devguard/pkg/core"
)

// ExampleCheckAll runs a fixed set of probes once and prints the report.
func ExampleCheckAll() {
	rooted := func(context.Context, core.Handle) core.ThreatStatus { return core.StatusPresent() }
	clean := func(context.Context, core.Handle) core.ThreatStatus { return core.StatusNotPresent() }

	r, err := core.CheckAll(context.Background(), []core.Descriptor{
		{Kind: core.RootPrivileges, Check: rooted},
		{Kind: core.Hooks, Check: clean},
	}, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "check failed: %v\n", err)
		return
	}
	fmt.Println(r.Get(core.RootPrivileges), r.Get(core.Hooks), r.Get(core.Emulator))
	// Output: present not_present not_checked
}

// ExampleNewSession watches a session until the first probe result lands.
func ExampleNewSession() {
	s, err := core.NewSession(core.Config{
		Probes: []core.Descriptor{{
			Kind:    core.Emulator,
			Cadence: core.OneShot(),
			Timeout: time.Second,
			Check:   func(context.Context, core.Handle) core.ThreatStatus { return core.StatusNotPresent() },
		}},
	})
	if err != nil {
		panic(err)
	}
	sub := s.Subscribe()
	_ = s.Start()
	defer func() { _ = s.Close() }()

	for r := range sub.C() {
		if r.Version() == 0 {
			continue
		}
		fmt.Println(r.Version(), r.Get(core.Emulator))
		break
	}
	// Output: 1 not_present
}
