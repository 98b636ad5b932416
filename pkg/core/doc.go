// Package core provides a small, stable facade over idscan's internal engine
// for external integrations. It re-exports a narrow API surface so other
// tools can depend on a stable import path without importing internal
// packages.
//
// Example:
//
//	cfg := core.Config{Registry: core.Detectors("email", "ipv4_address")}
//	res, err := core.Scan(ctx, cfg, "./exports")
//	if err != nil { /* handle */ }
//	_ = core.MarshalReports(os.Stdout, res.Reports)
package core
