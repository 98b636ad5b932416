package core

import (
	"context"

	"github.com/redactyl/idscan/internal/detectors"
	"github.com/redactyl/idscan/internal/engine"
	"github.com/redactyl/idscan/internal/types"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
type (
	Config   = engine.Config
	Result   = engine.Result
	Notice   = engine.Notice
	Report   = types.Report
	Match    = types.Match
	Registry = detectors.Registry
)

// Alphabets for Config.Alphabet.
const (
	Text   = types.Text
	Binary = types.Binary
)

// Scan compiles cfg and scans one file, directory or archive.
func Scan(ctx context.Context, cfg Config, path string) (Result, error) {
	e, err := engine.New(cfg)
	if err != nil {
		return Result{}, err
	}
	return e.Scan(ctx, path)
}

// Detectors returns the built-in registry narrowed to names; "all" keeps
// every identifier.
func Detectors(names ...string) Registry {
	return detectors.Default().Select(names)
}

// LoadWordlist reads whitespace-separated words for Registry.WithWordlist.
func LoadWordlist(path string) ([]string, error) { return detectors.LoadWordlist(path) }

// DetectorIDs returns the built-in identifier names.
func DetectorIDs() []string { return engine.DetectorNames() }
