package engine

import (
	"errors"

	"github.com/redactyl/idscan/internal/artifacts"
	"github.com/redactyl/idscan/internal/detectors"
)

var (
	// ErrInvalidTarget is returned by Scan when the top-level path cannot
	// be resolved. It is the only traversal failure that aborts a scan.
	ErrInvalidTarget = errors.New("invalid scan target")
	// ErrNoDetectors is returned by New for an empty detector set.
	ErrNoDetectors = errors.New("no detectors selected")

	// ErrUnrecognizedPath marks a path that is neither a directory nor a
	// regular file.
	ErrUnrecognizedPath = errors.New("unrecognized path")
	// ErrArchiveExtraction marks a recognised archive that failed to extract.
	ErrArchiveExtraction = artifacts.ErrExtraction
	// ErrUnreadableFile marks content that could not be read or decoded in
	// the active alphabet.
	ErrUnreadableFile = errors.New("file type not supported")
	// ErrMatchTimeout marks a detector that exceeded its match time budget.
	ErrMatchTimeout = detectors.ErrMatchTimeout
)
