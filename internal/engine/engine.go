package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/redactyl/idscan/internal/artifacts"
	"github.com/redactyl/idscan/internal/detectors"
	"github.com/redactyl/idscan/internal/ignore"
	"github.com/redactyl/idscan/internal/logger"
	"github.com/redactyl/idscan/internal/types"
)

// Config controls scanning behavior including scope, performance, and filters.
type Config struct {
	// Registry is the active detector set, already narrowed by selection
	// and extended with any wordlist.
	Registry detectors.Registry
	Alphabet types.Alphabet

	Recursive bool
	Verbose   bool
	Markers   types.Markers

	// Password decrypts protected zip entries.
	Password string
	Limits   artifacts.Limits

	Threads      int
	MaxBytes     int64
	IncludeGlobs string
	ExcludeGlobs string
	MatchTimeout time.Duration

	// Progress is called once per scanned file.
	Progress func()
	// Emit receives each report as soon as its file is done. Calls are
	// serialised.
	Emit func(types.Report)
}

// Notice is a contained, non-fatal failure on one path.
type Notice struct {
	Path string
	Err  error
}

func (n Notice) Error() string { return n.Path + ": " + n.Err.Error() }
func (n Notice) Unwrap() error { return n.Err }

// Result contains reports, notices and basic scan statistics.
type Result struct {
	Reports           []types.Report
	Notices           []Notice
	FilesScanned      int
	ArchivesExtracted int
	Duration          time.Duration
}

// Engine runs scans with one compiled detector set. It is safe to call Scan
// from several goroutines.
type Engine struct {
	cfg       Config
	detectors []*detectors.Detector
	globs     globFilter
}

// New compiles the active detector set for the configured alphabet.
func New(cfg Config) (*Engine, error) {
	if cfg.Registry.Len() == 0 {
		return nil, ErrNoDetectors
	}
	ds, err := cfg.Registry.Compile(cfg.Alphabet, detectors.CompileOptions{MatchTimeout: cfg.MatchTimeout})
	if err != nil {
		return nil, fmt.Errorf("failed to compile detectors: %w", err)
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.GOMAXPROCS(0)
	}
	if cfg.Markers == (types.Markers{}) {
		cfg.Markers = types.DefaultMarkers
	}
	return &Engine{
		cfg:       cfg,
		detectors: ds,
		globs:     newGlobFilter(cfg.IncludeGlobs, cfg.ExcludeGlobs),
	}, nil
}

// DetectorNames lists the built-in identifier vocabulary.
func DetectorNames() []string {
	return detectors.Default().Names()
}

// Scan classifies path once and scans it as a directory, an archive or a
// file. Only an unresolvable path or cancellation is returned as an error;
// every other failure is recorded in Result.Notices.
func (e *Engine) Scan(ctx context.Context, path string) (Result, error) {
	started := time.Now()
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidTarget, err)
	}

	r := &run{e: e}
	r.g.SetLimit(e.cfg.Threads)
	var wg sync.WaitGroup
	switch {
	case info.IsDir():
		ign, err := ignore.Load(filepath.Join(path, ignore.FileName))
		if err != nil {
			r.notice(filepath.Join(path, ignore.FileName), fmt.Errorf("%w: %w", ErrUnreadableFile, err))
		}
		r.scanDirectory(ctx, &wg, path, "", scope{root: path, ignore: ign}, e.cfg.Recursive)
	case info.Mode().IsRegular():
		r.dispatch(ctx, &wg, path, path, false)
	default:
		r.notice(path, fmt.Errorf("%w: %s", ErrUnrecognizedPath, info.Mode().Type()))
	}
	_ = r.g.Wait()

	res := r.res
	types.SortReports(res.Reports)
	sort.SliceStable(res.Notices, func(i, j int) bool { return res.Notices[i].Path < res.Notices[j].Path })
	res.Duration = time.Since(started)
	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// run is the state of one Scan call.
type run struct {
	e  *Engine
	g  errgroup.Group
	mu sync.Mutex

	res Result
}

func (r *run) notice(path string, err error) {
	logger.Warnf("skipped %s: %v", path, err)
	r.mu.Lock()
	r.res.Notices = append(r.res.Notices, Notice{Path: path, Err: err})
	r.mu.Unlock()
}

func (r *run) scanned() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.FilesScanned++
	if r.e.cfg.Progress != nil {
		r.e.cfg.Progress()
	}
}

func (r *run) extracted() {
	r.mu.Lock()
	r.res.ArchivesExtracted++
	r.mu.Unlock()
}

func (r *run) emit(rep types.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.res.Reports = append(r.res.Reports, rep)
	if r.e.cfg.Emit != nil {
		r.e.cfg.Emit(rep)
	}
}
