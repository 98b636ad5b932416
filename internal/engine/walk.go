package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/redactyl/idscan/internal/artifacts"
	"github.com/redactyl/idscan/internal/decompress"
	"github.com/redactyl/idscan/internal/ignore"
	"github.com/redactyl/idscan/internal/logger"
	"github.com/redactyl/idscan/internal/types"
)

// scope names the subjects found under one traversal root: either a
// directory on disk or the scratch directory of an archive.
type scope struct {
	root    string
	archive string
	ignore  ignore.Matcher
}

func (s scope) subject(rel string) string {
	if s.archive != "" {
		return types.BuildVirtualPath(s.archive, filepath.ToSlash(rel))
	}
	return filepath.Join(s.root, rel)
}

func (s scope) nested() bool { return s.archive != "" }

// scanDirectory visits the immediate children of dir in name order,
// descending into subdirectories only when recursive is set.
func (r *run) scanDirectory(ctx context.Context, wg *sync.WaitGroup, dir, rel string, sc scope, recursive bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.notice(sc.subject(rel), fmt.Errorf("%w: %w", ErrUnreadableFile, err))
		return
	}
	for _, ent := range entries {
		if ctx.Err() != nil {
			return
		}
		child := filepath.Join(dir, ent.Name())
		childRel := filepath.Join(rel, ent.Name())
		info, err := os.Stat(child)
		if err != nil {
			r.notice(sc.subject(childRel), fmt.Errorf("%w: %w", ErrUnrecognizedPath, err))
			continue
		}
		switch {
		case info.IsDir():
			if !recursive {
				continue
			}
			if sc.ignore.MatchDir(childRel) {
				continue
			}
			if ent.Type()&fs.ModeSymlink != 0 {
				logger.Debugf("not following directory symlink %s", child)
				continue
			}
			r.scanDirectory(ctx, wg, child, childRel, sc, recursive)
		case info.Mode().IsRegular():
			if !r.e.globs.allowed(childRel) || sc.ignore.Match(childRel) {
				continue
			}
			r.dispatch(ctx, wg, child, sc.subject(childRel), sc.nested())
		default:
			r.notice(sc.subject(childRel), fmt.Errorf("%w: %s", ErrUnrecognizedPath, info.Mode().Type()))
		}
	}
}

// dispatch tries path as an archive and falls back to a file scan. Inside
// a scratch directory archives are plain files.
func (r *run) dispatch(ctx context.Context, wg *sync.WaitGroup, path, subject string, nested bool) {
	if ctx.Err() != nil {
		return
	}
	if !nested {
		opts := artifacts.Options{Password: r.e.cfg.Password, Limits: r.e.cfg.Limits}
		handled, err := artifacts.TryExtract(ctx, path, opts, func(ctx context.Context, dir string) error {
			// the scratch dir is removed when this returns, so wait for
			// every scan submitted over it
			var inner sync.WaitGroup
			r.scanDirectory(ctx, &inner, dir, "", scope{archive: subject}, true)
			inner.Wait()
			return ctx.Err()
		})
		if handled {
			switch {
			case err == nil:
				r.extracted()
			case ctx.Err() == nil:
				r.notice(subject, err)
			}
			return
		}
	}
	wg.Add(1)
	r.g.Go(func() error {
		defer wg.Done()
		if ctx.Err() != nil {
			return nil
		}
		r.scanFile(path, subject)
		return nil
	})
}

// scanFile reads path through its decompression filter and matches the
// content. A report is emitted only when there is at least one hit.
func (r *run) scanFile(path, subject string) {
	logger.Debugf("scanning %s", subject)
	data, _, err := decompress.ReadAll(path, r.e.cfg.MaxBytes)
	if err != nil {
		r.notice(subject, fmt.Errorf("%w: %w", ErrUnreadableFile, err))
		return
	}
	matches, err := r.e.Match(data)
	r.scanned()
	if err != nil {
		r.notice(subject, err)
		return
	}
	if len(matches) == 0 {
		return
	}
	r.emit(types.Report{Subject: subject, Alphabet: r.e.cfg.Alphabet, Matches: matches})
}
