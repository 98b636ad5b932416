package artifacts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redactyl/idscan/internal/logger"
	"github.com/redactyl/idscan/internal/mediatype"
)

var (
	// ErrExtraction marks a recognised archive that could not be extracted.
	ErrExtraction = errors.New("archive extraction failed")
	// ErrLimit is returned when extraction exceeds a configured limit.
	ErrLimit = errors.New("archive limit exceeded")
	// ErrUnsafePath is returned for entries that would land outside the
	// scratch directory.
	ErrUnsafePath = errors.New("entry escapes extraction root")
	// ErrPasswordRequired is returned for encrypted entries when no
	// password was supplied.
	ErrPasswordRequired = errors.New("archive entry is encrypted and no password was given")
)

// Limits bounds the extraction of a single archive. Zero values disable the
// corresponding check.
type Limits struct {
	MaxArchiveBytes int64
	MaxEntries      int
	TimeBudget      time.Duration
}

// Options configure extraction.
type Options struct {
	// Password decrypts protected zip entries. Tar extraction ignores it.
	Password string
	Limits   Limits
}

// Stats summarises one extraction.
type Stats struct {
	Entries int
	Bytes   int64
}

// ScanDirFunc scans an extracted scratch directory. It must not return
// before every scan it started over dir has finished.
type ScanDirFunc func(ctx context.Context, dir string) error

// TryExtract handles path when its declared media type is tar or zip: the
// archive is extracted into a fresh scratch directory, scan is run over it,
// and the directory is removed on every exit path. It reports false, with no
// side effects, for any other path. Extraction failures are returned wrapped
// in ErrExtraction together with true.
func TryExtract(ctx context.Context, path string, opts Options, scan ScanDirFunc) (bool, error) {
	decl := mediatype.Guess(path)
	if !decl.IsArchive() {
		return false, nil
	}
	scratch, err := os.MkdirTemp("", "idscan-")
	if err != nil {
		return true, fmt.Errorf("%w: %s: create scratch dir: %v", ErrExtraction, path, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warnf("remove scratch dir %s: %v", scratch, err)
		}
	}()

	st, err := Extract(ctx, path, decl, scratch, opts)
	if err != nil {
		return true, fmt.Errorf("%w: %s: %w", ErrExtraction, path, err)
	}
	logger.Debugf("extracted %d entries (%d bytes) from %s", st.Entries, st.Bytes, path)
	return true, scan(ctx, scratch)
}

// Extract writes every entry of the archive at path into dest.
func Extract(ctx context.Context, path string, decl mediatype.Declared, dest string, opts Options) (Stats, error) {
	b := newBudget(opts.Limits)
	var err error
	switch decl.Type {
	case mediatype.Tar:
		err = extractTar(ctx, path, dest, b)
	case mediatype.Zip:
		err = extractZip(ctx, path, decl.Encoding, dest, opts.Password, b)
	default:
		err = fmt.Errorf("not an archive: %q", decl.Type)
	}
	return Stats{Entries: b.entries, Bytes: b.bytes}, err
}

// budget tracks per-archive limits across entries.
type budget struct {
	limits   Limits
	deadline time.Time
	bytes    int64
	entries  int
}

func newBudget(l Limits) *budget {
	b := &budget{limits: l}
	if l.TimeBudget > 0 {
		b.deadline = time.Now().Add(l.TimeBudget)
	}
	return b
}

func (b *budget) expired() bool {
	return !b.deadline.IsZero() && time.Now().After(b.deadline)
}

// next is called before each entry.
func (b *budget) next(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.limits.MaxEntries > 0 && b.entries >= b.limits.MaxEntries {
		return fmt.Errorf("%w: more than %d entries", ErrLimit, b.limits.MaxEntries)
	}
	if b.expired() {
		return fmt.Errorf("%w: time budget %s", ErrLimit, b.limits.TimeBudget)
	}
	b.entries++
	return nil
}

// copy moves src into dst in chunks, enforcing the byte and time budgets.
func (b *budget) copy(ctx context.Context, dst io.Writer, src io.Reader) error {
	const chunk = 32 * 1024
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if b.expired() {
			return fmt.Errorf("%w: time budget %s", ErrLimit, b.limits.TimeBudget)
		}
		sz := int64(chunk)
		if b.limits.MaxArchiveBytes > 0 {
			remain := b.limits.MaxArchiveBytes - b.bytes
			if remain < sz {
				// one extra byte distinguishes "exactly at limit" from "over"
				sz = remain + 1
			}
		}
		n, err := io.CopyN(dst, src, sz)
		b.bytes += n
		if b.limits.MaxArchiveBytes > 0 && b.bytes > b.limits.MaxArchiveBytes {
			return fmt.Errorf("%w: more than %d bytes", ErrLimit, b.limits.MaxArchiveBytes)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// safeJoin resolves an entry name under root, refusing names that escape it.
func safeJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.FromSlash(name))
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func writeEntry(ctx context.Context, b *budget, target string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := b.copy(ctx, f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
