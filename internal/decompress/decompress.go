// Package decompress opens files through the decompression filter their
// name declares (gzip, bzip2, xz, lzma) or passes raw bytes through.
package decompress

import (
	"bufio"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"

	"github.com/redactyl/idscan/internal/mediatype"
)

// ErrTooLarge is returned by ReadAll when content exceeds its limit.
var ErrTooLarge = errors.New("content exceeds size limit")

// stream closes its filter (when it has one) and then the underlying file.
type stream struct {
	io.Reader
	closers []io.Closer
}

func (s *stream) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open returns a reader over the decompressed content of path along with
// what its name declares.
func Open(path string) (io.ReadCloser, mediatype.Declared, error) {
	decl := mediatype.Guess(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, decl, err
	}
	rc, err := Wrap(f, decl.Encoding)
	if err != nil {
		_ = f.Close()
		return nil, decl, fmt.Errorf("%s: %w", path, err)
	}
	return rc, decl, nil
}

// Wrap layers the decompression filter for enc over r. Closing the result
// closes r.
func Wrap(r io.ReadCloser, enc mediatype.Encoding) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	switch enc {
	case mediatype.None:
		return &stream{Reader: br, closers: []io.Closer{r}}, nil
	case mediatype.Gzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return &stream{Reader: zr, closers: []io.Closer{zr, r}}, nil
	case mediatype.Bzip2:
		return &stream{Reader: bzip2.NewReader(br), closers: []io.Closer{r}}, nil
	case mediatype.XZ:
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open xz stream: %w", err)
		}
		return &stream{Reader: xr, closers: []io.Closer{r}}, nil
	case mediatype.LZMA:
		lr, err := lzma.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open lzma stream: %w", err)
		}
		return &stream{Reader: lr, closers: []io.Closer{r}}, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}

// ReadAll reads the whole decompressed content of path. A positive limit
// caps the decompressed size; exceeding it returns ErrTooLarge.
func ReadAll(path string, limit int64) ([]byte, mediatype.Declared, error) {
	rc, decl, err := Open(path)
	if err != nil {
		return nil, decl, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, decl, fmt.Errorf("read %s: %w", path, err)
	}
	if limit > 0 && int64(len(b)) > limit {
		return nil, decl, fmt.Errorf("%s: %w", path, ErrTooLarge)
	}
	return b, decl, nil
}
