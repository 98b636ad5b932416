package artifacts

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/redactyl/idscan/internal/decompress"
	"github.com/redactyl/idscan/internal/logger"
)

// extractTar unpacks a (possibly compressed) tarball. Only directories and
// regular files are materialised; links and special files are skipped.
func extractTar(ctx context.Context, path, dest string, b *budget) error {
	rc, _, err := decompress.Open(path)
	if err != nil {
		return err
	}
	defer rc.Close()

	tr := tar.NewReader(rc)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}
		if err := b.next(ctx); err != nil {
			return err
		}
		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o700); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeEntry(ctx, b, target, tr); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		default:
			logger.Debugf("skipping tar entry %s (type %q)", hdr.Name, hdr.Typeflag)
		}
	}
}
