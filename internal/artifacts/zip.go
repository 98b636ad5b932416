package artifacts

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/yeka/zip"

	"github.com/redactyl/idscan/internal/decompress"
	"github.com/redactyl/idscan/internal/mediatype"
)

// extractZip unpacks a zip archive, decrypting protected entries with
// password. A zip wrapped in a compression layer is inflated in memory
// first, since the central directory needs random access.
func extractZip(ctx context.Context, path string, enc mediatype.Encoding, dest, password string, b *budget) error {
	var files []*zip.File
	if enc == mediatype.None {
		zr, err := zip.OpenReader(path)
		if err != nil {
			return fmt.Errorf("open zip: %w", err)
		}
		defer zr.Close()
		files = zr.File
	} else {
		raw, _, err := decompress.ReadAll(path, b.limits.MaxArchiveBytes)
		if err != nil {
			return err
		}
		zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
		if err != nil {
			return fmt.Errorf("open zip: %w", err)
		}
		files = zr.File
	}

	for _, f := range files {
		if err := b.next(ctx); err != nil {
			return err
		}
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return err
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o700); err != nil {
				return err
			}
			continue
		}
		if !f.Mode().IsRegular() {
			continue
		}
		if err := extractZipEntry(ctx, b, f, target, password); err != nil {
			return fmt.Errorf("extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractZipEntry(ctx context.Context, b *budget, f *zip.File, target, password string) error {
	if f.IsEncrypted() {
		if password == "" {
			return ErrPasswordRequired
		}
		f.SetPassword(password)
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return writeEntry(ctx, b, target, rc)
}
