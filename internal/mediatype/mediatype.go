// Package mediatype guesses the declared media type and compression of a
// file from its name alone. File contents are never read.
package mediatype

import (
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// Encoding names a compression scheme applied on top of the media type.
type Encoding string

const (
	None  Encoding = ""
	Gzip  Encoding = "gzip"
	Bzip2 Encoding = "bzip2"
	XZ    Encoding = "xz"
	LZMA  Encoding = "lzma"
)

// Archive media types recognised by the extractor.
const (
	Tar = "application/x-tar"
	Zip = "application/zip"
)

// Declared is what a filename claims about its content.
type Declared struct {
	Type     string
	Encoding Encoding
}

// IsArchive reports whether the declared type is a tar or zip container.
func (d Declared) IsArchive() bool {
	return d.Type == Tar || d.Type == Zip
}

// single-suffix spellings of compressed tarballs
var suffixAliases = map[string]string{
	".tgz":  ".tar.gz",
	".taz":  ".tar.gz",
	".tz":   ".tar.gz",
	".tbz2": ".tar.bz2",
	".tbz":  ".tar.bz2",
	".txz":  ".tar.xz",
}

var encodings = map[string]Encoding{
	".gz":   Gzip,
	".bz2":  Bzip2,
	".xz":   XZ,
	".lzma": LZMA,
}

// Guess resolves the declared media type and encoding of path. The trailing
// compression suffix, if any, becomes the encoding and the extension before
// it determines the type. Unknown extensions yield an empty type.
func Guess(path string) Declared {
	name := strings.ToLower(filepath.Base(path))
	ext := filepath.Ext(name)
	if alias, ok := suffixAliases[ext]; ok {
		name = strings.TrimSuffix(name, ext) + alias
		ext = filepath.Ext(name)
	}
	var d Declared
	if enc, ok := encodings[ext]; ok {
		d.Encoding = enc
		name = strings.TrimSuffix(name, ext)
		ext = filepath.Ext(name)
	}
	d.Type = typeByExtension(ext)
	return d
}

func typeByExtension(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return ""
	}
	kind := filetype.GetType(ext)
	if kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}
