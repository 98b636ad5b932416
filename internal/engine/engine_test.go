package engine

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeka/zip"

	"github.com/redactyl/idscan/internal/detectors"
	"github.com/redactyl/idscan/internal/types"
)

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	e, err := New(cfg)
	require.NoError(t, err)
	return e
}

func selectDetectors(names ...string) detectors.Registry {
	return detectors.Default().Select(names)
}

func subjects(res Result) []string {
	var out []string
	for _, r := range res.Reports {
		out = append(out, r.Subject)
	}
	return out
}

func TestNew_NoDetectors(t *testing.T) {
	_, err := New(Config{Registry: selectDetectors("nope")})
	assert.ErrorIs(t, err, ErrNoDetectors)
}

func TestScan_EmailOnFirstLine(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "contacts.txt")
	mustWrite(t, p, "alice@example.com wrote\nnothing here\n")

	res, err := newEngine(t, Config{Registry: selectDetectors(detectors.Email)}).Scan(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Reports, 1)
	rep := res.Reports[0]
	assert.Equal(t, p, rep.Subject)
	require.Len(t, rep.Matches, 1)
	m := rep.Matches[0]
	assert.Equal(t, detectors.Email, m.Detector)
	assert.Equal(t, "1", m.Locator())
	assert.Equal(t, "alice@example.com", m.Excerpt)
	assert.Equal(t, 1, res.FilesScanned)
}

func TestScan_EncryptedZip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "secret.zip")
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Encrypt("secret.txt", "pw", zip.AES256Encryption)
	require.NoError(t, err)
	_, err = w.Write([]byte("192.168.1.1"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	e := newEngine(t, Config{Registry: selectDetectors(detectors.IPv4Address), Password: "pw"})
	res, err := e.Scan(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, p+"::secret.txt", res.Reports[0].Subject)
	require.Len(t, res.Reports[0].Matches, 1)
	assert.Equal(t, "192.168.1.1", res.Reports[0].Matches[0].Excerpt)
	assert.Equal(t, 1, res.Reports[0].Matches[0].Line)
	assert.Equal(t, 1, res.ArchivesExtracted)

	// without the password the archive is still handled, with a notice
	res, err = newEngine(t, Config{Registry: selectDetectors(detectors.IPv4Address)}).Scan(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, res.Reports)
	require.Len(t, res.Notices, 1)
	assert.ErrorIs(t, res.Notices[0], ErrArchiveExtraction)
}

func TestScan_Wordlist(t *testing.T) {
	dir := t.TempDir()
	wl := filepath.Join(dir, "words.txt")
	mustWrite(t, wl, "confidential\ntopsecret\n")
	target := filepath.Join(dir, "memo.txt")
	mustWrite(t, target, "hello\nThis is CONFIDENTIAL.\n")

	words, err := detectors.LoadWordlist(wl)
	require.NoError(t, err)
	reg := detectors.Default().Select(nil).WithWordlist(words)

	res, err := newEngine(t, Config{Registry: reg}).Scan(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, res.Reports, 1)
	require.Len(t, res.Reports[0].Matches, 1)
	m := res.Reports[0].Matches[0]
	assert.Equal(t, detectors.Words, m.Detector)
	assert.Equal(t, 2, m.Line)
	assert.Equal(t, "CONFIDENTIAL", m.Excerpt)
}

func TestScan_RecursiveBoundary(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "a@example.com")
	mustWrite(t, filepath.Join(dir, "sub", "b.txt"), "b@example.com")
	mustWrite(t, filepath.Join(dir, "sub", "deeper", "c.txt"), "c@example.com")
	reg := selectDetectors(detectors.Email)

	res, err := newEngine(t, Config{Registry: reg}).Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt")}, subjects(res))

	res, err = newEngine(t, Config{Registry: reg, Recursive: true}).Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "sub", "b.txt"),
		filepath.Join(dir, "sub", "deeper", "c.txt"),
	}, subjects(res))
	assert.Equal(t, 3, res.FilesScanned)
}

func TestScan_BinaryOffsets(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(p, []byte("\x00\xffjohn@example.com\x00"), 0o644))

	res, err := newEngine(t, Config{Registry: selectDetectors(detectors.Email), Alphabet: types.Binary}).Scan(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Reports, 1)
	m := res.Reports[0].Matches[0]
	assert.Equal(t, types.Binary, m.Alphabet)
	assert.Equal(t, int64(2), m.Offset)
	assert.Equal(t, "0x2", m.Locator())
	assert.Equal(t, "john@example.com", m.Excerpt)
}

func TestScan_TextRejectsInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(p, []byte("\xff\xfejohn@example.com"), 0o644))

	res, err := newEngine(t, Config{Registry: selectDetectors(detectors.Email)}).Scan(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, res.Reports)
	require.Len(t, res.Notices, 1)
	assert.ErrorIs(t, res.Notices[0], ErrUnreadableFile)
}

func TestScan_VerboseExcerpt(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "v.txt")
	mustWrite(t, p, "first\r\nmail alice@example.com now\r\n")

	e := newEngine(t, Config{Registry: selectDetectors(detectors.Email), Verbose: true})
	res, err := e.Scan(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, "mail >>>alice@example.com<<< now", res.Reports[0].Matches[0].Excerpt)

	e = newEngine(t, Config{Registry: selectDetectors(detectors.Email), Verbose: true, Markers: types.Markers{Start: "[", End: "]"}})
	res, err = e.Scan(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "mail [alice@example.com] now", res.Reports[0].Matches[0].Excerpt)
}

func TestScan_CompressedFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "notes.txt.gz")
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, err := gw.Write([]byte("header\nreach me at bob@example.org\n"))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))

	res, err := newEngine(t, Config{Registry: selectDetectors(detectors.Email)}).Scan(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Reports, 1)
	assert.Equal(t, 2, res.Reports[0].Matches[0].Line)
	assert.Equal(t, "bob@example.org", res.Reports[0].Matches[0].Excerpt)
}

func TestScan_InvalidTarget(t *testing.T) {
	e := newEngine(t, Config{Registry: selectDetectors(detectors.Email)})
	_, err := e.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, ErrInvalidTarget)
}

func TestScan_CorruptArchiveDoesNotStopSiblings(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.zip"), "PK definitely not a zip")
	mustWrite(t, filepath.Join(dir, "b.txt"), "b@example.com")

	res, err := newEngine(t, Config{Registry: selectDetectors(detectors.Email)}).Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.txt")}, subjects(res))
	require.Len(t, res.Notices, 1)
	assert.Equal(t, filepath.Join(dir, "a.zip"), res.Notices[0].Path)
	assert.ErrorIs(t, res.Notices[0], ErrArchiveExtraction)
}

func TestScan_Globs(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "a@example.com")
	mustWrite(t, filepath.Join(dir, "b.log"), "b@example.com")
	mustWrite(t, filepath.Join(dir, "sub", "c.log"), "c@example.com")
	reg := selectDetectors(detectors.Email)

	res, err := newEngine(t, Config{Registry: reg, Recursive: true, IncludeGlobs: "**/*.log"}).Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.log"), filepath.Join(dir, "sub", "c.log")}, subjects(res))

	res, err = newEngine(t, Config{Registry: reg, Recursive: true, ExcludeGlobs: "sub/**"}).Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.log")}, subjects(res))
}

func TestScan_MaxBytes(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "big.txt")
	mustWrite(t, p, "a@example.com and then some more text")

	res, err := newEngine(t, Config{Registry: selectDetectors(detectors.Email), MaxBytes: 8}).Scan(context.Background(), p)
	require.NoError(t, err)
	assert.Empty(t, res.Reports)
	require.Len(t, res.Notices, 1)
	assert.ErrorIs(t, res.Notices[0], ErrUnreadableFile)
}

func TestScan_EmitProgressAndIdempotence(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"a", "b", "c", "d"} {
		mustWrite(t, filepath.Join(dir, n+".txt"), n+"@example.com\n"+n+"2@example.com")
	}
	mustWrite(t, filepath.Join(dir, "empty.txt"), "nothing")

	var mu sync.Mutex
	var emitted []string
	progress := 0
	cfg := Config{
		Registry: selectDetectors(detectors.Email),
		Threads:  3,
		Emit: func(r types.Report) {
			mu.Lock()
			emitted = append(emitted, r.Subject)
			mu.Unlock()
		},
		Progress: func() { progress++ },
	}
	e := newEngine(t, cfg)
	first, err := e.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, first.Reports, 4)
	assert.Len(t, emitted, 4)
	assert.Equal(t, 5, progress)

	second, err := e.Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, first.Reports, second.Reports)
}

func TestScan_MatchesSortedByLine(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "mixed.txt")
	mustWrite(t, p, "10.0.0.1\nops@example.com\n00:1A:2b:3C:4d:5E\nlast 172.16.0.9")

	reg := selectDetectors(detectors.Email, detectors.IPv4Address, detectors.MACAddress)
	res, err := newEngine(t, Config{Registry: reg}).Scan(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Reports, 1)
	var lines []int
	for _, m := range res.Reports[0].Matches {
		lines = append(lines, m.Line)
		assert.Equal(t, types.Text, m.Alphabet)
	}
	assert.Equal(t, []int{1, 2, 3, 4}, lines)
}

func TestScan_Cancelled(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "a.txt"), "a@example.com")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := newEngine(t, Config{Registry: selectDetectors(detectors.Email)}).Scan(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Reports)
}

func TestMatch_UnterminatedLastLine(t *testing.T) {
	e := newEngine(t, Config{Registry: selectDetectors(detectors.Email)})
	ms, err := e.Match([]byte("a\nb\nx@example.io"))
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, 3, ms[0].Line)
}

func TestScan_IgnoreFile(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, ".idscanignore"), "vendor/\n*.bak\n")
	mustWrite(t, filepath.Join(dir, "keep.txt"), "k@example.com")
	mustWrite(t, filepath.Join(dir, "old.bak"), "o@example.com")
	mustWrite(t, filepath.Join(dir, "vendor", "lib", "x.txt"), "v@example.com")

	res, err := newEngine(t, Config{Registry: selectDetectors(detectors.Email), Recursive: true}).Scan(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "keep.txt")}, subjects(res))
}

func writeTar(t *testing.T, path string, gz bool, name, content string) {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}))
	_, err := tw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	data := buf.Bytes()
	if gz {
		var zbuf bytes.Buffer
		zw := gzip.NewWriter(&zbuf)
		_, err := zw.Write(data)
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		data = zbuf.Bytes()
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writeZip(t *testing.T, path, name, content string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestScan_ArchiveMembersMatchPlainFile(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "user%d@example.com logged in from 10.0.%d.1\n", i, i)
		if i%5 == 0 {
			sb.WriteString("nic 00:1a:2b:3c:4d:5e on host example.org\n")
		}
	}
	content := sb.String()

	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "plain.txt"), content)
	writeTar(t, filepath.Join(dir, "x.tar"), false, "inner/data.txt", content)
	writeTar(t, filepath.Join(dir, "x.tgz"), true, "inner/data.txt", content)
	writeZip(t, filepath.Join(dir, "x.zip"), "inner/data.txt", content)

	for _, threads := range []int{1, 8} {
		t.Run(fmt.Sprintf("threads=%d", threads), func(t *testing.T) {
			e := newEngine(t, Config{Registry: selectDetectors(detectors.All), Threads: threads})
			res, err := e.Scan(context.Background(), dir)
			require.NoError(t, err)
			assert.Empty(t, res.Notices)
			assert.Equal(t, 3, res.ArchivesExtracted)

			bySubject := map[string][]types.Match{}
			for _, rep := range res.Reports {
				bySubject[rep.Subject] = rep.Matches
			}
			want := bySubject[filepath.Join(dir, "plain.txt")]
			require.NotEmpty(t, want)
			for _, archive := range []string{"x.tar", "x.tgz", "x.zip"} {
				subject := types.BuildVirtualPath(filepath.Join(dir, archive), "inner/data.txt")
				assert.Equal(t, want, bySubject[subject], subject)
			}
			assert.Len(t, res.Reports, 4)
		})
	}
}
