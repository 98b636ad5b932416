package idscan

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/redactyl/idscan/internal/artifacts"
	"github.com/redactyl/idscan/internal/config"
	"github.com/redactyl/idscan/internal/detectors"
	"github.com/redactyl/idscan/internal/engine"
	"github.com/redactyl/idscan/internal/logger"
	"github.com/redactyl/idscan/internal/report"
	"github.com/redactyl/idscan/internal/types"
)

// Built-in defaults applied after flags and config files.
const (
	defaultFormat          = "table"
	defaultLogLevel        = "warn"
	defaultMaxArchiveBytes = 512 << 20
	defaultMaxEntries      = 100000
	defaultMatchTimeout    = 30 * time.Second
)

var errNoSelection = errors.New("select identifiers with -i/--identifiers or give a wordlist with -w/--wordlist")

func runScan(cmd *cobra.Command, f scanFlags, args []string) error {
	out := cmd.OutOrStdout()
	if f.list {
		printIdentifiers(out)
		return nil
	}
	if len(args) == 0 || args[0] == "" {
		return errors.New("a file, directory, or archive to scan is required")
	}
	target := args[0]

	// Load configs: CLI > local > global
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	} else if !errors.Is(err, config.ErrNotFound) {
		return err
	}
	if c, err := config.LoadLocal(configDir(target)); err == nil {
		lcfg = c
	} else if !errors.Is(err, config.ErrNotFound) {
		return err
	}

	logger.Init(orDefault(pickString(f.logLevel, lcfg.LogLevel, gcfg.LogLevel), defaultLogLevel))

	format := strings.ToLower(orDefault(pickString(f.format, lcfg.Format, gcfg.Format), defaultFormat))
	switch format {
	case "table", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q (want table, json or markdown)", format)
	}

	reg, err := selectRegistry(
		pickString(f.identifiers, lcfg.Identifiers, gcfg.Identifiers),
		pickString(f.wordlist, lcfg.Wordlist, gcfg.Wordlist),
	)
	if err != nil {
		return err
	}

	password := f.password
	if password == promptPassword {
		if password, err = readPassword(cmd.ErrOrStderr()); err != nil {
			return err
		}
	}

	timeBudget, err := pickDuration(f.archiveTimeBudget, lcfg.ArchiveTimeBudget, gcfg.ArchiveTimeBudget)
	if err != nil {
		return err
	}
	matchTimeout, err := pickDuration(f.matchTimeout, lcfg.MatchTimeout, gcfg.MatchTimeout)
	if err != nil {
		return err
	}

	alphabet := types.Text
	if pickBool(f.binary, lcfg.Binary, gcfg.Binary) {
		alphabet = types.Binary
	}

	cfg := engine.Config{
		Registry:  reg,
		Alphabet:  alphabet,
		Recursive: pickBool(f.recursive, lcfg.Recursive, gcfg.Recursive),
		Verbose:   pickBool(f.verbose, lcfg.Verbose, gcfg.Verbose),
		Markers:   report.Highlighter(pickBool(f.color, lcfg.Color, gcfg.Color)),
		Password:  password,
		Limits: artifacts.Limits{
			MaxArchiveBytes: orDefault(pickInt64(f.maxArchiveBytes, lcfg.MaxArchiveBytes, gcfg.MaxArchiveBytes), defaultMaxArchiveBytes),
			MaxEntries:      orDefault(pickInt(f.maxEntries, lcfg.MaxEntries, gcfg.MaxEntries), defaultMaxEntries),
			TimeBudget:      timeBudget,
		},
		Threads:      pickInt(f.threads, lcfg.Threads, gcfg.Threads),
		MaxBytes:     pickInt64(f.maxBytes, lcfg.MaxBytes, gcfg.MaxBytes),
		IncludeGlobs: pickString(f.include, lcfg.Include, gcfg.Include),
		ExcludeGlobs: pickString(f.exclude, lcfg.Exclude, gcfg.Exclude),
		MatchTimeout: orDefault(matchTimeout, defaultMatchTimeout),
	}

	bar := newSpinner(cmd.ErrOrStderr(), f.progress)
	cfg.Progress = func() { _ = bar.Add(1) }

	// tables stream as files finish; structured formats need the whole set
	streamed := 0
	if format == "table" {
		cfg.Emit = func(rep types.Report) {
			if streamed > 0 {
				fmt.Fprintln(out)
			}
			streamed++
			if err := report.PrintTable(out, rep); err != nil {
				logger.Errorf("render %s: %v", rep.Subject, err)
			}
		}
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return err
	}
	res, err := eng.Scan(cmd.Context(), target)
	_ = bar.Finish()
	if err != nil {
		return err
	}
	logger.Debugf("scanned %d file(s), extracted %d archive(s) in %s", res.FilesScanned, res.ArchivesExtracted, res.Duration)

	opts := report.PrintOptions{Duration: res.Duration, FilesScanned: res.FilesScanned, Skipped: len(res.Notices)}
	switch format {
	case "json":
		return report.WriteJSON(out, res.Reports, opts)
	case "markdown":
		return report.WriteMarkdown(out, res.Reports, opts)
	}
	// the summary goes to stderr so stdout carries only the tables
	return report.PrintFooter(cmd.ErrOrStderr(), res.Reports, opts)
}

// selectRegistry builds the active detector set from an identifier list and
// an optional wordlist file. A wordlist always activates "words".
func selectRegistry(identifiers, wordlist string) (detectors.Registry, error) {
	names := detectors.ParseSelection(identifiers)
	if len(names) == 0 && wordlist == "" {
		return detectors.Registry{}, errNoSelection
	}
	reg := detectors.Default().Select(names)
	if wordlist != "" {
		words, err := detectors.LoadWordlist(wordlist)
		if err != nil {
			return detectors.Registry{}, err
		}
		reg = reg.WithWordlist(words)
	}
	if reg.Len() == 0 {
		return detectors.Registry{}, fmt.Errorf("%w: %q (see idscan --list)", engine.ErrNoDetectors, identifiers)
	}
	return reg, nil
}

// configDir is where a local config file for target is looked up.
func configDir(target string) string {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "."
	}
	if info, err := os.Stat(abs); err == nil && info.IsDir() {
		return abs
	}
	return filepath.Dir(abs)
}

func readPassword(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password prompt needs a terminal; pass --password=PW instead")
	}
	fmt.Fprint(prompt, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func newSpinner(w io.Writer, enabled bool) *progressbar.ProgressBar {
	visible := enabled
	if file, ok := w.(*os.File); ok && visible {
		visible = term.IsTerminal(int(file.Fd()))
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Scanning files"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionFullWidth(),
	)
}
