package idscan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

// promptPassword is the value a bare -p/--password takes; it asks for the
// password on the terminal.
const promptPassword = "-"

var version = "0.1.0"

// scanFlags holds the raw command-line values. Zero values mean "not given"
// so config files can fill them in.
type scanFlags struct {
	identifiers string
	wordlist    string
	password    string
	recursive   bool
	verbose     bool
	binary      bool
	color       bool
	list        bool
	format      string
	threads     int
	maxBytes    int64
	include     string
	exclude     string
	logLevel    string
	progress    bool

	maxArchiveBytes   int64
	maxEntries        int
	archiveTimeBudget time.Duration
	matchTimeout      time.Duration
}

// rootCmd is the base Cobra command for the idscan CLI.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "idscan [path]",
		Short: "Scan for terms or identifiers in a file, directory, or archive",
		Long: "idscan searches files, directories and tar/zip archives (optionally compressed) " +
			"for identifiers such as emails, domains, IP and MAC addresses, phone numbers, IMEIs " +
			"and words from a wordlist, and prints one report per file with hits.",
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, f, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.identifiers, "identifiers", "i", "", "comma-separated identifiers to search for, or \"all\"")
	fl.StringVarP(&f.wordlist, "wordlist", "w", "", "file with words to search for, one per line")
	fl.StringVarP(&f.password, "password", "p", "", "archive password (bare flag prompts for it)")
	fl.Lookup("password").NoOptDefVal = promptPassword
	fl.BoolVarP(&f.recursive, "recursive", "r", false, "scan a directory recursively")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "show the whole line around each text match")
	fl.BoolVarP(&f.binary, "binary", "b", false, "match raw bytes and report hex offsets")
	fl.BoolVarP(&f.color, "color", "c", false, "highlight matches in verbose output")
	fl.BoolVarP(&f.list, "list", "l", false, "list the supported identifiers and exit")
	fl.StringVar(&f.format, "format", "", "output format: table|json|markdown (default table)")
	fl.IntVar(&f.threads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	fl.Int64Var(&f.maxBytes, "max-bytes", 0, "skip files whose content is larger than this (0 = no limit)")
	fl.StringVar(&f.include, "include", "", "comma-separated include globs")
	fl.StringVar(&f.exclude, "exclude", "", "comma-separated exclude globs")
	fl.StringVar(&f.logLevel, "log-level", "", "log level: debug|info|warn|error (default warn)")
	fl.BoolVar(&f.progress, "progress", false, "show a progress spinner on stderr")
	fl.Int64Var(&f.maxArchiveBytes, "max-archive-bytes", 0, "max extracted bytes per archive")
	fl.IntVar(&f.maxEntries, "max-entries", 0, "max entries per archive")
	fl.DurationVar(&f.archiveTimeBudget, "archive-time-budget", 0, "time budget per archive extraction (e.g. 30s)")
	fl.DurationVar(&f.matchTimeout, "match-timeout", 0, "time budget for one pattern evaluation")

	cmd.AddCommand(newDetectorsCmd(), newCompletionCmd(cmd))
	return cmd
}

// Execute runs the idscan CLI. It should be called by the main package.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}
