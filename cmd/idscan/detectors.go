package idscan

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/redactyl/idscan/internal/engine"
)

func newDetectorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detectors",
		Short: "List supported identifiers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printIdentifiers(cmd.OutOrStdout())
		},
	}
}

func printIdentifiers(w io.Writer) {
	fmt.Fprintln(w, "Supported Identifiers:")
	for _, id := range engine.DetectorNames() {
		fmt.Fprintln(w, "  "+id)
	}
}
