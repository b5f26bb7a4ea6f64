package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "logctl",
		Short:         "Admin log console: search, diff and export platform logs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api", "", "API base URL (default $LOGCTL_API_URL)")
	root.PersistentFlags().StringVar(&a.stateFile, "state", "", "state file (default $LOGCTL_STATE_FILE)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (default $LOGCTL_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.lang, "lang", "", "store a preferred response language")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newParseCmd(a),
		newSearchCmd(a),
		newRelatedCmd(a),
		newExportCmd(a),
		newDiffCmd(a),
		newTreeCmd(a),
		newColumnsCmd(a),
		newUnreadCmd(a),
		newBadgeCmd(a),
		newIngestCmd(a),
		newShipCmd(a),
	)
	return root
}
