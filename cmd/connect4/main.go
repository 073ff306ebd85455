// Command connect4 asks the search engine for moves and plays local
// matches between search, random and human agents.
package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"connect-four-engine/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "connect4",
		Short:         "Connect Four search engine",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupWriter(logLevel, cmd.ErrOrStderr())
			log.Debug().Str("command", cmd.Name()).Msg("starting")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newSuggestCmd(), newPlayCmd())
	return root
}
