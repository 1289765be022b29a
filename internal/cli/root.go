// Package cli defines the jobrun command tree.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "jobrun",
		Short:         "Cron-like job runner with per-job locking and failure notification",
		Long: `jobrun evaluates a set of configured jobs against the current minute,
runs each due job in its own detached process under an exclusive lock,
and reports failures to the configured notification sinks.

Typical crontab entry:

    * * * * * jobrun run --config /etc/jobrun.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "jobrun.yaml",
		"path to the config file (YAML or JSON)")

	root.AddCommand(
		newRunCmd(&configPath),
		newJobCmd(&configPath),
		newDaemonCmd(&configPath),
		newListCmd(&configPath),
	)
	return root
}
