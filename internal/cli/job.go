package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newJobCmd is the single-job worker the batch runner spawns. It is part
// of the dispatch contract rather than an operator command, but running it
// by hand is a supported way to test one job.
func newJobCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "job <name>",
		Short: "Run one job through its full lifecycle (lock, execute, report)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.shutdown()

			j, ok := a.jobs[args[0]]
			if !ok {
				return fmt.Errorf("unknown job %q", args[0])
			}

			ctx := cmd.Context()
			a.start(ctx)
			a.ctrl.Run(ctx, j)
			return nil
		},
	}
}
