package cli

import (
	"github.com/spf13/cobra"

	"jobrun/internal/config"
	"jobrun/internal/runner"
	"jobrun/pkg/logx"
)

// newRunCmd is the crontab entry point: one batch evaluation, dispatching
// each due job as a detached child, then exit without waiting.
func newRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Evaluate all jobs once and dispatch the due ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			man := config.NewManager(*configPath)
			cfg, err := man.Load()
			if err != nil {
				return err
			}
			logs, log := logx.New(cfg.Logx())
			defer logs.Close()

			jobs, err := cfg.BuildJobs()
			if err != nil {
				return err
			}

			r := runner.New(log, *configPath)
			n := r.RunBatch(cmd.Context(), jobs)
			log.Info("batch finished", logx.Int("due", n), logx.Int("jobs", len(jobs)))
			return nil
		},
	}
}
