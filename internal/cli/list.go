package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"jobrun/internal/config"
	"jobrun/internal/schedule"
	"jobrun/pkg/logx"
)

func newListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured jobs and whether each is due this minute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			man := config.NewManager(*configPath)
			cfg, err := man.Load()
			if err != nil {
				return err
			}
			logs, _ := logx.New(logx.Config{Level: "error", Console: true})
			defer logs.Close()

			jobs, err := cfg.BuildJobs()
			if err != nil {
				return err
			}

			check := schedule.NewChecker()
			now := time.Now()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSCHEDULE\tENABLED\tDUE NOW")
			for _, j := range jobs {
				due, err := check.JobIsDue(j, now)
				dueCol := fmt.Sprintf("%t", due)
				if err != nil {
					dueCol = "invalid schedule"
				}
				fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", j.Name, j.Schedule, j.Enabled, dueCol)
			}
			return w.Flush()
		},
	}
}
