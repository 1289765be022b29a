package cli

import (
	"github.com/spf13/cobra"

	"jobrun/internal/config"
	"jobrun/internal/runner"
	"jobrun/pkg/logx"
)

// newDaemonCmd runs batch evaluations at every minute boundary without an
// external cron, reloading the config file on change.
func newDaemonCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run batch evaluations continuously at minute boundaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.shutdown()

			ctx := cmd.Context()
			a.start(ctx)

			r := runner.New(a.log, *configPath)
			d := runner.NewDaemon(a.log, a.man, r,
				runner.WithReloadHook(func(cfg *config.Config) {
					a.logs.Apply(cfg.Logx())
					if a.notif != nil && cfg.Notify != nil {
						ncfg, err := notifyConfig(cfg.Notify)
						if err != nil {
							a.log.Error("notify config rejected", logx.Err(err))
							return
						}
						a.notif.Apply(ncfg)
					}
				}))
			return d.Run(ctx)
		},
	}
}
