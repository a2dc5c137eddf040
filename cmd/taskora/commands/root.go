package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/taskora-ai/taskora/pkg/config"
	"github.com/taskora-ai/taskora/pkg/engine"
)

const cliExecutable = "taskora"

// NewCommand constructs the top-level taskora CLI command, wiring
// global flags and the AppManager lifecycle.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		appManager     *engine.AppManager
		configWatcher  *config.Watcher
		verbosityCount int
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Taskora is a capability-based task orchestration engine",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			factory := &engine.DefaultAppManagerFactory{}

			mgr, err := factory.Create(cmd.Flags(), configFile)
			if err != nil {
				return fmt.Errorf("initialize AppManager: %w", err)
			}
			appManager = mgr
			appManager.Startup()

			// Reload the config live while a command runs.
			if appManager.ConfigManager.ConfigFile() != "" {
				watcher, err := config.NewWatcher(appManager.ConfigManager)
				if err != nil {
					return fmt.Errorf("initialize config watcher: %w", err)
				}
				configWatcher = watcher
				go func() {
					if err := watcher.Start(appManager.Context()); err != nil && !errors.Is(err, context.Canceled) {
						log.Warn().Err(err).Msg("config watcher stopped")
					}
				}()
			}

			ctx := engine.WithAppManager(cmd.Context(), appManager)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if configWatcher != nil {
				_ = configWatcher.Close()
			}
			if appManager != nil {
				appManager.Shutdown()
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewPlanCommand())
	cmd.AddCommand(NewModulesCommand())
	cmd.AddCommand(NewVersionCommand())

	return cmd
}
