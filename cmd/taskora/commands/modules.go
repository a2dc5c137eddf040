package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskora-ai/taskora/pkg/engine"
	"github.com/taskora-ai/taskora/pkg/modules"
	"github.com/taskora-ai/taskora/pkg/output"
)

// NewModulesCommand builds the `taskora modules` command group.
func NewModulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "Inspect the module registry",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered modules and their capabilities",
		RunE: func(cmd *cobra.Command, args []string) error {
			appManager, ok := engine.AppManagerFromContext(cmd.Context())
			if !ok {
				return errors.New("application manager not initialized")
			}

			modules.RegisterDefaults(appManager.Registry, appManager.ConfigManager.Get())
			fmt.Fprint(os.Stdout, output.RenderModuleList(appManager.Registry.List()))
			return nil
		},
	})

	return cmd
}
