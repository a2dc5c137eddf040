package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/taskora-ai/taskora/pkg/analyze"
	"github.com/taskora-ai/taskora/pkg/engine"
	"github.com/taskora-ai/taskora/pkg/fetch"
	"github.com/taskora-ai/taskora/pkg/hook"
	"github.com/taskora-ai/taskora/pkg/modules"
	"github.com/taskora-ai/taskora/pkg/output"
)

// NewRunCommand builds the `taskora run` command.
func NewRunCommand() *cobra.Command {
	var (
		taskURL    string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "run [task description or URL]",
		Short: "Execute a task through the orchestration pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appManager, ok := engine.AppManagerFromContext(cmd.Context())
			if !ok {
				return errors.New("application manager not initialized")
			}
			cfg := appManager.ConfigManager.Get()

			modules.RegisterDefaults(appManager.Registry, cfg)

			console := output.NewConsole(os.Stderr)
			console.Attach(appManager.EventBus)

			eng := engine.NewEngine(
				appManager.Registry,
				fetch.NewHTTPFetcher(cfg.Fetch),
				analyze.NewClassifier(),
				analyze.NewExtractor(),
				engine.WithEventBus(appManager.EventBus),
				engine.WithMaxParallelSubtasks(cfg.Engine.MaxParallelSubtasks),
				engine.WithStageTimeout(cfg.Engine.StageTimeout),
				engine.WithDefaultExportFormat(cfg.Output.DefaultFormat),
			)

			// Clean up any modules the run initialized.
			appManager.HookManager.Register(hook.EventShutdown, func(ctx context.Context) {
				eng.Executor().Shutdown(ctx, appManager.Registry)
			})

			ctx, stop := signal.NotifyContext(appManager.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result := eng.ProcessTask(ctx, strings.Join(args, " "), taskURL, nil)

			if jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
			} else {
				fmt.Fprint(os.Stdout, output.RenderTaskResult(result))
			}

			if !result.Success {
				runErr := errors.New(result.Error)
				if code, ok := result.Details["error_code"].(string); ok && code != "" {
					runErr = engine.WithErrorCode(runErr, code)
				}
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&taskURL, "url", "", "Explicit task URL (overrides URL detection in the description)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result envelope as JSON")

	return cmd
}
