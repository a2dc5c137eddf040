package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taskora-ai/taskora/pkg/analyze"
	"github.com/taskora-ai/taskora/pkg/decompose"
	"github.com/taskora-ai/taskora/pkg/engine"
	"github.com/taskora-ai/taskora/pkg/fetch"
	"github.com/taskora-ai/taskora/pkg/modules"
	"github.com/taskora-ai/taskora/pkg/task"
)

// planReport is the yaml-serializable dry-run output.
type planReport struct {
	Classification *task.Classification `yaml:"classification"`
	Parameters     *task.Parameters     `yaml:"parameters"`
	Modules        []string             `yaml:"selected_modules"`
	Decomposition  *decompose.Result    `yaml:"decomposition,omitempty"`
	Batches        [][]string           `yaml:"execution_batches,omitempty"`
}

// NewPlanCommand builds the `taskora plan` command: classify, extract,
// select, and decompose without executing anything.
func NewPlanCommand() *cobra.Command {
	var taskURL string

	cmd := &cobra.Command{
		Use:   "plan [task description or URL]",
		Short: "Show module selection and decomposition for a task without executing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appManager, ok := engine.AppManagerFromContext(cmd.Context())
			if !ok {
				return errors.New("application manager not initialized")
			}
			cfg := appManager.ConfigManager.Get()

			modules.RegisterDefaults(appManager.Registry, cfg)

			ctx := cmd.Context()
			input := strings.Join(args, " ")

			fetched, err := fetch.NewHTTPFetcher(cfg.Fetch).Fetch(ctx, input, taskURL)
			if err != nil {
				return fmt.Errorf("fetch task: %w", err)
			}

			classifier := analyze.NewClassifier()
			cls, err := classifier.Classify(ctx, fetched.Content)
			if err != nil {
				return fmt.Errorf("classify task: %w", err)
			}

			params, err := analyze.NewExtractor().Extract(ctx, fetched.Content, cls)
			if err != nil {
				return fmt.Errorf("extract parameters: %w", err)
			}

			selector := engine.NewSelector(appManager.Registry)
			selector.SetDefaultExportFormat(cfg.Output.DefaultFormat)
			selected := selector.SelectModules(cls, params)
			names := make([]string, len(selected))
			for i, m := range selected {
				names[i] = m.Name()
			}

			report := &planReport{
				Classification: cls,
				Parameters:     params,
				Modules:        names,
			}

			decomposer := decompose.NewDecomposer()
			if decomposer.NeedsDecomposition(cls, params) {
				result := decomposer.Decompose(cls, params, input)
				report.Decomposition = result

				batches, err := result.ExecutionOrder()
				if err != nil {
					return fmt.Errorf("compute execution order: %w", err)
				}
				report.Batches = batches
			}

			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("encode plan: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&taskURL, "url", "", "Explicit task URL (overrides URL detection in the description)")

	return cmd
}
