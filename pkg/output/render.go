// pkg/output/render.go
package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskora-ai/taskora/pkg/engine"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// RenderTaskResult formats a task result envelope for the terminal.
func RenderTaskResult(result *engine.TaskResult) string {
	var b strings.Builder

	if result.Success {
		b.WriteString(okStyle.Render("✓ task succeeded"))
	} else {
		b.WriteString(errStyle.Render("✗ task failed"))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "  task id:  %s\n", result.TaskID)
	fmt.Fprintf(&b, "  run id:   %s\n", result.RunID)
	fmt.Fprintf(&b, "  duration: %s\n", result.Duration)
	if result.Strategy != "" {
		fmt.Fprintf(&b, "  strategy: %s\n", result.Strategy)
	}
	if result.Error != "" {
		fmt.Fprintf(&b, "  error:    %s\n", errStyle.Render(result.Error))
	}
	if result.Data != nil {
		fmt.Fprintf(&b, "  result:   %v\n", result.Data)
	}

	if len(result.Stages) > 0 {
		b.WriteString(headerStyle.Render("  stages:"))
		b.WriteString("\n")
		for _, stage := range []string{
			engine.StageFetch, engine.StageClassify, engine.StageAct,
			engine.StageExtract, engine.StageDecompose, engine.StageExecute,
		} {
			mark := dimStyle.Render("-")
			if result.Stages[stage] {
				mark = okStyle.Render("✓")
			}
			fmt.Fprintf(&b, "    %s %s\n", mark, stage)
		}
	}

	return b.String()
}

// RenderModuleList formats the registry snapshot as a table.
func RenderModuleList(infos map[string]engine.ModuleInfo) string {
	names := make([]string, 0, len(infos))
	for name := range infos {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", headerStyle.Render(fmt.Sprintf("%-18s %-16s %s", "NAME", "TYPE", "CAPABILITIES")))
	for _, name := range names {
		info := infos[name]
		fmt.Fprintf(&b, "%-18s %-16s %s\n", info.Name, info.Type, strings.Join(capabilitySummary(info.Capabilities), ", "))
	}
	return b.String()
}

// capabilitySummary lists the set boolean capabilities of a descriptor.
func capabilitySummary(c engine.Capability) []string {
	flags := []engine.CapabilityFlag{
		engine.CanScrapeStatic, engine.CanScrapeDynamic, engine.CanHandleJavaScript,
		engine.CanAuthenticate, engine.CanHandleAPI, engine.CanProcessData,
		engine.CanCleanData, engine.CanTransformData, engine.CanAggregate,
		engine.CanFilter, engine.CanSort, engine.CanVisualize,
		engine.CanCreateCharts, engine.CanCreateMaps, engine.CanExportCSV,
		engine.CanExportJSON, engine.CanExportExcel,
	}

	var set []string
	for _, f := range flags {
		if c.Has(f) {
			set = append(set, strings.TrimPrefix(string(f), "can_"))
		}
	}
	return set
}
