// pkg/output/console.go
// Package output renders engine events and results for the terminal.
package output

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskora-ai/taskora/pkg/event"
)

// Lipgloss styles for console events
var (
	// Task lifecycle - cyan
	taskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	// Stage progress - gray
	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	// Success - green
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	// Failure - red
	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	// Subtask progress - blue
	subtaskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))
)

// Console subscribes to the engine's event bus and renders progress
// lines, typically to stderr.
type Console struct {
	writer       io.Writer
	colorEnabled bool
}

// NewConsole creates a console renderer.
func NewConsole(writer io.Writer) *Console {
	return &Console{
		writer:       writer,
		colorEnabled: true,
	}
}

// DisableColor switches to plain text output.
func (c *Console) DisableColor() {
	c.colorEnabled = false
}

// Attach subscribes the console to the engine's topics on the bus.
func (c *Console) Attach(bus event.EventBus) {
	bus.Subscribe(event.TopicTaskStarted, c.onTaskStarted)
	bus.Subscribe(event.TopicTaskCompleted, c.onTaskCompleted)
	bus.Subscribe(event.TopicTaskFailed, c.onTaskFailed)
	bus.Subscribe(event.TopicStageCompleted, c.onStageCompleted)
	bus.Subscribe(event.TopicStageFailed, c.onStageFailed)
	bus.Subscribe(event.TopicSubtaskStarted, c.onSubtaskStarted)
	bus.Subscribe(event.TopicSubtaskDone, c.onSubtaskDone)
}

func (c *Console) onTaskStarted(ctx context.Context, data any) {
	if p := payload(data); p != nil {
		c.printf(taskStyle, "task %s started", p.TaskID)
	}
}

func (c *Console) onTaskCompleted(ctx context.Context, data any) {
	if p := payload(data); p != nil {
		c.printf(successStyle, "task %s completed", p.TaskID)
	}
}

func (c *Console) onTaskFailed(ctx context.Context, data any) {
	if p := payload(data); p != nil {
		c.printf(failStyle, "task %s failed", p.TaskID)
	}
}

func (c *Console) onStageCompleted(ctx context.Context, data any) {
	if p := payload(data); p != nil {
		c.printf(stageStyle, "  stage %-10s done", p.Stage)
	}
}

func (c *Console) onStageFailed(ctx context.Context, data any) {
	if p := payload(data); p != nil {
		c.printf(failStyle, "  stage %-10s failed: %v", p.Stage, p.Err)
	}
}

func (c *Console) onSubtaskStarted(ctx context.Context, data any) {
	if p := payload(data); p != nil {
		c.printf(subtaskStyle, "    subtask %s running", p.Stage)
	}
}

func (c *Console) onSubtaskDone(ctx context.Context, data any) {
	if p := payload(data); p != nil {
		c.printf(subtaskStyle, "    subtask %s done", p.Stage)
	}
}

func (c *Console) printf(style lipgloss.Style, format string, args ...any) {
	line := fmt.Sprintf("%s %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	if c.colorEnabled {
		line = style.Render(line)
	}
	fmt.Fprintln(c.writer, line)
}

func payload(data any) *event.StagePayload {
	p, _ := data.(*event.StagePayload)
	return p
}
