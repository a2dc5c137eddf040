// cmd/taskora/main.go
package main

import (
	"fmt"
	"os"

	"github.com/taskora-ai/taskora/cmd/taskora/commands"
	"github.com/taskora-ai/taskora/pkg/engine"
)

func main() {
	err := commands.NewCommand().Execute()
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	for _, hint := range engine.Suggestions(err) {
		fmt.Fprintln(os.Stderr, "  hint:", hint)
	}
	os.Exit(engine.ExitCode(err))
}
