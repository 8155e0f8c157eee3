package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/quanta/internal/prompt"
	"github.com/thruflo/quanta/internal/task"
)

var promptCmd = &cobra.Command{
	Use:   "prompt <task-id>",
	Short: "Print the prompt rendered for a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	tasks, err := task.ParseFile(settings.PromptFile)
	if err != nil {
		return err
	}

	// The first block with a matching id is the one the scheduler runs first.
	for _, t := range tasks {
		if t.ID == args[0] {
			printf(cmd, "%s", prompt.Render(t))
			return nil
		}
	}
	return fmt.Errorf("task not found: %s", args[0])
}
