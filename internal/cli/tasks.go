package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thruflo/quanta/internal/config"
	"github.com/thruflo/quanta/internal/task"
)

var tasksFormat string

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the tasks in the task document",
	Long: `Parses the task document named by PROMPT_FILE and lists its tasks in
the order the scheduler would run them. The LEVEL column comes from the
priority file and is informational only.`,
	Args: cobra.NoArgs,
	RunE: runTasks,
}

func init() {
	tasksCmd.Flags().StringVar(&tasksFormat, "format", "table", "output format: table or yaml")
	rootCmd.AddCommand(tasksCmd)
}

func runTasks(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	tasks, err := task.ParseFile(settings.PromptFile)
	if err != nil {
		return err
	}

	switch tasksFormat {
	case "yaml":
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(tasks); err != nil {
			return fmt.Errorf("failed to encode tasks: %w", err)
		}
		return enc.Close()
	case "table", "":
	default:
		return fmt.Errorf("unknown format %q (want table or yaml)", tasksFormat)
	}

	if len(tasks) == 0 {
		printf(cmd, "No tasks found.\n")
		return nil
	}

	priorities, err := config.LoadPriorities(settings.PriorityFile)
	if err != nil {
		consoleLogger(cmd).Warn("Priority file unavailable", "error", err)
	}

	configureStyling(cmd.OutOrStdout())
	data := pterm.TableData{{"#", "ID", "TYPE", "PRIORITY", "LEVEL", "STATUS", "COMMANDS", "CRITERIA", "DESCRIPTION"}}
	for i, t := range tasks {
		level := "-"
		if n, ok := priorities[t.ID]; ok {
			level = strconv.Itoa(n)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			orDash(t.ID),
			orDash(t.Kind),
			orDash(t.Priority),
			level,
			orDash(t.Status),
			strconv.Itoa(len(t.Commands)),
			strconv.Itoa(len(t.Criteria)),
			truncate(t.Description, 60),
		})
	}

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("failed to render tasks: %w", err)
	}
	printf(cmd, "%s\n", out)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-3]) + "..."
}
