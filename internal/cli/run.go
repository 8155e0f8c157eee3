package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thruflo/quanta/internal/config"
	"github.com/thruflo/quanta/internal/gate"
	"github.com/thruflo/quanta/internal/logging"
	"github.com/thruflo/quanta/internal/pipeline"
	"github.com/thruflo/quanta/internal/rules"
	"github.com/thruflo/quanta/internal/runner"
	"github.com/thruflo/quanta/internal/scheduler"
)

var (
	runCycles int
	runWatch  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the polling scheduler",
	Long: `Runs the scheduler loop. Each cycle checks the timeout marker, parses the
task document and runs every task through the pipeline in document order.
A pipeline failure trips the timeout marker and ends the cycle.

The loop runs until interrupted (SIGINT/SIGTERM) or, with --cycles, until
the given number of cycles has run.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runCycles, "cycles", 0, "stop after this many cycles (0 runs until interrupted)")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "poll early when the task document changes")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	logger, sink, err := openLogger(cmd, settings)
	if err != nil {
		return err
	}
	defer sink.Close()

	ruleSet, err := loadRules(settings.RulesFile, logger)
	if err != nil {
		logger.Error("Failed to load rules", "error", err)
		return err
	}
	logger.Info("Loaded rules", "count", ruleSet.Len())
	for _, name := range ruleSet.Names() {
		logger.Debug("Rule active", "rule", name)
	}

	priorities, err := config.LoadPriorities(settings.PriorityFile)
	if err != nil {
		logger.Warn("Priority file unavailable", "error", err)
		priorities = map[string]int{}
	}
	logger.Info("Loaded priority items", "count", len(priorities))

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wake <-chan struct{}
	if runWatch {
		wake, err = scheduler.Watch(ctx, settings.PromptFile, logger)
		if err != nil {
			return err
		}
	}

	timeoutGate := newGate(settings, logger)
	executor := newExecutor(settings, ruleSet, logger)
	loop := scheduler.New(scheduler.Options{
		Gate:         timeoutGate,
		Runner:       executor,
		TaskFile:     settings.PromptFile,
		PollInterval: settings.PollInterval(),
		Priorities:   priorities,
		Logger:       logger,
		Wake:         wake,
	})

	logger.Info("Scheduler started",
		"task_file", settings.PromptFile,
		"poll_interval", settings.PollInterval(),
		"timeout", timeoutGate.Duration(),
		"max_reflections", executor.MaxReflections(),
	)
	res := loop.Run(ctx, runCycles)
	logger.Info("Scheduler stopped", "reason", res.Reason, "cycles", res.Cycles)
	return nil
}

// loadRules loads the acceptance rules. A missing file accepts every
// response.
func loadRules(path string, logger *logging.Logger) (*rules.Set, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Warn("Rules file not found, accepting all responses", "path", path)
		return &rules.Set{}, nil
	}
	set, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	return set, nil
}

func newGate(settings *config.Settings, logger *logging.Logger) *gate.Gate {
	return gate.New(gate.Options{
		Path:     settings.TimeoutMarker,
		Duration: settings.TimeoutDuration(),
		Logger:   logger,
	})
}

func newExecutor(settings *config.Settings, ruleSet *rules.Set, logger *logging.Logger) *pipeline.Executor {
	var reflector pipeline.Reflector = &runner.TemplateReflector{Rules: ruleSet}
	if settings.ReflectScript != "" {
		reflector = &runner.ScriptReflector{Script: &runner.Script{
			Shell:  settings.Shell,
			Path:   settings.ReflectScript,
			Logger: logger,
		}}
	}

	return pipeline.NewExecutor(pipeline.Options{
		Generator: &runner.Generator{Script: &runner.Script{
			Shell:  settings.Shell,
			Path:   settings.LLMScript,
			Logger: logger,
		}},
		Evaluator:      ruleSet,
		Reflector:      reflector,
		MaxReflections: settings.MaxReflections,
		Logger:         logger,
	})
}
