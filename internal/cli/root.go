package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/thruflo/quanta/internal/config"
	"github.com/thruflo/quanta/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	configPath string
	dotenvPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "quanta",
	Short: "Polling task runner with evaluation, reflection and timeout backoff",
	Long: `Quanta polls a task document, runs each task through a generate,
evaluate and reflect pipeline backed by external scripts, and pauses itself
behind a timeout marker when the pipeline fails.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("quanta version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "path to the key=value environment file")
	rootCmd.PersistentFlags().StringVar(&dotenvPath, "dotenv", "", "optional dotenv file loaded into the process environment first")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "mirror log output to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadSettings reads and validates the environment file named by --config.
func loadSettings() (*config.Settings, error) {
	if dotenvPath != "" {
		if err := config.LoadDotenv(dotenvPath); err != nil {
			return nil, err
		}
	}

	store, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return config.LoadSettings(store)
}

// openLogger opens the file-backed log sink named in settings.
func openLogger(cmd *cobra.Command, settings *config.Settings) (*logging.Logger, io.Closer, error) {
	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var mirror io.Writer
	if verbose {
		mirror = cmd.ErrOrStderr()
	}
	return logging.NewFile(settings.LogFile, level, mirror)
}

// consoleLogger logs warnings to the command's stderr.
func consoleLogger(cmd *cobra.Command) *logging.Logger {
	l := logging.New()
	l.SetOutput(cmd.ErrOrStderr())
	return l
}

// commandContext returns the command's context, or Background when the
// command is invoked directly.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// configureStyling disables colours when w is not a terminal.
func configureStyling(w io.Writer) {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pterm.EnableStyling()
		return
	}
	pterm.DisableStyling()
}

// printf writes formatted output to the command's stdout.
func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
