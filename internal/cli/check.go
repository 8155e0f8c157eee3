package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// errRejected is returned by check when the response fails a rule, so the
// process exits non-zero.
var errRejected = errors.New("response rejected")

var checkCmd = &cobra.Command{
	Use:   "check <response-file>",
	Short: "Evaluate a response against the acceptance rules",
	Long: `Reads a response from a file (or - for stdin) and evaluates it against
the rules in RULES_FILE. Exits non-zero when any rule fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	var data []byte
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	ruleSet, err := loadRules(settings.RulesFile, consoleLogger(cmd))
	if err != nil {
		return err
	}

	failed, err := ruleSet.Failures(string(data))
	if err != nil {
		return err
	}

	if len(failed) == 0 {
		printf(cmd, "accepted (%d rules)\n", ruleSet.Len())
		return nil
	}

	printf(cmd, "rejected\n")
	for _, name := range failed {
		printf(cmd, "  - %s\n", name)
	}
	return errRejected
}
