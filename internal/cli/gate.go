package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Inspect or change the timeout marker",
	Long: `The timeout marker pauses the scheduler for TIMEOUT_DURATION_SEC after a
pipeline failure. These commands read it, set it, or remove it by hand.`,
}

var gateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the timeout marker is active",
	Args:  cobra.NoArgs,
	RunE:  runGateStatus,
}

var gateTripCmd = &cobra.Command{
	Use:   "trip",
	Short: "Create or refresh the timeout marker",
	Args:  cobra.NoArgs,
	RunE:  runGateTrip,
}

var gateClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the timeout marker",
	Args:  cobra.NoArgs,
	RunE:  runGateClear,
}

func init() {
	gateCmd.AddCommand(gateStatusCmd, gateTripCmd, gateClearCmd)
	rootCmd.AddCommand(gateCmd)
}

func runGateStatus(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	g := newGate(settings, consoleLogger(cmd))
	st, err := g.Status()
	if err != nil {
		return err
	}

	printf(cmd, "Marker:  %s\n", g.Path())
	printf(cmd, "Window:  %s\n", g.Duration())
	switch {
	case st.Active:
		printf(cmd, "Status:  active (%s remaining)\n", st.Remaining.Round(time.Second))
		printf(cmd, "Tripped: %s\n", st.TrippedAt.Format(time.RFC3339))
	case st.Tripped:
		printf(cmd, "Status:  expired (removed on next poll)\n")
		printf(cmd, "Tripped: %s\n", st.TrippedAt.Format(time.RFC3339))
	default:
		printf(cmd, "Status:  clear\n")
	}
	return nil
}

func runGateTrip(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	logger, sink, err := openLogger(cmd, settings)
	if err != nil {
		return err
	}
	defer sink.Close()

	g := newGate(settings, logger)
	if err := g.Trip(); err != nil {
		return err
	}
	printf(cmd, "Timeout marker set for %s.\n", g.Duration())
	return nil
}

func runGateClear(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	logger, sink, err := openLogger(cmd, settings)
	if err != nil {
		return err
	}
	defer sink.Close()

	if err := newGate(settings, logger).Clear(); err != nil {
		return err
	}
	printf(cmd, "Timeout marker cleared.\n")
	return nil
}
