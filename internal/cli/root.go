package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	outputJSON bool
	logLevel   string
)

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	runCmd := newRunCmd()

	cmd := &cobra.Command{
		Use:           "appenv",
		Short:         "Provision the private runtime and start the sidecar",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Running the binary bare provisions and launches, like `appenv run`.
		RunE: runCmd.RunE,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to appenv.yaml (defaults to the file next to the executable)")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
	addRunFlags(cmd)

	cmd.AddCommand(runCmd)
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newEnvCmd())
	cmd.AddCommand(newCleanCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}
