// Command trustdash serves the Circles trust dashboard API and offers a few
// operator commands around it.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"trustdash/internal/platform/config"
	"trustdash/internal/platform/logger"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

// newRootCmd builds a fresh command tree so tests never share flag state.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "trustdash",
		Short:        "Circles trust relation dashboard",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "config file (default ./trustdash.yaml)")
	cmd.PersistentFlags().String("ledger", "", "trust ledger backend: memory|postgres|gateway|rpc")
	cmd.PersistentFlags().String("cache", "", "relation snapshot cache: none|memory|redis")
	cmd.PersistentFlags().String("audit", "", "audit store: memory|postgres|kafka")
	cmd.PersistentFlags().String("log-level", "", "log level: debug|info|warn|error")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newRelationsCmd())
	cmd.AddCommand(newAuditProjectCmd())
	return cmd
}

// loadConfig reads configuration with cmd's flags layered on top. Flags left
// at their zero default do not override file or environment values.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	return config.Load(cmd, file)
}

// cliLogger logs to stderr so command output on stdout stays clean.
func cliLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level)
}
