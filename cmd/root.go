package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/ghasmell/cmd/rules"
	"github.com/scan-io-git/ghasmell/cmd/scan"
	"github.com/scan-io-git/ghasmell/cmd/version"
	"github.com/scan-io-git/ghasmell/internal/config"
)

// Exit codes of the binary.
const (
	ExitOK         = 0
	ExitGateFailed = 1
	ExitUsage      = 2
)

var (
	cfgFile   string
	AppConfig *config.Config
	rootCmd   = &cobra.Command{
		Use:                   "ghasmell [command]",
		SilenceUsage:          true,
		SilenceErrors:         true,
		DisableFlagsInUseLine: true,
		Short:                 "ghasmell detects configuration smells in GitHub Actions workflows.",
		Long: `ghasmell statically analyses GitHub Actions workflow files and flags floating
action references, jobs without timeouts and permissions that grant write access.
Findings are potential smells; the tool does not try to understand pipeline intent.
`,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", fmt.Sprintf("config file (default is %s when present)", config.DefaultConfigFile))
	rootCmd.AddCommand(scan.ScanCmd)
	rootCmd.AddCommand(rules.RulesCmd)
	rootCmd.AddCommand(version.NewVersionCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return exitCode(rootCmd.ExecuteContext(ctx))
}

// exitCode maps a command error to the documented exit codes.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, scan.ErrGateTripped):
		return ExitGateFailed
	default:
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		return ExitUsage
	}
}

func initConfig(cmd *cobra.Command, args []string) error {
	var err error

	AppConfig, err = config.LoadConfig(cmd.Context(), cfgFile)
	if err != nil {
		return fmt.Errorf("initializing config file function is crashed - %w", err)
	}
	if err := config.ValidateConfig(AppConfig); err != nil {
		return err
	}

	scan.Init(AppConfig)
	rules.Init(AppConfig)
	return nil
}
