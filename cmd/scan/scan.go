package scan

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scan-io-git/ghasmell/internal/config"
	"github.com/scan-io-git/ghasmell/internal/logger"
)

// ErrGateTripped is returned when the fail-on expression evaluates to true.
var ErrGateTripped = errors.New("fail-on gate tripped")

// RunOptionsScan holds the arguments for the scan command.
type RunOptionsScan struct {
	Format     string
	OutputPath string
	FailOn     string
	Disabled   []string
	Exclude    []string
	Threads    int
}

// Global variables for configuration and command arguments
var (
	AppConfig        *config.Config
	scanOptions      RunOptionsScan
	exampleScanUsage = `  # Scanning the workflows of a local checkout
  ghasmell scan /path/to/repository

  # Producing a SARIF report for code scanning
  ghasmell scan --format sarif --output results.sarif /path/to/repository

  # Emitting GitHub annotations from inside a workflow run
  ghasmell scan --format github .

  # Failing only on broad permissions, ignoring missing timeouts
  ghasmell scan --fail-on "s3 > 0" --disable S2_MISSING_TIMEOUT .

  # Scanning with four concurrent workers and skipping generated workflows
  ghasmell scan -j 4 --exclude "**/generated-*.yml" /path/to/repository`
)

// ScanCmd represents the scan command.
var ScanCmd = &cobra.Command{
	Use:                   "scan [--config/-c PATH] [--format/-f text|json|sarif|github] [--output/-o PATH] [--fail-on EXPR] [--disable RULE]... [--exclude GLOB]... [-j THREADS_NUMBER, default=1] PATH",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Scans the GitHub Actions workflows of a repository for configuration smells",
	Long: `Scans every workflow file under the workflows directory of PATH and reports:
  S1_FLOATING_TAG       action references not pinned to a version tag or commit SHA
  S2_MISSING_TIMEOUT    jobs without timeout-minutes
  S3_BROAD_PERMISSIONS  permissions blocks that grant write access

The exit code is 1 when the fail-on expression is true, 2 on usage errors and 0 otherwise.`,
	RunE: runScanCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runScanCommand executes the scan command.
func runScanCommand(cmd *cobra.Command, args []string) error {
	if AppConfig == nil {
		AppConfig = config.Default()
	}
	lg := logger.NewLogger(AppConfig, "core-scan")

	opts := resolveOptions(cmd.Flags(), AppConfig, scanOptions)
	target, err := validateScanArgs(&opts, args)
	if err != nil {
		lg.Error("invalid scan arguments", "error", err)
		return err
	}

	tripped, err := scanTarget(cmd.Context(), AppConfig, opts, target, cmd.OutOrStdout(), lg)
	if err != nil {
		lg.Error("scan command failed", "error", err)
		return err
	}
	if tripped {
		lg.Info("fail-on expression is true", "expression", opts.FailOn)
		return fmt.Errorf("%w: %s", ErrGateTripped, opts.FailOn)
	}

	lg.Info("scan command completed successfully")
	return nil
}

// Initialize flags for the scan command.
func init() {
	ScanCmd.Flags().StringVarP(&scanOptions.Format, "format", "f", "", "Format for the report: text, json, sarif or github.")
	ScanCmd.Flags().BoolP("help", "h", false, "Show help for the scan command.")
	ScanCmd.Flags().StringVarP(&scanOptions.OutputPath, "output", "o", "", "Path to the output file or directory. The report goes to stdout when empty.")
	ScanCmd.Flags().StringVar(&scanOptions.FailOn, "fail-on", "", `CEL expression over the counts deciding the exit code (default "total > 0").`)
	ScanCmd.Flags().StringSliceVar(&scanOptions.Disabled, "disable", nil, "Rule id to skip. Can be repeated.")
	ScanCmd.Flags().StringSliceVar(&scanOptions.Exclude, "exclude", nil, "Glob of workflow paths, relative to PATH, to skip. Can be repeated.")
	ScanCmd.Flags().IntVarP(&scanOptions.Threads, "threads", "j", 1, "Number of workflow files evaluated concurrently.")
}
