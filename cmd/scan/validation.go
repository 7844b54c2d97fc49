package scan

import (
	"fmt"
	"strings"

	"github.com/scan-io-git/ghasmell/internal/findings"
	"github.com/scan-io-git/ghasmell/internal/gate"
	"github.com/scan-io-git/ghasmell/internal/report"
	"github.com/scan-io-git/ghasmell/pkg/shared/files"
)

// validateScanArgs validates the arguments provided to the scan command and
// returns the expanded target folder.
func validateScanArgs(options *RunOptionsScan, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("a target path must be specified")
	}
	if len(args) > 1 {
		return "", fmt.Errorf("only one target path can be scanned at a time, got %d", len(args))
	}

	target, err := files.ExpandPath(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to expand target path %q: %w", args[0], err)
	}
	if err := files.ValidateDir(target); err != nil {
		return "", fmt.Errorf("the target path is not a readable directory: %w", err)
	}

	if _, err := report.ParseFormat(options.Format); err != nil {
		return "", err
	}

	if options.Threads <= 0 {
		return "", fmt.Errorf("the 'threads' flag must be a positive integer")
	}

	for _, id := range options.Disabled {
		if !findings.RuleID(strings.ToUpper(strings.TrimSpace(id))).Valid() {
			return "", fmt.Errorf("unknown rule %q in 'disable'", id)
		}
	}

	if _, err := gate.Compile(options.FailOn); err != nil {
		return "", err
	}

	return target, nil
}
