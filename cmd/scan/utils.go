package scan

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"

	"github.com/scan-io-git/ghasmell/cmd/version"
	"github.com/scan-io-git/ghasmell/internal/ci"
	"github.com/scan-io-git/ghasmell/internal/config"
	"github.com/scan-io-git/ghasmell/internal/discovery"
	"github.com/scan-io-git/ghasmell/internal/engine"
	"github.com/scan-io-git/ghasmell/internal/gate"
	"github.com/scan-io-git/ghasmell/internal/git"
	"github.com/scan-io-git/ghasmell/internal/report"
	"github.com/scan-io-git/ghasmell/internal/rules"
	"github.com/scan-io-git/ghasmell/pkg/shared/files"
)

const (
	toolName           = "ghasmell"
	toolInformationURI = "https://github.com/scan-io-git/ghasmell"
	reportNameTemplate = "ghasmell-report"
)

// reportExtensions picks the file extension used when --output is a folder.
var reportExtensions = map[report.Format]string{
	report.FormatText:   ".txt",
	report.FormatJSON:   ".json",
	report.FormatSARIF:  ".sarif",
	report.FormatGitHub: ".log",
}

// resolveOptions fills every option not set on the command line from cfg.
// Disabled rules and excludes from both sources are combined.
func resolveOptions(flags *pflag.FlagSet, cfg *config.Config, opts RunOptionsScan) RunOptionsScan {
	if !flags.Changed("format") {
		opts.Format = cfg.Report.Format
	}
	if !flags.Changed("output") {
		opts.OutputPath = cfg.Report.Output
	}
	if !flags.Changed("fail-on") {
		opts.FailOn = cfg.Report.FailOn
	}
	if !flags.Changed("threads") {
		opts.Threads = config.SetThen(cfg.Scan.Threads, 1)
	}
	opts.Disabled = append(append([]string{}, cfg.Rules.Disabled...), opts.Disabled...)
	opts.Exclude = append(append([]string{}, cfg.Scan.Exclude...), opts.Exclude...)
	return opts
}

// scanTarget discovers, evaluates and reports the workflows of target. It
// reports whether the fail-on gate tripped.
func scanTarget(ctx context.Context, cfg *config.Config, opts RunOptionsScan, target string, stdout io.Writer, lg hclog.Logger) (bool, error) {
	format, err := report.ParseFormat(opts.Format)
	if err != nil {
		return false, err
	}
	g, err := gate.Compile(opts.FailOn)
	if err != nil {
		return false, err
	}

	finder, err := discovery.NewFinder(discovery.Options{
		WorkflowsDir: cfg.Scan.WorkflowsDir,
		Extensions:   cfg.Scan.Extensions,
		Exclude:      opts.Exclude,
	})
	if err != nil {
		return false, err
	}
	paths, err := finder.Find(target)
	if err != nil {
		return false, err
	}
	lg.Debug("discovered workflow files", "root", target, "files", len(paths))

	rs := rules.Select(rules.All(rules.Options{MutableRefs: cfg.Rules.MutableRefs}), opts.Disabled)
	result := engine.New(rs, opts.Threads, lg).ScanFiles(ctx, paths)
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("scan interrupted: %w", err)
	}

	rep := &report.Report{
		Tool:     report.Tool{Name: toolName, Version: version.CoreVersion, InformationURI: toolInformationURI},
		Root:     target,
		Metadata: collectMetadata(target, lg),
		Rules:    rs,
		Result:   result,
	}
	if err := writeReport(opts.OutputPath, format, rep, stdout, lg); err != nil {
		return false, err
	}

	return g.Evaluate(gate.Input{
		Counts:    result.Counts,
		Documents: result.Documents,
		Failed:    len(result.ParseErrors),
	})
}

// collectMetadata never fails; folders outside a repository still get a name.
func collectMetadata(target string, lg hclog.Logger) *git.RepositoryMetadata {
	md, err := git.CollectRepositoryMetadata(target)
	if err != nil {
		lg.Debug("repository metadata is incomplete", "root", target, "error", err)
	}
	ci.Detect().Enrich(md)
	return md
}

// writeReport writes to stdout unless an output path is configured.
func writeReport(outputPath string, format report.Format, rep *report.Report, stdout io.Writer, lg hclog.Logger) error {
	if outputPath == "" {
		return report.Write(stdout, format, rep)
	}

	fullPath, _, err := files.DetermineFileFullPath(outputPath, reportNameTemplate+reportExtensions[format])
	if err != nil {
		return err
	}
	if err := files.WriteFile(fullPath, func(w io.Writer) error {
		return report.Write(w, format, rep)
	}); err != nil {
		return fmt.Errorf("failed to write report %q: %w", fullPath, err)
	}
	lg.Info("report saved", "path", fullPath, "format", format)
	return nil
}
