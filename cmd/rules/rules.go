package rules

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/scan-io-git/ghasmell/internal/config"
	"github.com/scan-io-git/ghasmell/internal/rules"
)

// RunOptionsRules holds the arguments for the rules command.
type RunOptionsRules struct {
	JSON bool
}

var (
	AppConfig    *config.Config
	rulesOptions RunOptionsRules
)

// ruleInfo is the listing entry of a single rule.
type ruleInfo struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Fix     string `json:"fix"`
	Enabled bool   `json:"enabled"`
}

// RulesCmd represents the rules command.
var RulesCmd = &cobra.Command{
	Use:                   "rules [--json]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Args:                  cobra.NoArgs,
	Short:                 "Lists the available rules with their fix suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		if AppConfig == nil {
			AppConfig = config.Default()
		}
		return printRules(cmd.OutOrStdout(), collectRules(AppConfig), rulesOptions.JSON)
	},
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// collectRules lists every rule and marks those the configuration disables.
func collectRules(cfg *config.Config) []ruleInfo {
	all := rules.All(rules.Options{MutableRefs: cfg.Rules.MutableRefs})
	enabled := rules.Select(all, cfg.Rules.Disabled)

	out := make([]ruleInfo, 0, len(all))
	for _, r := range all {
		_, on := rules.Get(enabled, string(r.ID))
		out = append(out, ruleInfo{ID: string(r.ID), Summary: r.Summary, Fix: r.Help, Enabled: on})
	}
	return out
}

func printRules(w io.Writer, infos []ruleInfo, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Rule", "Summary", "Fix suggestion", "Enabled"})
	table.SetAutoWrapText(false)
	for _, info := range infos {
		table.Append([]string{info.ID, info.Summary, info.Fix, fmt.Sprintf("%t", info.Enabled)})
	}
	table.Render()
	return nil
}

func init() {
	RulesCmd.Flags().BoolVar(&rulesOptions.JSON, "json", false, "Print the rules as JSON.")
}
