package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

func writeText(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)

	for _, f := range r.Result.Findings {
		fmt.Fprintf(bw, "[%s] %s\n %s :: %s\n", f.RuleID, r.Metadata.DisplayPath(f.FilePath), f.Where, f.Message)
	}

	fmt.Fprintln(bw, "\nSummary:")
	table := tablewriter.NewWriter(bw)
	table.SetHeader([]string{"Rule", "Findings"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, rc := range r.Result.Counts.Ordered() {
		table.Append([]string{string(rc.RuleID), strconv.Itoa(rc.Count)})
	}
	table.SetFooter([]string{"Total", strconv.Itoa(r.Result.Counts.Total())})
	table.Render()

	if len(r.Result.ParseErrors) > 0 {
		fmt.Fprintf(bw, "\nFailed to parse (%d):\n", len(r.Result.ParseErrors))
		for _, pe := range r.Result.ParseErrors {
			fmt.Fprintf(bw, "  %s: %v\n", r.Metadata.DisplayPath(pe.Path), pe.Err)
		}
	}

	if len(r.Rules) > 0 {
		fmt.Fprintln(bw, "\nBasic Fix Suggestions:")
		for _, rule := range r.Rules {
			fmt.Fprintf(bw, "  %-20s -> %s\n", rule.ID, rule.Help)
		}
	}

	return bw.Flush()
}
