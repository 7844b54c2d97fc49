package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Workflow commands understood by GitHub Actions runners. See
// https://docs.github.com/en/actions/reference/workflow-commands-for-github-actions.
const (
	commandWarning = "warning"
	commandError   = "error"
	commandNotice  = "notice"
)

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func writeGitHub(w io.Writer, r *Report) error {
	bw := bufio.NewWriter(w)

	for _, f := range r.Result.Findings {
		props := []string{"file=" + propertyEscaper.Replace(r.relPath(f.FilePath))}
		if f.Line > 0 {
			props = append(props, fmt.Sprintf("line=%d", f.Line))
			if f.Column > 0 {
				props = append(props, fmt.Sprintf("col=%d", f.Column))
			}
		}
		props = append(props, "title="+propertyEscaper.Replace(string(f.RuleID)))
		writeCommand(bw, commandWarning, props, fmt.Sprintf("%s :: %s", f.Where, f.Message))
	}

	for _, pe := range r.Result.ParseErrors {
		props := []string{"file=" + propertyEscaper.Replace(r.relPath(pe.Path)), "title=parse error"}
		writeCommand(bw, commandError, props, pe.Err.Error())
	}

	summary := make([]string, 0, len(r.Result.Counts))
	for _, rc := range r.Result.Counts.Ordered() {
		summary = append(summary, fmt.Sprintf("%s=%d", rc.RuleID, rc.Count))
	}
	writeCommand(bw, commandNotice, []string{"title=ghasmell summary"},
		fmt.Sprintf("%d finding(s) in %d workflow(s): %s", r.Result.Counts.Total(), r.Result.Documents, strings.Join(summary, " ")))

	return bw.Flush()
}

func writeCommand(w io.Writer, command string, props []string, message string) {
	fmt.Fprintf(w, "::%s %s::%s\n", command, strings.Join(props, ","), dataEscaper.Replace(message))
}
