package report

import (
	"encoding/json"
	"io"

	"github.com/scan-io-git/ghasmell/internal/findings"
	"github.com/scan-io-git/ghasmell/internal/git"
)

type jsonParseError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type jsonFinding struct {
	findings.Finding
	Path string `json:"path"`
}

type jsonReport struct {
	Tool        Tool                    `json:"tool"`
	RunID       string                  `json:"run_id"`
	Repository  *git.RepositoryMetadata `json:"repository,omitempty"`
	Documents   int                     `json:"documents"`
	Counts      findings.Counts         `json:"counts"`
	Total       int                     `json:"total"`
	Findings    []jsonFinding           `json:"findings"`
	ParseErrors []jsonParseError        `json:"parse_errors"`
}

func writeJSON(w io.Writer, r *Report) error {
	out := jsonReport{
		Tool:        r.Tool,
		RunID:       r.Result.RunID,
		Repository:  r.Metadata,
		Documents:   r.Result.Documents,
		Counts:      r.Result.Counts,
		Total:       r.Result.Counts.Total(),
		Findings:    make([]jsonFinding, 0, len(r.Result.Findings)),
		ParseErrors: make([]jsonParseError, 0, len(r.Result.ParseErrors)),
	}
	for _, f := range r.Result.Findings {
		out.Findings = append(out.Findings, jsonFinding{Finding: f, Path: r.relPath(f.FilePath)})
	}
	for _, pe := range r.Result.ParseErrors {
		out.ParseErrors = append(out.ParseErrors, jsonParseError{Path: r.relPath(pe.Path), Error: pe.Err.Error()})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
