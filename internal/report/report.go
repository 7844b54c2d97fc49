// Package report renders scan results for people and for other tools.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/scan-io-git/ghasmell/internal/engine"
	"github.com/scan-io-git/ghasmell/internal/git"
	"github.com/scan-io-git/ghasmell/internal/rules"
)

// Format names an output encoding.
type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatSARIF  Format = "sarif"
	FormatGitHub Format = "github"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatJSON, FormatSARIF, FormatGitHub}

// ParseFormat converts a user supplied name into a Format.
func ParseFormat(raw string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported report format %q", raw)
}

// Tool identifies the producer of a report.
type Tool struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"information_uri,omitempty"`
}

// Report bundles everything a writer needs.
type Report struct {
	Tool     Tool
	Root     string // scanned folder
	Metadata *git.RepositoryMetadata
	Rules    []rules.Rule // rules that were evaluated
	Result   *engine.Result
}

// Write renders r to w in the given format.
func Write(w io.Writer, format Format, r *Report) error {
	if r == nil || r.Result == nil {
		return fmt.Errorf("report has no scan result")
	}
	switch format {
	case FormatText:
		return writeText(w, r)
	case FormatJSON:
		return writeJSON(w, r)
	case FormatSARIF:
		return writeSARIF(w, r)
	case FormatGitHub:
		return writeGitHub(w, r)
	default:
		return fmt.Errorf("unsupported report format %q", format)
	}
}

// relPath returns file relative to the repository root (or the scanned root
// outside a repository) with forward slashes.
func (r *Report) relPath(file string) string {
	base := r.Root
	if r.Metadata != nil && r.Metadata.RepoRootFolder != "" {
		base = r.Metadata.RepoRootFolder
	}
	if base == "" {
		return filepath.ToSlash(file)
	}

	abs, err := filepath.Abs(file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return filepath.ToSlash(file)
	}
	rel, err := filepath.Rel(absBase, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}
