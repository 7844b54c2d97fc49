// Package ci provides helpers for discovering CI metadata.
package ci

import (
	"os"
	"strings"

	"github.com/scan-io-git/ghasmell/internal/git"
)

// CIKind represents the type of CI.
type CIKind int

const (
	// CIUnknown indicates the CI provider could not be identified.
	CIUnknown CIKind = iota
	// CIGitHub identifies GitHub Actions runners.
	CIGitHub
	// CIGitLab identifies GitLab CI environments.
	CIGitLab
	// CIBitbucket identifies Bitbucket Pipelines environments.
	CIBitbucket
)

// LookupFunc fetches environment variables and defaults to os.Getenv.
type LookupFunc func(string) string

// CIEnvironment captures the repository coordinates a CI job exposes.
type CIEnvironment struct {
	Kind               CIKind
	CommitHash         string // tip commit that triggered the job
	ReferenceName      string // short ref or branch name
	RepositoryName     string // repository slug without namespace
	RepositoryFullName string // namespace-qualified repository name
	RepositoryWebURL   string // https URL of the repository
}

// String returns the human-readable string representation of a CIKind.
func (c CIKind) String() string {
	switch c {
	case CIGitHub:
		return "github"
	case CIGitLab:
		return "gitlab"
	case CIBitbucket:
		return "bitbucket"
	default:
		return "unknown"
	}
}

// Detect reads the process environment.
func Detect() CIEnvironment {
	return detectWithLookup(os.Getenv)
}

func detectWithLookup(lookup LookupFunc) CIEnvironment {
	if lookup == nil {
		lookup = os.Getenv
	}

	switch {
	case strings.EqualFold(lookup("GITHUB_ACTIONS"), "true") || lookup("GITHUB_REPOSITORY") != "":
		return extractGitHubVariables(lookup)
	case strings.EqualFold(lookup("GITLAB_CI"), "true") || lookup("CI_PROJECT_PATH") != "":
		return extractGitLabVariables(lookup)
	case lookup("BITBUCKET_WORKSPACE") != "" || lookup("BITBUCKET_REPO_SLUG") != "":
		return extractBitbucketVariables(lookup)
	}
	return CIEnvironment{Kind: CIUnknown}
}

// See https://docs.github.com/en/actions/reference/workflows-and-actions/variables.
func extractGitHubVariables(lookup LookupFunc) CIEnvironment {
	fullName := lookup("GITHUB_REPOSITORY")

	webURL := ""
	if serverURL := strings.TrimSuffix(lookup("GITHUB_SERVER_URL"), "/"); serverURL != "" && fullName != "" {
		webURL = serverURL + "/" + fullName
	}

	return CIEnvironment{
		Kind:               CIGitHub,
		CommitHash:         lookup("GITHUB_SHA"),
		ReferenceName:      lookup("GITHUB_REF_NAME"),
		RepositoryName:     lastSegment(fullName),
		RepositoryFullName: fullName,
		RepositoryWebURL:   webURL,
	}
}

// See https://docs.gitlab.com/ci/variables/predefined_variables/.
func extractGitLabVariables(lookup LookupFunc) CIEnvironment {
	refName := lookup("CI_COMMIT_TAG")
	if refName == "" {
		refName = lookup("CI_COMMIT_REF_NAME")
	}

	return CIEnvironment{
		Kind:               CIGitLab,
		CommitHash:         lookup("CI_COMMIT_SHA"),
		ReferenceName:      refName,
		RepositoryName:     lookup("CI_PROJECT_NAME"),
		RepositoryFullName: lookup("CI_PROJECT_PATH"),
		RepositoryWebURL:   lookup("CI_PROJECT_URL"),
	}
}

// See https://support.atlassian.com/bitbucket-cloud/docs/variables-and-secrets/.
func extractBitbucketVariables(lookup LookupFunc) CIEnvironment {
	refName := lookup("BITBUCKET_TAG")
	if refName == "" {
		refName = lookup("BITBUCKET_BRANCH")
	}

	return CIEnvironment{
		Kind:               CIBitbucket,
		CommitHash:         lookup("BITBUCKET_COMMIT"),
		ReferenceName:      refName,
		RepositoryName:     lookup("BITBUCKET_REPO_SLUG"),
		RepositoryFullName: lookup("BITBUCKET_REPO_FULL_NAME"),
		RepositoryWebURL:   lookup("BITBUCKET_GIT_HTTP_ORIGIN"),
	}
}

// Enrich fills metadata gaps left by a shallow or missing local checkout.
// Values already collected from git are kept.
func (e CIEnvironment) Enrich(md *git.RepositoryMetadata) {
	if md == nil || e.Kind == CIUnknown {
		return
	}
	if md.CommitHash == nil && e.CommitHash != "" {
		commit := e.CommitHash
		md.CommitHash = &commit
	}
	if md.BranchName == nil && e.ReferenceName != "" {
		ref := e.ReferenceName
		md.BranchName = &ref
	}
	if md.RepositoryFullName == nil && e.RepositoryFullName != "" {
		name := e.RepositoryFullName
		md.RepositoryFullName = &name
	}
	if md.WebURL == nil && e.RepositoryWebURL != "" {
		webURL := strings.TrimSuffix(e.RepositoryWebURL, ".git")
		md.WebURL = &webURL
	}
}

func lastSegment(fullName string) string {
	if i := strings.LastIndex(fullName, "/"); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}
