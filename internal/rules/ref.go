package rules

import (
	"fmt"
	"strings"

	"github.com/gitsight/go-vcsurl"
	"github.com/go-git/go-git/v5/plumbing"
)

// RefKind classifies the ref part of an action reference.
type RefKind int

const (
	RefOther   RefKind = iota // any ref without an immutable shape
	RefMissing                // no @ref at all
	RefLocal                  // ./path inside the repository
	RefBranch                 // well-known mutable branch
	RefVersion                // v<digits>... tag
	RefSHA                    // full 40-character commit SHA
)

const (
	localPrefix = "./"
	refSep      = "@"
	defaultHost = "github.com"
)

// DefaultMutableRefs are branch names that always move.
var DefaultMutableRefs = []string{"main", "master", "dev", "develop", "head"}

func (k RefKind) String() string {
	switch k {
	case RefMissing:
		return "missing ref"
	case RefLocal:
		return "local path"
	case RefBranch:
		return "branch"
	case RefVersion:
		return "version tag"
	case RefSHA:
		return "commit sha"
	default:
		return "unpinned ref"
	}
}

// Pinned reports whether the kind refers to an immutable-looking version.
func (k RefKind) Pinned() bool {
	return k == RefVersion || k == RefSHA
}

// ActionRef is a parsed `uses:` value.
type ActionRef struct {
	Raw    string
	Action string // owner/repo[/path], or the local path
	Ref    string
	Kind   RefKind
}

// Classifier decides whether action references are pinned.
type Classifier struct {
	mutable map[string]bool
}

// NewClassifier builds a classifier; an empty list falls back to DefaultMutableRefs.
func NewClassifier(mutableRefs []string) *Classifier {
	if len(mutableRefs) == 0 {
		mutableRefs = DefaultMutableRefs
	}
	c := &Classifier{mutable: make(map[string]bool, len(mutableRefs))}
	for _, r := range mutableRefs {
		c.mutable[strings.ToLower(strings.TrimSpace(r))] = true
	}
	return c
}

// ClassifyRef classifies a reference with the default mutable branch list.
func ClassifyRef(uses string) ActionRef {
	return defaultClassifier.Classify(uses)
}

var defaultClassifier = NewClassifier(nil)

// Classify parses a `uses:` value and classifies its ref. The reference is
// split at the first @; a reference with more than one @ is never pinned.
func (c *Classifier) Classify(uses string) ActionRef {
	uses = strings.TrimSpace(uses)
	ar := ActionRef{Raw: uses, Action: uses}

	if strings.HasPrefix(uses, localPrefix) {
		ar.Kind = RefLocal
		return ar
	}

	action, ref, found := strings.Cut(uses, refSep)
	if !found {
		ar.Kind = RefMissing
		return ar
	}
	ar.Action, ar.Ref = action, ref

	normalized := strings.ToLower(strings.TrimSpace(ref))
	switch {
	case strings.Contains(ref, refSep):
		// owner/repo@ref allows exactly one separator
		ar.Kind = RefOther
	case plumbing.IsHash(normalized):
		ar.Kind = RefSHA
	case isVersionTag(normalized):
		ar.Kind = RefVersion
	case c.mutable[normalized]:
		ar.Kind = RefBranch
	default:
		ar.Kind = RefOther
	}
	return ar
}

// isVersionTag matches refs of the form v<digit>..., e.g. v4 or v1.2.3.
func isVersionTag(ref string) bool {
	return len(ref) >= 2 && ref[0] == 'v' && ref[1] >= '0' && ref[1] <= '9'
}

// Repository returns the owner/repo part of a remote action, or false for
// local paths and docker references.
func (a ActionRef) Repository() (string, bool) {
	if a.Kind == RefLocal || strings.Contains(a.Action, "://") {
		return "", false
	}
	parts := strings.SplitN(a.Action, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return parts[0] + "/" + parts[1], true
}

// RepositoryURL resolves the web URL of the action repository.
func (a ActionRef) RepositoryURL() (string, error) {
	repo, ok := a.Repository()
	if !ok {
		return "", fmt.Errorf("%q does not reference a remote repository", a.Raw)
	}
	info, err := vcsurl.Parse(fmt.Sprintf("https://%s/%s", defaultHost, repo))
	if err != nil {
		return "", fmt.Errorf("failed to parse repository of %q: %w", a.Raw, err)
	}
	return "https://" + info.ID, nil
}
