package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/scan-io-git/ghasmell/internal/findings"
	"github.com/scan-io-git/ghasmell/internal/workflow"
)

// Rule is a single check evaluated against a whole workflow document.
type Rule struct {
	ID      findings.RuleID
	Summary string
	Help    string // fix suggestion
	// Eval inspects the document and returns its findings. It must not
	// modify the document.
	Eval func(doc *workflow.Document) []findings.Finding
}

// Options tune rule construction.
type Options struct {
	MutableRefs []string
}

// All returns every rule sorted by id.
func All(opts Options) []Rule {
	rs := []Rule{
		FloatingTagRule(NewClassifier(opts.MutableRefs)),
		MissingTimeoutRule(),
		BroadPermissionsRule(),
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
	return rs
}

// Select returns the rules not named in disabled. Ids are matched
// case-insensitively.
func Select(rs []Rule, disabled []string) []Rule {
	off := make(map[string]bool, len(disabled))
	for _, id := range disabled {
		off[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	out := make([]Rule, 0, len(rs))
	for _, r := range rs {
		if off[string(r.ID)] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Get looks up a rule by id.
func Get(rs []Rule, id string) (Rule, bool) {
	id = strings.ToUpper(strings.TrimSpace(id))
	for _, r := range rs {
		if string(r.ID) == id {
			return r, true
		}
	}
	return Rule{}, false
}

// FloatingTagRule flags action references that are not pinned to a version
// tag or a commit SHA. Step-level and job-level (reusable workflow) uses are
// both checked.
func FloatingTagRule(c *Classifier) Rule {
	return Rule{
		ID:      findings.FloatingTag,
		Summary: "Action reference is not pinned to a version tag or commit SHA",
		Help:    "Pin action to a stable tag or commit SHA",
		Eval: func(doc *workflow.Document) []findings.Finding {
			var out []findings.Finding
			for _, job := range doc.Jobs {
				if job.Uses != nil && *job.Uses != "" {
					if ar := c.Classify(*job.Uses); !ar.Kind.Pinned() {
						out = append(out, floatingFinding(doc.Path, job.Key, findings.WhereJob(job.Key), ar, job.Line, job.Column))
					}
				}
				for _, step := range job.Steps {
					if step.Uses == nil || *step.Uses == "" {
						continue
					}
					if ar := c.Classify(*step.Uses); !ar.Kind.Pinned() {
						out = append(out, floatingFinding(doc.Path, job.Key, findings.WhereStep(job.Key, step.Index), ar, step.Line, step.Column))
					}
				}
			}
			return out
		},
	}
}

func floatingFinding(path, job, where string, ar ActionRef, line, col int) findings.Finding {
	ref := ar.Ref
	if ar.Kind == RefMissing || ref == "" {
		ref = "<none>"
	}
	return findings.Finding{
		RuleID:   findings.FloatingTag,
		FilePath: path,
		JobKey:   findings.JobRef(job),
		Where:    where,
		Message:  fmt.Sprintf("uses=%s (%s: %s)", ar.Raw, ar.Kind, ref),
		Evidence: ar.Raw,
		Kind:     ar.Kind.String(),
		Line:     line,
		Column:   col,
	}
}

// MissingTimeoutRule flags jobs that do not declare timeout-minutes. The
// check is about presence only; workflow-level values are not inherited.
func MissingTimeoutRule() Rule {
	return Rule{
		ID:      findings.MissingTimeout,
		Summary: "Job has no timeout-minutes",
		Help:    "Add 'timeout-minutes: <value>' at job level",
		Eval: func(doc *workflow.Document) []findings.Finding {
			var out []findings.Finding
			for _, job := range doc.Jobs {
				if job.Timeout != nil {
					continue
				}
				out = append(out, findings.Finding{
					RuleID:   findings.MissingTimeout,
					FilePath: doc.Path,
					JobKey:   findings.JobRef(job.Key),
					Where:    findings.WhereJob(job.Key),
					Message:  "job has no timeout-minutes",
					Line:     job.Line,
					Column:   job.Column,
				})
			}
			return out
		},
	}
}

// BroadPermissionsRule flags permission blocks that grant write access. The
// workflow level and each job level are checked independently; jobs that
// only inherit the workflow permissions are not flagged again.
func BroadPermissionsRule() Rule {
	return Rule{
		ID:      findings.BroadPermissions,
		Summary: "Permissions grant write access",
		Help:    "Restrict permissions to minimum required scopes",
		Eval: func(doc *workflow.Document) []findings.Finding {
			var out []findings.Finding
			if doc.Permissions.GrantsWrite() {
				out = append(out, permissionsFinding(doc.Path, nil, findings.WhereWorkflow, "workflow-level", doc.Permissions))
			}
			for _, job := range doc.Jobs {
				if job.Permissions.GrantsWrite() {
					out = append(out, permissionsFinding(doc.Path, findings.JobRef(job.Key), findings.WhereJob(job.Key), "job", job.Permissions))
				}
			}
			return out
		},
	}
}

func permissionsFinding(path string, job *string, where, level string, p *workflow.Permissions) findings.Finding {
	return findings.Finding{
		RuleID:   findings.BroadPermissions,
		FilePath: path,
		JobKey:   job,
		Where:    where,
		Message:  fmt.Sprintf("%s permissions=%s", level, p),
		Evidence: strings.Join(p.WriteScopes(), ","),
		Line:     p.Line,
		Column:   p.Column,
	}
}
