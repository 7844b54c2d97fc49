package workflow

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// - a repository keeps its pipeline definitions under .github/workflows
// - each file is one Document, which owns its jobs
// - each job owns an ordered list of steps
// - optional fields stay nil when the file does not declare them

type (
	// Document is the structural representation of one workflow file.
	Document struct {
		Path        string
		Root        *yaml.Node
		Name        *string
		Permissions *Permissions
		Jobs        []Job
		Skips       []ExtractionSkip
	}

	Job struct {
		Key         string
		Name        *string
		Timeout     *Timeout
		Permissions *Permissions
		Uses        *string // reusable workflow call
		Steps       []Step
		Line        int
		Column      int
	}

	Step struct {
		Index  int // position in the original steps sequence
		Name   *string
		Uses   *string
		Run    *string
		Line   int
		Column int
	}

	// Timeout is a declared timeout-minutes key. Raw is empty for null and
	// non-scalar values.
	Timeout struct {
		Raw string
	}

	// Permissions is either a blanket scalar (read-all, write-all) or a map
	// of scope to level kept in declaration order.
	Permissions struct {
		Blanket string
		Scopes  []Scope
		Line    int
		Column  int
	}

	Scope struct {
		Name  string
		Level string
	}

	// ExtractionSkip records a malformed entry that was left out of the model.
	// Skips are neither errors nor findings.
	ExtractionSkip struct {
		Where  string
		Reason string
		Line   int
	}
)

const (
	LevelRead     = "read"
	LevelWrite    = "write"
	LevelNone     = "none"
	BlanketRead   = "read-all"
	BlanketWrite  = "write-all"
	keyJobs       = "jobs"
	keySteps      = "steps"
	keyName       = "name"
	keyUses       = "uses"
	keyRun        = "run"
	keyTimeout    = "timeout-minutes"
	keyPermission = "permissions"
)

// EffectivePermissions returns the permissions applied to the job: its own
// when declared, otherwise the document's. Nil means none declared.
func (d *Document) EffectivePermissions(j *Job) *Permissions {
	if j.Permissions != nil {
		return j.Permissions
	}
	return d.Permissions
}

// Job looks up a job by key.
func (d *Document) Job(key string) (*Job, bool) {
	for i := range d.Jobs {
		if d.Jobs[i].Key == key {
			return &d.Jobs[i], true
		}
	}
	return nil, false
}

// WriteScopes lists the scopes granted write access, in declaration order.
// A write-all blanket is reported as the single scope "*".
func (p *Permissions) WriteScopes() []string {
	if p == nil {
		return nil
	}
	if isWriteLevel(p.Blanket) {
		return []string{"*"}
	}
	var out []string
	for _, s := range p.Scopes {
		if isWriteLevel(s.Level) {
			out = append(out, s.Name)
		}
	}
	return out
}

// GrantsWrite reports whether any scope, or the blanket, grants write access.
func (p *Permissions) GrantsWrite() bool {
	return len(p.WriteScopes()) > 0
}

// String renders the permissions compactly, e.g. {contents: write}.
func (p *Permissions) String() string {
	if p == nil {
		return "<none>"
	}
	if p.Blanket != "" {
		return p.Blanket
	}
	parts := make([]string, 0, len(p.Scopes))
	for _, s := range p.Scopes {
		parts = append(parts, s.Name+": "+s.Level)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func isWriteLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelWrite, BlanketWrite:
		return true
	}
	return false
}
