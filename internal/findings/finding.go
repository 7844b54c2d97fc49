package findings

import "fmt"

// RuleID identifies the smell a finding belongs to.
type RuleID string

const (
	FloatingTag      RuleID = "S1_FLOATING_TAG"
	MissingTimeout   RuleID = "S2_MISSING_TIMEOUT"
	BroadPermissions RuleID = "S3_BROAD_PERMISSIONS"
)

const (
	WhereWorkflow   = "workflow"
	whereJobFormat  = "job:%s"
	whereStepFormat = "job:%s:step:%d"
)

// RuleIDs lists every known rule in report order.
var RuleIDs = []RuleID{FloatingTag, MissingTimeout, BroadPermissions}

// Valid reports whether the id names a known rule.
func (id RuleID) Valid() bool {
	for _, known := range RuleIDs {
		if id == known {
			return true
		}
	}
	return false
}

// Finding is a single smell detected in a workflow document.
type Finding struct {
	RuleID   RuleID  `json:"rule_id"`
	FilePath string  `json:"file_path"`
	JobKey   *string `json:"job_key,omitempty"` // nil for workflow-level findings
	Where    string  `json:"where"`
	Message  string  `json:"message"`
	Evidence string  `json:"evidence,omitempty"`
	Kind     string  `json:"kind,omitempty"` // rule-specific classification, e.g. the ref kind of S1

	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// Job returns the job key or an empty string for workflow-level findings.
func (f Finding) Job() string {
	if f.JobKey == nil {
		return ""
	}
	return *f.JobKey
}

// String renders the finding the way the text report prints it.
func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s %s :: %s", f.RuleID, f.FilePath, f.Where, f.Message)
}

// WhereJob builds the locator of a job-level finding.
func WhereJob(job string) string {
	return fmt.Sprintf(whereJobFormat, job)
}

// WhereStep builds the locator of a step-level finding.
func WhereStep(job string, index int) string {
	return fmt.Sprintf(whereStepFormat, job, index)
}

// JobRef returns a pointer to a copy of the job key.
func JobRef(job string) *string {
	return &job
}
