package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/ghasmell/internal/findings"
	"github.com/scan-io-git/ghasmell/internal/workflow"
)

const testPath = ".github/workflows/ci.yml"

func parse(t *testing.T, content string) *workflow.Document {
	t.Helper()
	doc, err := workflow.Parse(testPath, []byte(content))
	require.NoError(t, err)
	return doc
}

func evalRule(t *testing.T, r Rule, content string) []findings.Finding {
	t.Helper()
	return r.Eval(parse(t, content))
}

func stepsWorkflow(uses string) string {
	return `
jobs:
  build:
    timeout-minutes: 10
    steps:
      - uses: ` + uses + `
`
}

func TestFloatingTagRule(t *testing.T) {
	rule := FloatingTagRule(NewClassifier(nil))

	tests := []struct {
		name      string
		uses      string
		wantFires bool
	}{
		{name: "version tag is pinned", uses: "actions/checkout@v4", wantFires: false},
		{name: "sha is pinned", uses: "actions/checkout@a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6a7b8c9d0", wantFires: false},
		{name: "main branch floats", uses: "actions/checkout@main", wantFires: true},
		{name: "missing ref floats", uses: "actions/checkout", wantFires: true},
		{name: "local path floats", uses: "./.github/actions/setup", wantFires: true},
		{name: "feature branch floats", uses: "org/action@feature-x", wantFires: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := evalRule(t, rule, stepsWorkflow(tt.uses))
			if !tt.wantFires {
				assert.Empty(t, fs)
				return
			}
			require.Len(t, fs, 1)
			f := fs[0]
			assert.Equal(t, findings.FloatingTag, f.RuleID)
			assert.Equal(t, testPath, f.FilePath)
			require.NotNil(t, f.JobKey)
			assert.Equal(t, "build", *f.JobKey)
			assert.Equal(t, "job:build:step:0", f.Where)
			assert.Equal(t, tt.uses, f.Evidence)
			assert.Contains(t, f.Message, tt.uses)
			assert.Equal(t, 6, f.Line)
		})
	}
}

func TestFloatingTagRuleSkipsRunSteps(t *testing.T) {
	content := `
jobs:
  test:
    steps:
      - run: make test
      - uses: ""
      - name: only a name
`
	assert.Empty(t, evalRule(t, FloatingTagRule(NewClassifier(nil)), content))
}

func TestFloatingTagRuleReusableWorkflow(t *testing.T) {
	content := `
jobs:
  call:
    uses: org/repo/.github/workflows/deploy.yml@main
  pinned:
    uses: org/repo/.github/workflows/deploy.yml@v2
`
	fs := evalRule(t, FloatingTagRule(NewClassifier(nil)), content)
	require.Len(t, fs, 1)
	assert.Equal(t, "job:call", fs[0].Where)
	assert.Equal(t, "call", fs[0].Job())
}

func TestFloatingTagRuleOnePerStep(t *testing.T) {
	content := `
jobs:
  a:
    steps:
      - uses: actions/checkout@main
      - uses: actions/setup-go@v5
      - uses: actions/cache
  b:
    steps:
      - uses: ./local
`
	fs := evalRule(t, FloatingTagRule(NewClassifier(nil)), content)
	require.Len(t, fs, 3)
	assert.Equal(t, []string{"job:a:step:0", "job:a:step:2", "job:b:step:0"}, []string{fs[0].Where, fs[1].Where, fs[2].Where})
	assert.Contains(t, fs[1].Message, "<none>")
	assert.Equal(t, []string{"branch", "missing ref", "local path"}, []string{fs[0].Kind, fs[1].Kind, fs[2].Kind})
}

func TestMissingTimeoutRule(t *testing.T) {
	content := `
timeout-minutes: 30
jobs:
  none:
    runs-on: ubuntu-latest
  zero:
    timeout-minutes: 0
  expr:
    timeout-minutes: ${{ inputs.minutes }}
`
	fs := evalRule(t, MissingTimeoutRule(), content)
	require.Len(t, fs, 1, "workflow-level timeout is not inherited and zero counts as declared")
	assert.Equal(t, findings.MissingTimeout, fs[0].RuleID)
	assert.Equal(t, "none", fs[0].Job())
	assert.Equal(t, "job has no timeout-minutes", fs[0].Message)
	assert.Equal(t, "job:none", fs[0].Where)
}

func TestMissingTimeoutRuleChecksPresenceOnly(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "mapping", value: "{x: 1}"},
		{name: "sequence", value: "[5]"},
		{name: "null", value: "~"},
		{name: "text", value: "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := "jobs:\n  a:\n    timeout-minutes: " + tt.value + "\n    steps: []\n"
			assert.Empty(t, evalRule(t, MissingTimeoutRule(), content))
		})
	}
}

func TestBroadPermissionsRuleWorkflowLevel(t *testing.T) {
	content := `
permissions:
  contents: write
jobs:
  build:
    steps:
      - run: echo
`
	fs := evalRule(t, BroadPermissionsRule(), content)
	require.Len(t, fs, 1, "inherited write access is not re-flagged per job")
	assert.Nil(t, fs[0].JobKey)
	assert.Equal(t, findings.WhereWorkflow, fs[0].Where)
	assert.Equal(t, "contents", fs[0].Evidence)
	assert.Equal(t, "workflow-level permissions={contents: write}", fs[0].Message)
}

func TestBroadPermissionsRuleJobLevel(t *testing.T) {
	content := `
jobs:
  triage:
    permissions:
      issues: write
  readonly:
    permissions:
      contents: read
`
	fs := evalRule(t, BroadPermissionsRule(), content)
	require.Len(t, fs, 1)
	require.NotNil(t, fs[0].JobKey)
	assert.Equal(t, "triage", *fs[0].JobKey)
	assert.Equal(t, "job:triage", fs[0].Where)
}

func TestBroadPermissionsRuleBothLevels(t *testing.T) {
	content := `
permissions: write-all
jobs:
  a:
    permissions:
      packages: write
      contents: write
  b:
    permissions: read-all
  c:
    runs-on: x
`
	fs := evalRule(t, BroadPermissionsRule(), content)
	require.Len(t, fs, 2, "one finding per level, not per scope")
	assert.Nil(t, fs[0].JobKey)
	assert.Equal(t, "*", fs[0].Evidence)
	assert.Equal(t, "a", fs[1].Job())
	assert.Equal(t, "packages,contents", fs[1].Evidence)
}

func TestAllAndSelect(t *testing.T) {
	all := All(Options{})
	require.Len(t, all, 3)
	assert.Equal(t, []findings.RuleID{findings.FloatingTag, findings.MissingTimeout, findings.BroadPermissions},
		[]findings.RuleID{all[0].ID, all[1].ID, all[2].ID})
	for _, r := range all {
		assert.NotEmpty(t, r.Summary)
		assert.NotEmpty(t, r.Help)
		assert.NotNil(t, r.Eval)
	}

	selected := Select(all, []string{" s2_missing_timeout "})
	require.Len(t, selected, 2)
	_, ok := Get(selected, "S2_MISSING_TIMEOUT")
	assert.False(t, ok)
	r, ok := Get(selected, "s1_floating_tag")
	require.True(t, ok)
	assert.Equal(t, findings.FloatingTag, r.ID)
}

func TestRulesAreOrderIndependent(t *testing.T) {
	content := `
permissions:
  contents: write
jobs:
  a:
    steps:
      - uses: actions/checkout@main
  b:
    timeout-minutes: 5
    permissions:
      issues: write
`
	doc := parse(t, content)
	all := All(Options{})

	forward := findings.NewCounts()
	for _, r := range all {
		forward.Merge(findings.CountFindings(r.Eval(doc)))
	}
	backward := findings.NewCounts()
	for i := len(all) - 1; i >= 0; i-- {
		backward.Merge(findings.CountFindings(all[i].Eval(doc)))
	}
	assert.Equal(t, forward, backward)
	assert.Equal(t, findings.Counts{
		findings.FloatingTag:      1,
		findings.MissingTimeout:   1,
		findings.BroadPermissions: 2,
	}, forward)
}
