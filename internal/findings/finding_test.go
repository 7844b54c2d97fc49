package findings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountFindings(t *testing.T) {
	fs := []Finding{
		{RuleID: FloatingTag},
		{RuleID: BroadPermissions},
		{RuleID: FloatingTag},
	}
	c := CountFindings(fs)
	assert.Equal(t, Counts{FloatingTag: 2, MissingTimeout: 0, BroadPermissions: 1}, c)
	assert.Equal(t, 3, c.Total())

	empty := CountFindings(nil)
	assert.Len(t, empty, len(RuleIDs), "every rule is present even with zero findings")
	assert.Equal(t, 0, empty.Total())
}

func TestCountsMergeIsOrderIndependent(t *testing.T) {
	a := Counts{FloatingTag: 1, MissingTimeout: 2}
	b := Counts{MissingTimeout: 3, BroadPermissions: 4}
	c := Counts{FloatingTag: 5}

	left := NewCounts().Merge(a).Merge(b).Merge(c)
	right := NewCounts().Merge(c).Merge(b).Merge(a)
	assert.Equal(t, left, right)
	assert.Equal(t, Counts{FloatingTag: 6, MissingTimeout: 5, BroadPermissions: 4}, left)

	var zero Counts
	merged := zero.Merge(a)
	assert.Equal(t, 1, merged[FloatingTag])
	assert.Equal(t, 0, merged[BroadPermissions])
}

func TestCountsOrdered(t *testing.T) {
	c := Counts{BroadPermissions: 1, "X_CUSTOM": 2, "A_CUSTOM": 3}
	got := c.Ordered()
	assert.Equal(t, []RuleCount{
		{RuleID: FloatingTag, Count: 0},
		{RuleID: MissingTimeout, Count: 0},
		{RuleID: BroadPermissions, Count: 1},
		{RuleID: "A_CUSTOM", Count: 3},
		{RuleID: "X_CUSTOM", Count: 2},
	}, got)
}

func TestFindingLocators(t *testing.T) {
	assert.Equal(t, "job:build", WhereJob("build"))
	assert.Equal(t, "job:build:step:3", WhereStep("build", 3))

	f := Finding{RuleID: MissingTimeout, FilePath: "ci.yml", JobKey: JobRef("build"), Where: WhereJob("build"), Message: "job has no timeout-minutes"}
	assert.Equal(t, "build", f.Job())
	assert.Equal(t, "[S2_MISSING_TIMEOUT] ci.yml job:build :: job has no timeout-minutes", f.String())
	assert.Equal(t, "", Finding{}.Job())

	assert.True(t, BroadPermissions.Valid())
	assert.False(t, RuleID("S9").Valid())
}
