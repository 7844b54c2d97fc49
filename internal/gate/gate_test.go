package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/ghasmell/internal/findings"
)

func TestGateEvaluate(t *testing.T) {
	clean := Input{Counts: findings.NewCounts(), Documents: 3}
	smelly := Input{
		Counts: findings.Counts{
			findings.FloatingTag:      2,
			findings.MissingTimeout:   0,
			findings.BroadPermissions: 1,
		},
		Documents: 3,
		Failed:    1,
	}

	testCases := []struct {
		name string
		expr string
		in   Input
		want bool
	}{
		{name: "default clean", expr: "", in: clean, want: false},
		{name: "default smelly", expr: "", in: smelly, want: true},
		{name: "shorthand", expr: "s1 > 1", in: smelly, want: true},
		{name: "shorthand below threshold", expr: "s3 > 1", in: smelly, want: false},
		{name: "counts map", expr: `counts["S2_MISSING_TIMEOUT"] > 0`, in: smelly, want: false},
		{name: "parse failures", expr: "failed > 0", in: smelly, want: true},
		{name: "combined", expr: "s1 + s3 >= 3 && documents == 3", in: smelly, want: true},
		{name: "never", expr: "false", in: smelly, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := Compile(tc.expr)
			require.NoError(t, err)

			got, err := g.Evaluate(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	testCases := []struct {
		name string
		expr string
	}{
		{name: "syntax", expr: "total >"},
		{name: "unknown variable", expr: "s4 > 0"},
		{name: "not bool", expr: "total + 1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.expr)
			assert.Error(t, err)
		})
	}
}

func TestGateString(t *testing.T) {
	g, err := Compile("  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultExpression, g.String())
}
