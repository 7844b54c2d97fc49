// Package gate decides whether a scan fails based on a CEL expression over
// its aggregate counts.
package gate

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/scan-io-git/ghasmell/internal/findings"
)

// DefaultExpression fails the scan on any finding.
const DefaultExpression = "total > 0"

// Variables exposed to gate expressions.
const (
	varTotal     = "total"
	varCounts    = "counts"
	varDocuments = "documents"
	varFailed    = "failed"
)

// shortNames maps each rule to its expression shorthand.
var shortNames = map[findings.RuleID]string{
	findings.FloatingTag:      "s1",
	findings.MissingTimeout:   "s2",
	findings.BroadPermissions: "s3",
}

// Input is the data a gate expression is evaluated against.
type Input struct {
	Counts    findings.Counts
	Documents int
	Failed    int
}

// Gate is a compiled expression.
type Gate struct {
	expr    string
	program cel.Program
}

// Compile parses and type-checks expr. An empty expression selects DefaultExpression.
func Compile(expr string) (*Gate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = DefaultExpression
	}

	opts := []cel.EnvOption{
		cel.Variable(varTotal, cel.IntType),
		cel.Variable(varCounts, cel.MapType(cel.StringType, cel.IntType)),
		cel.Variable(varDocuments, cel.IntType),
		cel.Variable(varFailed, cel.IntType),
	}
	for _, id := range findings.RuleIDs {
		opts = append(opts, cel.Variable(shortNames[id], cel.IntType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gate environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("invalid gate expression %q: %w", expr, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("gate expression %q must evaluate to bool, got %s", expr, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build gate program: %w", err)
	}
	return &Gate{expr: expr, program: prg}, nil
}

// String returns the source expression.
func (g *Gate) String() string {
	return g.expr
}

// Evaluate reports whether the gate trips for in.
func (g *Gate) Evaluate(in Input) (bool, error) {
	counts := make(map[string]int64, len(in.Counts))
	vars := map[string]interface{}{
		varTotal:     int64(in.Counts.Total()),
		varDocuments: int64(in.Documents),
		varFailed:    int64(in.Failed),
	}
	for id, n := range in.Counts {
		counts[string(id)] = int64(n)
	}
	for _, id := range findings.RuleIDs {
		vars[shortNames[id]] = int64(in.Counts[id])
	}
	vars[varCounts] = counts

	out, _, err := g.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("failed to evaluate gate %q: %w", g.expr, err)
	}
	tripped, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("gate %q produced %T, want bool", g.expr, out.Value())
	}
	return tripped, nil
}
