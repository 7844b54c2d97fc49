package report

import (
	"io"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/ghasmell/internal/findings"
	"github.com/scan-io-git/ghasmell/internal/rules"
)

// sarifLevel is used for every result; findings are potential smells.
const sarifLevel = "warning"

func writeSARIF(w io.Writer, r *Report) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}

	run := sarif.NewRunWithInformationURI(r.Tool.Name, r.Tool.InformationURI)
	if r.Tool.Version != "" {
		version := r.Tool.Version
		run.Tool.Driver.Version = &version
	}

	for _, rule := range r.Rules {
		run.AddRule(string(rule.ID)).
			WithShortDescription(sarif.NewMultiformatMessageString(rule.Summary)).
			WithHelp(sarif.NewMultiformatMessageString(rule.Help)).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{Level: sarifLevel}).
			WithProperties(sarif.Properties{"tags": []string{"github-actions", "ci-configuration"}})
	}

	for _, f := range r.Result.Findings {
		region := sarif.NewRegion()
		if f.Line > 0 {
			region = region.WithStartLine(f.Line)
			if f.Column > 0 {
				region = region.WithStartColumn(f.Column)
			}
		}
		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(r.relPath(f.FilePath))).
				WithRegion(region),
		)

		result := sarif.NewRuleResult(string(f.RuleID)).
			WithMessage(sarif.NewTextMessage(f.Message)).
			WithLevel(sarifLevel).
			WithLocations([]*sarif.Location{location})
		result.Properties = findingProperties(f)
		run.AddResult(result)
	}

	if len(r.Result.ParseErrors) > 0 {
		failed := make([]map[string]string, 0, len(r.Result.ParseErrors))
		for _, pe := range r.Result.ParseErrors {
			failed = append(failed, map[string]string{
				"path":  r.relPath(pe.Path),
				"error": pe.Err.Error(),
			})
		}
		run.Properties = sarif.Properties{"parseErrors": failed}
	}

	report.AddRun(run)
	return report.PrettyWrite(w)
}

func findingProperties(f findings.Finding) sarif.Properties {
	props := sarif.Properties{"where": f.Where}
	if f.JobKey != nil {
		props["job"] = *f.JobKey
	}
	if f.Evidence == "" {
		return props
	}
	props["evidence"] = f.Evidence

	if f.RuleID == findings.FloatingTag {
		if f.Kind != "" {
			props["refKind"] = f.Kind
		}
		if url, err := rules.ClassifyRef(f.Evidence).RepositoryURL(); err == nil {
			props["actionRepository"] = url
		}
	}
	if f.RuleID == findings.BroadPermissions {
		props["writeScopes"] = strings.Split(f.Evidence, ",")
	}
	return props
}
