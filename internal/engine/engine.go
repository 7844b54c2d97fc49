package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/ghasmell/internal/findings"
	"github.com/scan-io-git/ghasmell/internal/rules"
	"github.com/scan-io-git/ghasmell/internal/workflow"
)

// Source is the content of one candidate workflow file.
type Source struct {
	Path    string
	Content []byte
}

// Result is the outcome of one run over a set of sources.
type Result struct {
	RunID       string                 `json:"run_id"`
	Documents   int                    `json:"documents"`
	Findings    []findings.Finding     `json:"findings"`
	ParseErrors []*workflow.ParseError `json:"-"`
	Counts      findings.Counts        `json:"counts"`
}

// FailedFiles lists the paths of documents that could not be parsed.
func (r *Result) FailedFiles() []string {
	out := make([]string, 0, len(r.ParseErrors))
	for _, e := range r.ParseErrors {
		out = append(out, e.Path)
	}
	return out
}

// Engine evaluates rules against workflow documents.
type Engine struct {
	rules          []rules.Rule // Rules applied to every document
	concurrentJobs int          // Number of documents processed at once
	logger         hclog.Logger // Logger for logging messages and errors
}

// New creates an engine. A concurrency below one means sequential evaluation.
func New(rs []rules.Rule, concurrentJobs int, logger hclog.Logger) *Engine {
	if concurrentJobs < 1 {
		concurrentJobs = 1
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{
		rules:          rs,
		concurrentJobs: concurrentJobs,
		logger:         logger,
	}
}

// outcome is the per-document slot filled by a worker.
type outcome struct {
	evaluated bool
	findings  []findings.Finding
	counts    findings.Counts
	parseErr  *workflow.ParseError
}

// Run loads, extracts and evaluates every source exactly once. Findings keep
// the order of the sources regardless of which worker finishes first. When ctx
// is done no further documents are started.
func (e *Engine) Run(ctx context.Context, sources []Source) *Result {
	return e.run(ctx, len(sources), func(i int) (string, *workflow.Document, error) {
		doc, err := workflow.Parse(sources[i].Path, sources[i].Content)
		return sources[i].Path, doc, err
	})
}

// ScanFiles reads each path from disk and evaluates it. Unreadable files are
// reported as parse errors.
func (e *Engine) ScanFiles(ctx context.Context, paths []string) *Result {
	return e.run(ctx, len(paths), func(i int) (string, *workflow.Document, error) {
		root, err := workflow.LoadFile(paths[i])
		if err != nil {
			return paths[i], nil, err
		}
		return paths[i], workflow.Extract(paths[i], root), nil
	})
}

func (e *Engine) run(ctx context.Context, n int, load func(i int) (string, *workflow.Document, error)) *Result {
	runID := uuid.NewString()
	e.logger.Info("scan starting", "run", runID, "documents", n, "goroutines", e.concurrentJobs, "rules", len(e.rules))

	slots := make([]outcome, n)
	forEachBounded(ctx, e.concurrentJobs, n, func(i int) {
		path, doc, err := load(i)
		if err != nil {
			var parseErr *workflow.ParseError
			if !errors.As(err, &parseErr) {
				parseErr = &workflow.ParseError{Path: path, Err: err}
			}
			e.logger.Warn("failed to parse workflow", "path", path, "error", parseErr.Err)
			slots[i] = outcome{evaluated: true, parseErr: parseErr}
			return
		}
		for _, skip := range doc.Skips {
			e.logger.Debug("skipped malformed entry", "path", path, "where", skip.Where, "line", skip.Line, "reason", skip.Reason)
		}
		fs := e.Evaluate(doc)
		slots[i] = outcome{evaluated: true, findings: fs, counts: findings.CountFindings(fs)}
	})

	res := &Result{RunID: runID, Findings: []findings.Finding{}, Counts: findings.NewCounts()}
	for _, o := range slots {
		if !o.evaluated {
			continue
		}
		if o.parseErr != nil {
			res.ParseErrors = append(res.ParseErrors, o.parseErr)
			continue
		}
		res.Documents++
		res.Findings = append(res.Findings, o.findings...)
		res.Counts = res.Counts.Merge(o.counts)
	}

	if err := ctx.Err(); err != nil {
		e.logger.Warn("scan interrupted", "run", runID, "error", err, "evaluated", res.Documents+len(res.ParseErrors), "total", n)
	}
	e.logger.Info("scan finished", "run", runID, "documents", res.Documents, "failed", len(res.ParseErrors), "findings", len(res.Findings))
	return res
}

// Evaluate applies every rule to one document, in rule order.
func (e *Engine) Evaluate(doc *workflow.Document) []findings.Finding {
	var out []findings.Finding
	for _, r := range e.rules {
		out = append(out, r.Eval(doc)...)
	}
	return out
}

// forEachBounded calls f for indexes 0..n-1 with at most limit goroutines in
// flight. Indexes not yet started when ctx is done are skipped.
func forEachBounded(ctx context.Context, limit, n int, f func(i int)) {
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f(i)
			<-guard
		}(i)
	}
	wg.Wait()
}
