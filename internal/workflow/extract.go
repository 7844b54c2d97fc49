package workflow

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const mergeKey = "<<"

// pair is one key/value entry of a YAML mapping.
type pair struct {
	key   string
	keyN  *yaml.Node
	value *yaml.Node
}

// Extract walks a loaded node tree and builds the workflow model. Jobs keep
// their declaration order. Malformed job and step entries are skipped and
// recorded in Document.Skips; they never fail extraction.
func Extract(path string, root *yaml.Node) *Document {
	doc := &Document{Path: path, Root: root}
	root = resolve(root)
	if root == nil || root.Kind != yaml.MappingNode {
		return doc
	}

	for _, p := range pairs(root) {
		switch p.key {
		case keyName:
			doc.Name = scalar(p.value)
		case keyPermission:
			doc.Permissions = doc.extractPermissions("workflow", p.value)
		case keyJobs:
			doc.extractJobs(p.value)
		}
	}
	return doc
}

func (d *Document) skip(where string, n *yaml.Node, format string, args ...any) {
	line := 0
	if n != nil {
		line = n.Line
	}
	d.Skips = append(d.Skips, ExtractionSkip{Where: where, Reason: fmt.Sprintf(format, args...), Line: line})
}

func (d *Document) extractJobs(n *yaml.Node) {
	n = resolve(n)
	if n == nil || isNull(n) {
		return
	}
	if n.Kind != yaml.MappingNode {
		d.skip(keyJobs, n, "jobs is not a mapping")
		return
	}

	seen := make(map[string]bool)
	for _, p := range pairs(n) {
		where := "job:" + p.key
		if seen[p.key] {
			d.skip(where, p.keyN, "duplicate job key")
			continue
		}
		seen[p.key] = true

		value := resolve(p.value)
		if value == nil || value.Kind != yaml.MappingNode {
			d.skip(where, p.keyN, "job is not a mapping")
			continue
		}
		d.Jobs = append(d.Jobs, d.extractJob(p.key, p.keyN, value))
	}
}

func (d *Document) extractJob(key string, keyN, n *yaml.Node) Job {
	job := Job{Key: key, Line: keyN.Line, Column: keyN.Column}
	where := "job:" + key

	for _, p := range pairs(n) {
		switch p.key {
		case keyName:
			job.Name = scalar(p.value)
		case keyUses:
			job.Uses = scalar(p.value)
		case keyTimeout:
			job.Timeout = extractTimeout(p.value)
			if v := resolve(p.value); v != nil && v.Kind != yaml.ScalarNode {
				d.skip(where, v, "timeout-minutes is not a scalar")
			}
		case keyPermission:
			job.Permissions = d.extractPermissions(where, p.value)
		case keySteps:
			job.Steps = d.extractSteps(where, p.value)
		}
	}
	if job.Steps == nil {
		job.Steps = []Step{}
	}
	return job
}

func (d *Document) extractSteps(where string, n *yaml.Node) []Step {
	n = resolve(n)
	steps := []Step{}
	if n == nil || isNull(n) {
		return steps
	}
	if n.Kind != yaml.SequenceNode {
		d.skip(where, n, "steps is not a sequence")
		return steps
	}

	for i, item := range n.Content {
		item = resolve(item)
		if item == nil || item.Kind != yaml.MappingNode {
			d.skip(fmt.Sprintf("%s:step:%d", where, i), item, "step is not a mapping")
			continue
		}
		step := Step{Index: i, Line: item.Line, Column: item.Column}
		for _, p := range pairs(item) {
			switch p.key {
			case keyName:
				step.Name = scalar(p.value)
			case keyUses:
				step.Uses = scalar(p.value)
				if v := resolve(p.value); v != nil {
					step.Line, step.Column = v.Line, v.Column
				}
			case keyRun:
				step.Run = scalar(p.value)
			}
		}
		steps = append(steps, step)
	}
	return steps
}

func (d *Document) extractPermissions(where string, n *yaml.Node) *Permissions {
	n = resolve(n)
	if n == nil {
		return nil
	}
	perms := &Permissions{Line: n.Line, Column: n.Column, Scopes: []Scope{}}

	switch {
	case isNull(n):
		// declared but empty: no scopes granted
	case n.Kind == yaml.ScalarNode:
		perms.Blanket = n.Value
	case n.Kind == yaml.MappingNode:
		for _, p := range pairs(n) {
			level := scalar(p.value)
			if level == nil {
				d.skip(where, p.keyN, "permission %q has a non-scalar level", p.key)
				continue
			}
			perms.Scopes = append(perms.Scopes, Scope{Name: p.key, Level: *level})
		}
	default:
		d.skip(where, n, "permissions is neither a scalar nor a mapping")
		return nil
	}
	return perms
}

// extractTimeout returns a declared timeout for any value under the key.
// Only non-null scalars carry a Raw value.
func extractTimeout(n *yaml.Node) *Timeout {
	t := &Timeout{}
	n = resolve(n)
	if n == nil {
		return t
	}
	if n.Kind == yaml.ScalarNode && !isNull(n) {
		t.Raw = n.Value
	}
	return t
}

// pairs lists the entries of a mapping in order. Entries pulled in through a
// merge key come first and are overridden by explicit keys.
func pairs(n *yaml.Node) []pair {
	var merged, explicit []pair
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := resolve(n.Content[i]), n.Content[i+1]
		if k == nil || k.Kind != yaml.ScalarNode {
			continue
		}
		if k.Value == mergeKey {
			merged = append(merged, mergeSources(v)...)
			continue
		}
		explicit = append(explicit, pair{key: k.Value, keyN: k, value: v})
	}
	if len(merged) == 0 {
		return explicit
	}

	override := make(map[string]bool, len(explicit))
	for _, p := range explicit {
		override[p.key] = true
	}
	out := make([]pair, 0, len(merged)+len(explicit))
	for _, p := range merged {
		if !override[p.key] {
			out = append(out, p)
		}
	}
	return append(out, explicit...)
}

func mergeSources(v *yaml.Node) []pair {
	v = resolve(v)
	if v == nil {
		return nil
	}
	switch v.Kind {
	case yaml.MappingNode:
		return pairs(v)
	case yaml.SequenceNode:
		var out []pair
		for _, item := range v.Content {
			if item = resolve(item); item != nil && item.Kind == yaml.MappingNode {
				out = append(out, pairs(item)...)
			}
		}
		return out
	}
	return nil
}

func scalar(n *yaml.Node) *string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
		return nil
	}
	v := n.Value
	return &v
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}
