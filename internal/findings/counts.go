package findings

import "sort"

// Counts is the number of findings per rule over a run.
// The zero value is usable; NewCounts pre-populates every known rule.
type Counts map[RuleID]int

// NewCounts returns counts with a zero entry for every known rule.
func NewCounts() Counts {
	c := make(Counts, len(RuleIDs))
	for _, id := range RuleIDs {
		c[id] = 0
	}
	return c
}

// CountFindings reduces a finding sequence into per-rule counts.
func CountFindings(fs []Finding) Counts {
	c := NewCounts()
	for _, f := range fs {
		c[f.RuleID]++
	}
	return c
}

// Merge adds other into c. Merging is commutative and associative, so partial
// counts may be combined in any completion order.
func (c Counts) Merge(other Counts) Counts {
	if c == nil {
		c = NewCounts()
	}
	for id, n := range other {
		c[id] += n
	}
	return c
}

// Total is the sum over all rules.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Ordered returns the counts following RuleIDs, then any unknown ids.
func (c Counts) Ordered() []RuleCount {
	out := make([]RuleCount, 0, len(c))
	seen := make(map[RuleID]bool, len(RuleIDs))
	for _, id := range RuleIDs {
		out = append(out, RuleCount{RuleID: id, Count: c[id]})
		seen[id] = true
	}
	var extra []RuleCount
	for id, n := range c {
		if !seen[id] {
			extra = append(extra, RuleCount{RuleID: id, Count: n})
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].RuleID < extra[j].RuleID })
	return append(out, extra...)
}

// RuleCount is one row of the summary.
type RuleCount struct {
	RuleID RuleID `json:"rule_id"`
	Count  int    `json:"count"`
}
