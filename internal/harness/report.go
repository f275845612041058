package harness

import (
	"fmt"
	"sort"
	"time"

	"github.com/roach88/hoabench/internal/fingerprint"
	"github.com/roach88/hoabench/internal/score"
	"github.com/roach88/hoabench/internal/store"
	"github.com/roach88/hoabench/internal/task"
)

// Entry is one sample's line in a report.
type Entry struct {
	SampleID    string        `json:"sample_id"`
	Category    string        `json:"category"`
	Difficulty  string        `json:"difficulty"`
	Status      score.Status  `json:"status"`
	Value       float64       `json:"value"`
	Explanation string        `json:"explanation,omitempty"`
	Output      string        `json:"output,omitempty"`
	Turns       int           `json:"turns,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

// Report summarizes a run.
type Report struct {
	Task         string               `json:"task"`
	PromptDigest string               `json:"prompt_digest"`
	Scorer       string               `json:"scorer"`
	Total        int                  `json:"total"`
	Counts       map[score.Status]int `json:"counts"`
	Entries      []Entry              `json:"entries"`
	Duration     time.Duration        `json:"duration_ns"`
}

// NewReport builds a report from results in dataset order.
func NewReport(taskName, promptDigest, scorer string, results []task.Result) *Report {
	entries := make([]Entry, len(results))
	for i, res := range results {
		e := Entry{
			SampleID:    res.Sample.Metadata.ID,
			Category:    res.Sample.Metadata.Category,
			Difficulty:  res.Sample.Metadata.Difficulty,
			Status:      res.Verdict.Status,
			Value:       res.Verdict.Value,
			Explanation: res.Verdict.Explanation,
			Output:      res.Outcome.Output,
			Duration:    res.Duration,
		}
		if ep := res.Outcome.Episode; ep != nil {
			e.Turns = len(ep.Turns)
		}
		entries[i] = e
	}
	return newReport(taskName, promptDigest, scorer, entries)
}

// FromStore rebuilds the report of a recorded run.
func FromStore(run store.Run, results []store.Result) *Report {
	entries := make([]Entry, len(results))
	for i, r := range results {
		entries[i] = Entry{
			SampleID:    r.SampleID,
			Category:    r.Category,
			Difficulty:  r.Difficulty,
			Status:      r.Status,
			Value:       r.Value,
			Explanation: r.Explanation,
			Output:      r.Output,
			Turns:       len(r.Transcript) / 2,
			Duration:    r.Duration,
		}
	}
	rep := newReport(run.Task, run.PromptDigest, run.Scorer, entries)
	if run.Finished() {
		rep.Duration = run.FinishedAt.Sub(run.StartedAt)
	}
	return rep
}

func newReport(taskName, promptDigest, scorer string, entries []Entry) *Report {
	counts := make(map[score.Status]int, len(score.Statuses()))
	for _, st := range score.Statuses() {
		counts[st] = 0
	}
	for _, e := range entries {
		counts[e.Status]++
	}
	return &Report{
		Task:         taskName,
		PromptDigest: promptDigest,
		Scorer:       scorer,
		Total:        len(entries),
		Counts:       counts,
		Entries:      entries,
	}
}

// Count returns the number of samples with status s.
func (r *Report) Count(s score.Status) int {
	return r.Counts[s]
}

// Graded returns the number of samples that received a pass, partial or
// fail grade.
func (r *Report) Graded() int {
	n := 0
	for _, e := range r.Entries {
		if e.Status.Graded() {
			n++
		}
	}
	return n
}

// Mean is the average value over graded samples. Errored, aborted and
// inconclusive samples are excluded rather than counted as zero.
func (r *Report) Mean() float64 {
	var sum float64
	n := 0
	for _, e := range r.Entries {
		if e.Status.Graded() {
			sum += e.Value
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Clean reports whether every sample passed.
func (r *Report) Clean() bool {
	return r.Count(score.StatusPass) == r.Total
}

// CategorySummary aggregates a report by scenario category.
type CategorySummary struct {
	Category string
	Total    int
	Counts   map[score.Status]int
}

// ByCategory groups entries by category, sorted by name.
func (r *Report) ByCategory() []CategorySummary {
	index := make(map[string]*CategorySummary)
	for _, e := range r.Entries {
		cs, ok := index[e.Category]
		if !ok {
			cs = &CategorySummary{Category: e.Category, Counts: make(map[score.Status]int)}
			index[e.Category] = cs
		}
		cs.Total++
		cs.Counts[e.Status]++
	}

	out := make([]CategorySummary, 0, len(index))
	for _, cs := range index {
		out = append(out, *cs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

// Snapshot renders the report as canonical JSON without timings.
func (r *Report) Snapshot() ([]byte, error) {
	entries := make([]any, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = fingerprint.Object{
			"sample_id":   e.SampleID,
			"category":    e.Category,
			"difficulty":  e.Difficulty,
			"status":      string(e.Status),
			"explanation": e.Explanation,
			"output":      e.Output,
			"turns":       e.Turns,
		}
	}
	counts := fingerprint.Object{}
	for _, st := range score.Statuses() {
		counts[string(st)] = r.Counts[st]
	}

	data, err := fingerprint.MarshalCanonical(fingerprint.Object{
		"task":          r.Task,
		"prompt_digest": r.PromptDigest,
		"scorer":        r.Scorer,
		"total":         r.Total,
		"counts":        counts,
		"mean":          fmt.Sprintf("%.4f", r.Mean()),
		"entries":       entries,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot report: %w", err)
	}
	return data, nil
}
