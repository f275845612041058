package scenario

import "path/filepath"

// Filter selects samples for a run. Zero-valued fields match everything.
type Filter struct {
	// IDs keeps only samples whose id matches one of these glob patterns.
	IDs []string

	Category   string
	Difficulty string

	// Limit caps the number of samples kept; 0 means no limit.
	Limit int
}

// Apply returns the matching samples, preserving input order.
func (f Filter) Apply(samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		if f.Category != "" && s.Metadata.Category != f.Category {
			continue
		}
		if f.Difficulty != "" && s.Metadata.Difficulty != f.Difficulty {
			continue
		}
		if len(f.IDs) > 0 && !matchAny(f.IDs, s.Metadata.ID) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// IsZero reports whether the filter keeps every sample.
func (f Filter) IsZero() bool {
	return len(f.IDs) == 0 && f.Category == "" && f.Difficulty == "" && f.Limit == 0
}

func matchAny(patterns []string, id string) bool {
	for _, p := range patterns {
		if ok, err := filepath.Match(p, id); err == nil && ok {
			return true
		}
	}
	return false
}
