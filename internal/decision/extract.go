package decision

import (
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches any decision spelled with underscores, spaces or
// hyphens. Longer alternatives come first so that "no_violation" is never
// consumed as "violation".
var tokenPattern = buildTokenPattern()

// labeledRE matches an explicit "Decision: <value>" label, tolerating
// markdown emphasis and numbering such as "1. **Decision:** deny".
var labeledRE = regexp.MustCompile(`(?i)\bdecision\b[\s*_` + "`" + `]*[:=\-][\s*_` + "`" + `]*(` + tokenPattern + `)\b`)

var anyRE = regexp.MustCompile(`(?i)\b(` + tokenPattern + `)\b`)

// negatedRE matches a negation ending right before a mention, allowing one
// filler word: "cannot approve", "is not a violation", "won't deny".
var negatedRE = regexp.MustCompile(`(?i)\b(?:not|never|cannot|unable\s+to|(?:can|won|isn|couldn|wouldn|shouldn|don|doesn)['\x{2019}]?t)(?:\s+[a-z]+)?\s+$`)

func buildTokenPattern() string {
	names := Names()
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })
	alts := make([]string, len(names))
	for i, n := range names {
		alts[i] = strings.ReplaceAll(n, "_", `[\s_\-]`)
	}
	return strings.Join(alts, "|")
}

// Extract finds the decision a free-text answer commits to.
//
// An explicit "Decision: X" label wins. Otherwise the earliest enumerated
// value that is not negated is used, so "I cannot approve this" does not
// count as approve. The second return value is false when the text commits
// to no decision at all.
func Extract(text string) (Decision, bool) {
	if m := labeledRE.FindStringSubmatch(text); m != nil {
		if d, err := Parse(m[1]); err == nil {
			return d, true
		}
	}
	for _, loc := range anyRE.FindAllStringSubmatchIndex(text, -1) {
		if negatedRE.MatchString(text[:loc[0]]) {
			continue
		}
		if d, err := Parse(text[loc[2]:loc[3]]); err == nil {
			return d, true
		}
	}
	return "", false
}
