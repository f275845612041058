// Package harness runs a task over its dataset and reports the verdicts.
//
// Samples are independent: they run concurrently up to Options.Concurrency,
// each under its own timeout, and one sample's failure never cancels
// another. Errors live in verdicts, so Run itself only fails when results
// cannot be recorded.
//
// # Report
//
// A Report lists one entry per sample in dataset order regardless of
// completion order, and counts pass, partial, fail, errored, inconclusive
// and aborted separately. Snapshot renders it as canonical JSON for golden
// comparison; durations are excluded so snapshots are reproducible.
package harness
