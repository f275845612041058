// Package store provides SQLite-backed storage for benchmark runs.
//
// A run records which task, model, scorer and system prompt were used; each
// result records one sample's verdict, final output and, for simulated
// episodes, the full transcript.
//
// # Ordering
//
// Results carry seq, the sample's position in the task dataset. All reads
// order by seq ASC, sample_id ASC COLLATE BINARY, so a report is identical
// no matter in which order concurrent samples finished.
//
// # Idempotency
//
// A run holds at most one result per sample: writing the same
// (run_id, sample_id) twice keeps the first row.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
