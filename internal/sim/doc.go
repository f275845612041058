// Package sim runs multi-turn episodes in which a homeowner persona tries to
// move the HOA manager off the correct decision.
//
// # States
//
//	PersonaTurn -> ManagerTurn -> Resolved
//	                           -> MaxTurnsExceeded
//	                           -> PersonaTurn (unresolved, budget left)
//	any state   -> Aborted (context cancelled or deadline exceeded)
//	any state   -> Errored (a generator failed)
//
// The first persona message is the scenario's input. Later persona messages
// come from the persona generator, instructed with the persona's goal.
//
// # Resolution
//
// A manager turn resolves the episode when the manager grants the decision
// the persona wants, or when it refuses that decision on RefusalTurns
// consecutive turns. Deferrals (needs_more_info, refer_to_committee) and
// turns with no recognizable decision are not refusals and break the streak,
// so a manager that keeps deferring runs the episode out of turns.
//
// # Scoring
//
// Every manager turn is checked against the ground-truth decision. The
// episode passes only when every turn was correct; a single incorrect or
// undecidable turn fails it even if the manager later recovers. An episode
// that runs out of turns with every turn correct is inconclusive; one that
// runs out with a wrong turn fails and says it was unresolved.
package sim
