package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/hoabench/internal/model"
	"github.com/roach88/hoabench/internal/score"
)

// Run is one execution of a task against a model.
type Run struct {
	ID           string
	Task         string
	Model        string
	Scorer       string
	PromptDigest string
	SampleCount  int

	// Config is the effective run configuration as JSON.
	Config string

	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is in progress
}

// Finished reports whether FinishRun has been recorded.
func (r Run) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// Result is one sample's verdict within a run.
type Result struct {
	RunID        string
	Seq          int64
	SampleID     string
	SampleDigest string
	Category     string
	Difficulty   string

	Status      score.Status
	Value       float64
	Explanation string
	Error       string

	Output        string
	Transcript    []model.Message
	EpisodeState  string
	EpisodeDigest string

	Duration time.Duration
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs, so listing runs
// by ID also lists them by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined run IDs for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
// Panics when all IDs are consumed, to catch test misconfiguration.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
