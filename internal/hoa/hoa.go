// Package hoa defines the Camino Village HOA tasks and ships their rulebook
// and scenario datasets.
//
// Two tasks are registered with task.Default:
//
//	hoa_static      single-turn answers graded by a fact judge
//	hoa_simulation  multi-turn episodes against a homeowner persona
package hoa

import (
	"embed"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/hoabench/internal/prompt"
	"github.com/roach88/hoabench/internal/rulebook"
	"github.com/roach88/hoabench/internal/scenario"
	"github.com/roach88/hoabench/internal/score"
	"github.com/roach88/hoabench/internal/sim"
	"github.com/roach88/hoabench/internal/task"
)

// Registered task names.
const (
	StaticTask     = "hoa_static"
	SimulationTask = "hoa_simulation"
)

// Embedded resource paths.
const (
	rulesPath      = "resources/rules.yaml"
	staticPath     = "resources/static_scenarios.json"
	simulationPath = "resources/simulation_scenarios.json"
)

//go:embed resources
var resources embed.FS

// Kind selects the solver and scorer pairing of a task.
type Kind string

const (
	KindStatic     Kind = "static"
	KindSimulation Kind = "simulation"
)

// Options customizes Build. Zero values select the embedded resources and
// the defaults of the registered tasks.
type Options struct {
	Kind Kind

	// Name overrides the task name.
	Name string

	// RulesPath and ScenariosPath load resources from disk instead of the
	// embedded copies.
	RulesPath     string
	ScenariosPath string

	// Template overrides prompt.DefaultTemplate.
	Template string

	// Scorer grades static answers. Nil selects score.Fact.
	Scorer score.Scorer

	// Filter narrows the dataset.
	Filter scenario.Filter

	Sim    sim.Config
	Logger *slog.Logger
}

// Static builds the hoa_static task.
func Static() (*task.Task, error) {
	return Build(Options{Kind: KindStatic})
}

// Simulation builds the hoa_simulation task.
func Simulation() (*task.Task, error) {
	return Build(Options{Kind: KindSimulation})
}

// Register adds both tasks to r.
func Register(r *task.Registry) error {
	if err := r.Register(StaticTask, Static); err != nil {
		return err
	}
	return r.Register(SimulationTask, Simulation)
}

func init() {
	if err := Register(task.Default); err != nil {
		panic(err)
	}
}

// Build loads the rulebook and dataset, composes the system prompt once,
// and assembles the task. Any construction error aborts the build.
func Build(opts Options) (*task.Task, error) {
	if opts.Kind == "" {
		opts.Kind = KindStatic
	}

	rb, err := LoadRulebook(opts.RulesPath)
	if err != nil {
		return nil, err
	}
	system, err := prompt.Compose(rb, opts.Template)
	if err != nil {
		return nil, err
	}
	samples, err := LoadSamples(opts.Kind, opts.ScenariosPath)
	if err != nil {
		return nil, err
	}
	if !opts.Filter.IsZero() {
		samples = opts.Filter.Apply(samples)
	}

	var (
		name   string
		desc   string
		solver task.Solver
		scorer task.Scorer
	)
	switch opts.Kind {
	case KindStatic:
		name, desc = StaticTask, "Single-turn HOA manager responses"
		solver = task.SingleTurn{SystemPrompt: system}
		s := opts.Scorer
		if s == nil {
			s = score.Fact{}
		}
		scorer = task.TextScorer{Scorer: s}
	case KindSimulation:
		name, desc = SimulationTask, "Multi-turn conversations with a homeowner persona"
		logger := opts.Logger
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		solver = task.Simulation{SystemPrompt: system, Protocol: sim.NewProtocol(opts.Sim, logger)}
		scorer = task.EpisodeScorer{}
	default:
		return nil, fmt.Errorf("unknown task kind %q", opts.Kind)
	}
	if opts.Name != "" {
		name = opts.Name
	}

	return task.New(name, samples, solver, scorer,
		task.WithSystemPrompt(system),
		task.WithDescription(desc),
	)
}

// LoadRulebook loads the rulebook at path, or the embedded one when path
// is empty.
func LoadRulebook(path string) (*rulebook.Rulebook, error) {
	if path == "" {
		return rulebook.LoadFS(resources, rulesPath)
	}
	return rulebook.Load(path)
}

// LoadSamples loads the dataset at path, or the embedded dataset for kind
// when path is empty.
func LoadSamples(kind Kind, path string) ([]scenario.Sample, error) {
	if path != "" {
		return scenario.Load(path)
	}
	switch kind {
	case KindSimulation:
		return scenario.LoadFS(resources, simulationPath)
	default:
		return scenario.LoadFS(resources, staticPath)
	}
}

// KindOf maps a registered task name to its kind.
func KindOf(name string) (Kind, bool) {
	switch name {
	case StaticTask:
		return KindStatic, true
	case SimulationTask:
		return KindSimulation, true
	}
	return "", false
}
