package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/hoabench/internal/config"
	"github.com/roach88/hoabench/internal/hoa"
	"github.com/roach88/hoabench/internal/model"
	"github.com/roach88/hoabench/internal/prompt"
	"github.com/roach88/hoabench/internal/rulebook"
	"github.com/roach88/hoabench/internal/scenario"
	"github.com/roach88/hoabench/internal/score"
	"github.com/roach88/hoabench/internal/store"
	"github.com/roach88/hoabench/internal/task"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeConfig      = "E002" // Invalid configuration file or flags
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // Output or store write error

	// Task construction errors
	ErrCodeUnknownTask     = "E010" // No task registered under the name
	ErrCodeRulebook        = "E011" // Rulebook missing or malformed
	ErrCodeDataset         = "E012" // Scenario dataset missing or malformed
	ErrCodeInvalidDecision = "E013" // Ground-truth decision outside the decision set
	ErrCodeTemplate        = "E014" // Manager template placeholder count is not one

	// Run errors
	ErrCodeModel       = "E020" // Model client could not be built
	ErrCodeStore       = "E021" // Run store could not be opened or read
	ErrCodeRunNotFound = "E022" // No run with the requested ID
)

// CodedError attaches an explicit CLI code to an error.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string {
	return e.Err.Error()
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

// ErrorCode maps an error to its stable CLI code.
func ErrorCode(err error) string {
	var (
		ce *CodedError
		te *prompt.TemplateError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ce):
		return ce.Code
	case config.IsConfigError(err):
		return ErrCodeConfig
	case task.IsUnknownTask(err):
		return ErrCodeUnknownTask
	case rulebook.IsFormatError(err):
		return ErrCodeRulebook
	case scenario.IsInvalidDecision(err):
		return ErrCodeInvalidDecision
	case scenario.IsFormatError(err):
		return ErrCodeDataset
	case errors.As(err, &te):
		return ErrCodeTemplate
	case store.IsRunNotFound(err):
		return ErrCodeRunNotFound
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound
	default:
		return ErrCodeGeneric
	}
}

// Selection holds the dataset and resource flags shared by run and prompt.
type Selection struct {
	Rules      string
	Scenarios  string
	Template   string
	Category   string
	Difficulty string
	IDs        []string
	Limit      int
}

func (s *Selection) addResourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Rules, "rules", "", "rulebook file (default: embedded rulebook)")
	cmd.Flags().StringVar(&s.Template, "template", "", "manager prompt template file containing {rules_text}")
}

func (s *Selection) addDatasetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.Scenarios, "scenarios", "", "scenario dataset file (default: embedded dataset)")
	cmd.Flags().StringVar(&s.Category, "category", "", "only run scenarios in this category")
	cmd.Flags().StringVar(&s.Difficulty, "difficulty", "", "only run scenarios with this difficulty")
	cmd.Flags().StringSliceVar(&s.IDs, "id", nil, "only run scenarios whose id matches a glob (repeatable)")
	cmd.Flags().IntVar(&s.Limit, "limit", 0, "run at most this many scenarios")
}

// apply copies non-empty resource paths over the configuration.
func (s *Selection) apply(cfg *config.Config) {
	if s.Rules != "" {
		cfg.Rules = s.Rules
	}
	if s.Scenarios != "" {
		cfg.Scenarios = s.Scenarios
	}
	if s.Template != "" {
		cfg.Template = s.Template
	}
}

func (s *Selection) filter() scenario.Filter {
	return scenario.Filter{
		IDs:        s.IDs,
		Category:   s.Category,
		Difficulty: s.Difficulty,
		Limit:      s.Limit,
	}
}

// loadConfig reads the --config file, or the defaults when none is given.
func loadConfig(opts *RootOptions) (config.Config, error) {
	return config.Load(opts.ConfigPath)
}

// readTemplate returns the template file's contents, or "" for the default.
func readTemplate(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}

// buildTask assembles the named task. The hoa tasks honour resource paths,
// filters and the scorer override; other registered tasks are built by
// their factory as-is.
func buildTask(name string, cfg config.Config, sel Selection, scorer score.Scorer, logger *slog.Logger) (*task.Task, error) {
	kind, ok := hoa.KindOf(name)
	if !ok {
		return task.Default.Build(name)
	}

	tmpl, err := readTemplate(cfg.Template)
	if err != nil {
		return nil, err
	}
	return hoa.Build(hoa.Options{
		Kind:          kind,
		RulesPath:     cfg.Rules,
		ScenariosPath: cfg.Scenarios,
		Template:      tmpl,
		Scorer:        scorer,
		Filter:        sel.filter(),
		Sim:           cfg.Simulation,
		Logger:        logger,
	})
}

// generator builds a client for m using the options' factory and
// environment lookup.
func (o *RootOptions) generator(m config.ModelConfig) (model.Generator, error) {
	newGen := o.NewGenerator
	if newGen == nil {
		newGen = model.New
	}
	gen, err := newGen(m.Resolve(o.Getenv))
	if err != nil {
		return nil, &CodedError{Code: ErrCodeModel, Err: fmt.Errorf("model %s: %w", m.Model, err)}
	}
	return gen, nil
}
