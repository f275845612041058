package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/hoabench/internal/fingerprint"
	"github.com/roach88/hoabench/internal/hoa"
	"github.com/roach88/hoabench/internal/prompt"
	"github.com/roach88/hoabench/internal/scenario"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Rules     string
	Scenarios []string
	Template  string
}

// ValidationIssue is one resource that failed to load.
type ValidationIssue struct {
	Resource string `json:"resource"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// DatasetSummary describes a dataset that loaded cleanly.
type DatasetSummary struct {
	Resource  string `json:"resource"`
	Scenarios int    `json:"scenarios"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid          bool              `json:"valid"`
	Rules          int               `json:"rules"`
	RulebookDigest string            `json:"rulebook_digest,omitempty"`
	Datasets       []DatasetSummary  `json:"datasets,omitempty"`
	Errors         []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a rulebook, scenario datasets and a prompt template",
		Long: `Load resources exactly as a run would and report every problem found.

Without flags the embedded rulebook and both embedded datasets are checked.

Example:
  hoabench validate --rules ./rules.yaml --scenarios ./static.json
  hoabench validate --scenarios a.json --scenarios b.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "rulebook file (default: embedded rulebook)")
	cmd.Flags().StringSliceVar(&opts.Scenarios, "scenarios", nil, "scenario dataset file (repeatable; default: embedded datasets)")
	cmd.Flags().StringVar(&opts.Template, "template", "", "manager prompt template file")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	result := ValidationResult{}
	missing := false

	addIssue := func(resource string, err error) {
		if errors.Is(err, os.ErrNotExist) {
			missing = true
		}
		result.Errors = append(result.Errors, ValidationIssue{
			Resource: resource,
			Code:     ErrorCode(err),
			Message:  err.Error(),
		})
	}

	// Rulebook
	rulesName := displayName(opts.Rules, "embedded rulebook")
	rb, err := hoa.LoadRulebook(opts.Rules)
	if err != nil {
		addIssue(rulesName, err)
	} else {
		result.Rules = rb.Len()
		result.RulebookDigest = rb.Digest()
		formatter.VerboseLog("%s: %d rules", rulesName, rb.Len())
	}

	// Template
	if opts.Template != "" {
		tmpl, err := readTemplate(opts.Template)
		if err == nil {
			err = prompt.CheckTemplate(tmpl)
		}
		if err != nil {
			addIssue(opts.Template, err)
		}
	}

	// Datasets
	type source struct {
		name string
		load func() ([]scenario.Sample, error)
	}
	var sources []source
	if len(opts.Scenarios) == 0 {
		for _, kind := range []hoa.Kind{hoa.KindStatic, hoa.KindSimulation} {
			kind := kind
			sources = append(sources, source{
				name: "embedded " + string(kind) + " dataset",
				load: func() ([]scenario.Sample, error) { return hoa.LoadSamples(kind, "") },
			})
		}
	}
	for _, path := range opts.Scenarios {
		path := path
		sources = append(sources, source{
			name: path,
			load: func() ([]scenario.Sample, error) { return scenario.Load(path) },
		})
	}
	for _, src := range sources {
		samples, err := src.load()
		if err != nil {
			addIssue(src.name, err)
			continue
		}
		result.Datasets = append(result.Datasets, DatasetSummary{Resource: src.name, Scenarios: len(samples)})
		formatter.VerboseLog("%s: %d scenarios", src.name, len(samples))
	}

	if len(result.Errors) > 0 {
		exitCode := ExitFailure
		if missing {
			exitCode = ExitCommandError
		}
		return outputValidationErrors(formatter, result, exitCode)
	}

	result.Valid = true
	return outputValidateSuccess(formatter, result)
}

func displayName(path, fallback string) string {
	if path == "" {
		return fallback
	}
	return path
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "\u2713 rulebook: %d rules (%s)\n", result.Rules, fingerprint.Short(result.RulebookDigest))
	for _, ds := range result.Datasets {
		fmt.Fprintf(formatter.Writer, "\u2713 %s: %d scenarios\n", ds.Resource, ds.Scenarios)
	}
	fmt.Fprintln(formatter.Writer, "\u2713 All resources valid")
	return nil
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult, exitCode int) error {
	errs := result.Errors
	if formatter.JSON() {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(exitCode, fmt.Sprintf("%s: validation failed with %d error(s)", errs[0].Code, len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "\u2717 Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n  %s: %s\n\n", issue.Resource, issue.Code, issue.Message)
	}

	return NewExitError(exitCode, fmt.Sprintf("%s: validation failed with %d error(s)", errs[0].Code, len(errs)))
}
