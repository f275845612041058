package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hoabench/internal/fingerprint"
)

// PromptOptions holds flags for the prompt command.
type PromptOptions struct {
	*RootOptions
	Selection
}

// PromptResult is the JSON payload of the prompt command.
type PromptResult struct {
	Task   string `json:"task"`
	Digest string `json:"digest"`
	Prompt string `json:"prompt"`
}

// NewPromptCommand creates the prompt command.
func NewPromptCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PromptOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "prompt <task>",
		Short: "Print a task's manager system prompt",
		Long: `Print the system prompt the manager model receives for a task: the
template with the rulebook substituted for {rules_text}.

Example:
  hoabench prompt hoa_static
  hoabench prompt hoa_static --rules ./rules.yaml --template ./manager.txt`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrompt(opts, args[0], cmd)
		},
	}
	opts.addResourceFlags(cmd)

	return cmd
}

func runPrompt(opts *PromptOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	opts.apply(&cfg)

	tk, err := buildTask(name, cfg, opts.Selection, nil, opts.logger(cmd.ErrOrStderr()))
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	if formatter.JSON() {
		return formatter.Success(PromptResult{
			Task:   tk.Name(),
			Digest: tk.PromptDigest(),
			Prompt: tk.SystemPrompt(),
		})
	}
	fmt.Fprint(formatter.Writer, tk.SystemPrompt())
	if opts.Verbose {
		fmt.Fprintf(formatter.GetErrWriter(), "\n# %s %s\n", tk.Name(), fingerprint.Short(tk.PromptDigest()))
	}
	return nil
}
