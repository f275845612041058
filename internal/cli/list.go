package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/hoabench/internal/task"
)

// TaskInfo describes a registered task.
type TaskInfo struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Samples      int    `json:"samples"`
	Scorer       string `json:"scorer"`
	PromptDigest string `json:"prompt_digest"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered tasks",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, task.Default, cmd)
		},
	}
}

func runList(opts *RootOptions, reg *task.Registry, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	infos := []TaskInfo{}
	for _, name := range reg.Names() {
		tk, err := reg.Build(name)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		infos = append(infos, TaskInfo{
			Name:         tk.Name(),
			Description:  tk.Description(),
			Samples:      tk.Len(),
			Scorer:       tk.Scorer().Name(),
			PromptDigest: tk.PromptDigest(),
		})
	}

	if formatter.JSON() {
		return formatter.Success(infos)
	}
	writeTaskTable(formatter.Writer, infos)
	return nil
}

func writeTaskTable(w io.Writer, infos []TaskInfo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK\tSAMPLES\tSCORER\tDESCRIPTION")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", info.Name, info.Samples, info.Scorer, info.Description)
	}
	tw.Flush()
}
