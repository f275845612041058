package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hoabench/internal/config"
	"github.com/roach88/hoabench/internal/fingerprint"
	"github.com/roach88/hoabench/internal/harness"
	"github.com/roach88/hoabench/internal/score"
	"github.com/roach88/hoabench/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	Task     string
	Limit    int
}

// ReportJSON is the JSON payload for a single run.
type ReportJSON struct {
	*harness.Report
	RunID  string  `json:"run_id,omitempty"`
	Mean   float64 `json:"mean"`
	Graded int     `json:"graded"`
}

// RunSummary is one line of the run listing.
type RunSummary struct {
	ID          string    `json:"id"`
	Task        string    `json:"task"`
	Model       string    `json:"model"`
	Scorer      string    `json:"scorer"`
	SampleCount int       `json:"sample_count"`
	StartedAt   time.Time `json:"started_at"`
	Finished    bool      `json:"finished"`
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Show a recorded run, or list recent runs",
		Long: `Rebuild the report of a recorded run from the SQLite store. Without a
run ID, list the most recent runs.

Example:
  hoabench report
  hoabench report --task hoa_simulation --limit 5
  hoabench report 01928c1e-7f3a-7c52-9a4e-2b1d3c4e5f60 --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runListRuns(opts, cmd)
			}
			return runReport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run store (default from config)")
	cmd.Flags().StringVar(&opts.Task, "task", "", "only list runs of this task")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")

	return cmd
}

func (o *ReportOptions) openStore() (*store.Store, error) {
	path := o.Database
	if path == "" {
		cfg, err := loadConfig(o.RootOptions)
		if err != nil {
			return nil, err
		}
		path = cfg.Store
	}
	if path == "" {
		return nil, &config.Error{Reason: "no run store configured (use --db)"}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &CodedError{Code: ErrCodeStore, Err: err}
	}
	return st, nil
}

func runReport(opts *ReportOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	run, err := st.ReadRun(ctx, runID)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	results, err := st.ReadResults(ctx, runID)
	if err != nil {
		return formatter.Fail(ExitCommandError, &CodedError{Code: ErrCodeStore, Err: err})
	}

	report := harness.FromStore(run, results)
	if err := writeReport(formatter, report, run.ID); err != nil {
		return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
	}
	if !run.Finished() {
		formatter.VerboseLog("run %s has not finished; %d of %d samples recorded", run.ID, len(results), run.SampleCount)
	}
	return nil
}

func runListRuns(opts *ReportOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, err := opts.openStore()
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context(), opts.Task, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, &CodedError{Code: ErrCodeStore, Err: err})
	}

	summaries := make([]RunSummary, len(runs))
	for i, r := range runs {
		summaries[i] = RunSummary{
			ID:          r.ID,
			Task:        r.Task,
			Model:       r.Model,
			Scorer:      r.Scorer,
			SampleCount: r.SampleCount,
			StartedAt:   r.StartedAt,
			Finished:    r.Finished(),
		}
	}

	if formatter.JSON() {
		return formatter.Success(summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(formatter.Writer, "No runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tTASK\tMODEL\tSAMPLES\tSTARTED\tSTATE")
	for _, s := range summaries {
		state := "running"
		if s.Finished {
			state = "finished"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Task, s.Model, s.SampleCount, s.StartedAt.Format(time.RFC3339), state)
	}
	return tw.Flush()
}

// writeReport renders a report in the configured format.
func writeReport(formatter *OutputFormatter, report *harness.Report, runID string) error {
	if formatter.JSON() {
		return formatter.Success(ReportJSON{
			Report: report,
			RunID:  runID,
			Mean:   report.Mean(),
			Graded: report.Graded(),
		})
	}
	return writeReportText(formatter.Writer, report, runID, formatter.Verbose)
}

func writeReportText(w io.Writer, report *harness.Report, runID string, verbose bool) error {
	fmt.Fprintf(w, "Task:    %s (scorer %s, prompt %s)\n", report.Task, report.Scorer, fingerprint.Short(report.PromptDigest))
	if runID != "" {
		fmt.Fprintf(w, "Run:     %s\n", runID)
	}

	counts := make([]string, 0, len(score.Statuses()))
	for _, st := range score.Statuses() {
		counts = append(counts, fmt.Sprintf("%s %d", st, report.Count(st)))
	}
	fmt.Fprintf(w, "Samples: %d  %s\n", report.Total, strings.Join(counts, "  "))
	fmt.Fprintf(w, "Mean:    %.3f over %d graded\n", report.Mean(), report.Graded())

	if cats := report.ByCategory(); len(cats) > 1 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CATEGORY\tTOTAL\tPASS\tPARTIAL\tFAIL\tERRORED\tOTHER")
		for _, c := range cats {
			other := c.Counts[score.StatusInconclusive] + c.Counts[score.StatusAborted]
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t%d\n", c.Category, c.Total,
				c.Counts[score.StatusPass], c.Counts[score.StatusPartial], c.Counts[score.StatusFail],
				c.Counts[score.StatusErrored], other)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	// Passing samples are only listed with --verbose.
	listed := false
	for _, e := range report.Entries {
		if e.Status == score.StatusPass && !verbose {
			continue
		}
		if !listed {
			fmt.Fprintln(w)
			listed = true
		}
		line := fmt.Sprintf("%-12s %s", e.Status, e.SampleID)
		if e.Turns > 0 {
			line += fmt.Sprintf(" (%d turns)", e.Turns)
		}
		if e.Explanation != "" {
			line += ": " + firstLine(e.Explanation)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
