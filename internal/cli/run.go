package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hoabench/internal/config"
	"github.com/roach88/hoabench/internal/harness"
	"github.com/roach88/hoabench/internal/hoa"
	"github.com/roach88/hoabench/internal/score"
	"github.com/roach88/hoabench/internal/store"
	"github.com/roach88/hoabench/internal/task"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Selection

	Offline      bool
	NoStore      bool
	Database     string
	Provider     string
	Model        string
	Scorer       string
	Concurrency  int
	Timeout      time.Duration
	MaxTurns     int
	RefusalTurns int
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <task>",
		Short: "Evaluate a model on a task",
		Long: `Run every sample of a task against the configured agent model and
report the verdicts. Results are recorded in the SQLite store unless
--no-store is given.

With --offline the categorical decision scorer replaces the model judge,
so only the agent model is called.

Exit status is 0 when every sample passed, 1 when any sample failed,
errored, was inconclusive or was aborted, and 2 on command errors.

Example:
  hoabench run hoa_static --config hoabench.yaml
  hoabench run hoa_simulation --model gpt-4o --max-turns 6 --category fencing
  hoabench run hoa_static --offline --format json --no-store`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(opts, args[0], cmd)
		},
	}

	opts.addResourceFlags(cmd)
	opts.addDatasetFlags(cmd)
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "score decisions categorically without a judge model")
	cmd.Flags().BoolVar(&opts.NoStore, "no-store", false, "do not record the run")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite run store (default from config)")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "agent model provider (openai|anthropic)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "agent model name")
	cmd.Flags().StringVar(&opts.Scorer, "scorer", "", "static task scorer (model_graded_fact|decision|match)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "samples evaluated at once")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-sample timeout")
	cmd.Flags().IntVar(&opts.MaxTurns, "max-turns", 0, "manager turn budget per simulated episode")
	cmd.Flags().IntVar(&opts.RefusalTurns, "refusal-turns", 0, "consecutive refusals that end an episode")

	return cmd
}

// effectiveConfig loads the config file and applies flags the user set.
func (o *RunOptions) effectiveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := loadConfig(o.RootOptions)
	if err != nil {
		return config.Config{}, err
	}
	o.apply(&cfg)

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Agent.Provider = o.Provider
		cfg.Agent.APIKeyEnv = ""
	}
	if flags.Changed("model") {
		cfg.Agent.Model = o.Model
	}
	if flags.Changed("scorer") {
		cfg.Scorer = o.Scorer
	}
	if flags.Changed("concurrency") {
		cfg.Concurrency = o.Concurrency
	}
	if flags.Changed("timeout") {
		cfg.SampleTimeout = o.Timeout
	}
	if flags.Changed("max-turns") {
		cfg.Simulation.MaxTurns = o.MaxTurns
	}
	if flags.Changed("refusal-turns") {
		cfg.Simulation.RefusalTurns = o.RefusalTurns
	}
	if flags.Changed("db") {
		cfg.Store = o.Database
	}
	if o.NoStore {
		cfg.Store = ""
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runTask(opts *RunOptions, name string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	cfg, err := opts.effectiveConfig(cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	var scorer score.Scorer
	switch {
	case opts.Offline:
		scorer = score.Decision{}
	case cfg.Scorer != "":
		if scorer, err = score.ByName(cfg.Scorer); err != nil {
			return formatter.Fail(ExitCommandError, &config.Error{Reason: err.Error()})
		}
	}

	tk, err := buildTask(name, cfg, opts.Selection, scorer, logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	env, err := opts.environment(cfg, name, tk)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	// Cancel on Ctrl-C; samples still in flight are reported as aborted.
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		st       *store.Store
		recorder harness.Recorder
		runID    string
	)
	if cfg.Store != "" {
		st, err = store.Open(cfg.Store)
		if err != nil {
			return formatter.Fail(ExitCommandError, &CodedError{Code: ErrCodeStore, Err: fmt.Errorf("open run store: %w", err)})
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing run store", "error", closeErr)
			}
		}()

		run, err := st.CreateRun(ctx, opts.newRun(cfg, tk))
		if err != nil {
			return formatter.Fail(ExitCommandError, &CodedError{Code: ErrCodeStore, Err: err})
		}
		runID = run.ID
		recorder = harness.StoreRecorder{Store: st, RunID: run.ID}
		logger.Info("run recorded", "run", run.ID, "store", cfg.Store)
	}

	formatter.VerboseLog("running %s: %d samples, model %s, scorer %s", tk.Name(), tk.Len(), cfg.Agent.Model, tk.Scorer().Name())
	report, runErr := harness.Run(ctx, tk, env, harness.Options{
		Concurrency:   cfg.Concurrency,
		SampleTimeout: cfg.SampleTimeout,
		Recorder:      recorder,
		Logger:        logger,
	})

	if st != nil {
		if err := st.FinishRun(context.WithoutCancel(ctx), runID); err != nil {
			logger.Error("error finishing run", "run", runID, "error", err)
		}
	}

	if err := writeReport(formatter, report, runID); err != nil {
		return WrapExitError(ExitCommandError, ErrCodeWriteFailed, err)
	}
	if runErr != nil {
		return WrapExitError(ExitCommandError, ErrCodeStore+": recording results failed", runErr)
	}
	if !report.Clean() {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d samples did not pass", report.Total-report.Count(score.StatusPass), report.Total))
	}
	return nil
}

// environment builds the model clients the task needs. Offline runs never
// build a judge, and the persona falls back to the agent's endpoint.
func (o *RunOptions) environment(cfg config.Config, name string, tk *task.Task) (task.Env, error) {
	agent, err := o.generator(cfg.Agent)
	if err != nil {
		return task.Env{}, err
	}
	env := task.Env{Generator: agent}

	if kind, ok := hoa.KindOf(name); ok && kind == hoa.KindSimulation {
		persona := agent
		if !o.Offline && cfg.Persona != nil {
			if persona, err = o.generator(*cfg.Persona); err != nil {
				return task.Env{}, err
			}
		}
		env.Persona = persona
	}

	if !o.Offline && tk.Scorer().Name() == (score.Fact{}).Name() {
		judge, err := o.generator(cfg.JudgeModel())
		if err != nil {
			return task.Env{}, err
		}
		env.Judge = score.ModelJudge{Generator: judge}
	}
	return env, nil
}

func (o *RunOptions) newRun(cfg config.Config, tk *task.Task) store.Run {
	ids := o.RunIDs
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	snapshot, err := json.Marshal(cfg)
	if err != nil {
		snapshot = []byte("{}")
	}
	return store.Run{
		ID:           ids.Generate(),
		Task:         tk.Name(),
		Model:        cfg.Agent.Model,
		Scorer:       tk.Scorer().Name(),
		PromptDigest: tk.PromptDigest(),
		SampleCount:  tk.Len(),
		Config:       string(snapshot),
	}
}
