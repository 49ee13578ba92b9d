package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kubilitics/promits/internal/ai"
	"github.com/kubilitics/promits/internal/apperr"
	"github.com/kubilitics/promits/internal/config"
	"github.com/kubilitics/promits/internal/logging"
	"github.com/kubilitics/promits/internal/metrics"
	"github.com/kubilitics/promits/internal/pipeline"
	"github.com/kubilitics/promits/internal/prom"
	"github.com/kubilitics/promits/internal/report"
	"github.com/kubilitics/promits/internal/terminal"
	"github.com/kubilitics/promits/internal/ui"
	"github.com/kubilitics/promits/internal/version"
)

type app struct {
	configFile string
	graph      bool
	dotEnv     []string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// prompter and interactive are replaced in tests.
	prompter    ui.Prompter
	interactive func() bool
	now         func() time.Time
}

func NewRootCommand() *cobra.Command {
	return NewRootCommandWithIO(os.Stdin, os.Stdout, os.Stderr)
}

func NewRootCommandWithIO(in io.Reader, out, errOut io.Writer) *cobra.Command {
	return newRootCommand(&app{
		dotEnv: []string{".env"},
		stdin:  in,
		stdout: out,
		stderr: errOut,
	})
}

func newRootCommand(a *app) *cobra.Command {
	if a.interactive == nil {
		a.interactive = func() bool { return terminal.IsInteractive(a.stdin, a.stderr) }
	}
	if a.prompter == nil {
		a.prompter = ui.NewTeaPrompter(a.stdin, a.stderr)
	}
	if a.now == nil {
		a.now = time.Now
	}

	cmd := &cobra.Command{
		Use:   "promits",
		Short: "Analyze a Prometheus CPU series with Claude",
		Long: "promits fetches a CPU utilisation range from Prometheus, sends it to the Anthropic " +
			"Messages API for anomaly analysis, and prints token usage followed by the analysis.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAnalyze(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default ~/.promits/config.yaml)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "also write JSON logs to this file (rotated)")

	f := cmd.Flags()
	f.String("model", "", "model identifier; skips the model prompt")
	f.Int("days", 0, "lookback in days (1-365); skips the duration prompt")
	f.String("query", "", "PromQL expression (default: node CPU system-mode utilisation)")
	f.String("step", "", "query resolution step (default 5m)")
	f.Duration("timeout", 0, "per-request HTTP timeout (default 30s)")
	f.StringP("output", "o", "", "output format: text, json, yaml")
	f.String("tokenizer", "", "prompt size estimator: heuristic or tiktoken")
	f.String("metrics-file", "", "write run metrics in Prometheus text format to this file")
	f.BoolVar(&a.graph, "graph", false, "print a sparkline of each series to stderr before analysis")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return apperr.NewInput("flags", "%v", err)
	})

	cmd.AddCommand(newModelsCmd(), newVersionCmd())
	cmd.SetVersionTemplate(fmt.Sprintf("promits {{.Version}} (commit %s, built %s)\n", version.Commit, version.BuildDate))
	cmd.SetErrPrefix("promits: ")
	cmd.SetIn(a.stdin)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{ConfigFile: a.configFile, DotEnv: a.dotEnv, Flags: cmd.Flags()})
	if err != nil {
		if apperr.KindOf(err) == apperr.Config {
			fmt.Fprintln(a.stderr, "hint: "+config.Describe())
		}
		return err
	}

	logger, cleanup, err := logging.New(logging.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Stderr:     a.stderr,
	})
	if err != nil {
		return apperr.NewConfig("%v", err)
	}
	defer cleanup()
	logger.Debug("configuration resolved", zap.Stringer("config", cfg))

	interactive := a.interactive()
	days, err := a.resolveLookback(cfg, interactive, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "Lookback: %d days\n", days)

	model, err := a.resolveModel(cfg, interactive, logger)
	if err != nil {
		return err
	}

	rec := metrics.New()
	var spin *ui.Spinner
	p := pipeline.New(
		prom.NewClient(cfg.PrometheusBaseURL, prom.WithTimeout(cfg.Timeout)),
		ai.NewClient(cfg.AnthropicBaseURL, cfg.AnthropicAPIKey, ai.WithTimeout(cfg.Timeout)),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(rec),
		pipeline.WithClock(a.now),
		pipeline.WithTokenizer(ai.NewTokenizer(cfg.Tokenizer == config.TokenizerTiktoken)),
		pipeline.WithObserver(func(s pipeline.State, o *pipeline.Outcome) {
			switch s {
			case pipeline.MetricsFetched:
				if a.graph {
					if gerr := report.Graph(a.stderr, o.Metrics, 0); gerr != nil {
						logger.Warn("render graph", zap.Error(gerr))
					}
				}
			case pipeline.PromptBuilt:
				spin = ui.StartSpinner(a.stderr, interactive && terminal.IsTerminal(a.stderr), ui.MsgAnalyzing)
			}
		}),
	)

	out, runErr := p.Run(cmd.Context(), pipeline.Request{
		Model:        model,
		LookbackDays: days,
		Query:        cfg.Query,
		Step:         cfg.Step,
	})
	if runErr != nil {
		spin.Stop(ui.MsgFailed, false)
	} else {
		spin.Stop(ui.MsgCompleted, true)
	}

	rec.Finish(a.now(), runErr)
	if werr := rec.WriteTextfile(cfg.MetricsFile); werr != nil {
		logger.Warn("write metrics file", zap.String("path", cfg.MetricsFile), zap.Error(werr))
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return apperr.NewInput("run", "interrupted")
		}
		return runErr
	}
	return report.Render(a.stdout, cfg.Output, out)
}

func (a *app) resolveLookback(cfg *config.Config, interactive bool, logger *zap.Logger) (int, error) {
	if cfg.LookbackDays > 0 {
		return cfg.LookbackDays, nil
	}
	if !interactive {
		logger.Info("no terminal; using default lookback", zap.Int("days", config.DefaultLookbackDays))
		return config.DefaultLookbackDays, nil
	}
	raw, err := a.prompter.Lookback()
	if err != nil {
		return 0, err
	}
	days, warn := ui.ParseLookback(raw)
	if warn != "" {
		fmt.Fprintln(a.stderr, ui.Warning(warn))
	}
	return days, nil
}

func (a *app) resolveModel(cfg *config.Config, interactive bool, logger *zap.Logger) (ai.Model, error) {
	if m, ok := cfg.ResolvedModel(); ok {
		return m, nil
	}
	if !interactive {
		logger.Info("no terminal; using default model", zap.String("model", ai.DefaultModel.String()))
		return ai.DefaultModel, nil
	}
	return a.prompter.Model(ai.DefaultModel)
}
