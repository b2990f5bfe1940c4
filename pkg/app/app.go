// Package app wires configuration, datasets, models and storage together for
// the tabbench commands.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"text/tabwriter"

	"tabbench/pkg/adapter"
	"tabbench/pkg/cli"
	"tabbench/pkg/config"
	"tabbench/pkg/ctxlog"
	"tabbench/pkg/dataset"
	"tabbench/pkg/orchestrator"
	"tabbench/pkg/report"
	"tabbench/pkg/results"
)

// App holds what every command needs.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *config.Config
	client *http.Client
}

// NewApp builds an App writing reports to outW and logs to logW.
func NewApp(outW, logW io.Writer, cfg *config.Config) *App {
	return &App{
		outW:   outW,
		logger: ctxlog.New(cfg.LogLevel, cfg.LogFormat, logW),
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

// Run executes a parsed command.
func (a *App) Run(ctx context.Context, cmd *cli.Command) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("Running command.", "command", cmd.Name)
	switch cmd.Name {
	case cli.Evaluate:
		return a.evaluate(ctx, cmd)
	case cli.Results:
		return a.results(ctx, cmd)
	case cli.Space:
		return a.space(cmd)
	}
	return &cli.ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", cmd.Name)}
}

func (a *App) evaluate(ctx context.Context, cmd *cli.Command) error {
	task := dataset.Task(cmd.Task)
	datasets, err := SelectDatasets(task, firstNonEmpty(cmd.Datasets, a.cfg.Datasets))
	if err != nil {
		return err
	}
	models, err := SelectModels(task, firstNonEmpty(cmd.Models, a.cfg.Models))
	if err != nil {
		return err
	}

	provider := &dataset.Provider{
		WorkDir:  a.cfg.WorkDir,
		TestSize: a.cfg.TestSize,
		Seed:     a.cfg.Seed,
		Client:   a.client,
	}
	o := orchestrator.New(provider, results.NewStore(a.cfg.ResultsDir),
		orchestrator.WithMaxTrainingTime(a.cfg.MaxTrainingTime),
		orchestrator.WithWeightsModel(a.cfg.WeightsModel),
		orchestrator.WithSplit(a.cfg.Seed, a.cfg.TestSize),
	)
	pairs, runErr := o.Run(ctx, datasets, models)

	tw := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tMODEL\tOUTCOME\tSCORE")
	for _, p := range pairs {
		score := "-"
		if p.Evaluation != nil {
			score = fmt.Sprintf("%.4f", p.Evaluation.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Dataset, p.Model, p.Outcome, score)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return runErr
}

func (a *App) results(ctx context.Context, cmd *cli.Command) error {
	rows, err := report.Table(a.cfg.ResultsDir)
	if err != nil {
		return err
	}
	if err := report.Print(a.outW, rows, dataset.TaskOf); err != nil {
		return err
	}
	if cmd.PlotPath != "" {
		if err := report.PlotRankings(report.RankByTask(rows, dataset.TaskOf), cmd.PlotPath); err != nil {
			return fmt.Errorf("plot: %w", err)
		}
		ctxlog.FromContext(ctx).Info("Ranking chart written.", "path", cmd.PlotPath)
	}
	if cmd.SQLitePath != "" {
		if err := report.ExportSQLite(ctx, cmd.SQLitePath, rows); err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		ctxlog.FromContext(ctx).Info("Results exported.", "path", cmd.SQLitePath, "rows", len(rows))
	}
	return nil
}

func (a *App) space(cmd *cli.Command) error {
	m, err := adapter.Lookup(cmd.Model)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "%s (%s, %s encoding)\n", m.Name, m.Task, m.Encoding)
	for _, d := range m.Space {
		fmt.Fprintf(a.outW, "  %s\n", d)
	}
	sample := m.Space.Sample(rand.New(rand.NewSource(cmd.Seed)))
	fmt.Fprintln(a.outW, "Sample:")
	for _, k := range sample.Keys() {
		fmt.Fprintf(a.outW, "  %s = %v\n", k, sample[k])
	}
	return nil
}

// SelectDatasets resolves names, or every dataset of task when names is
// empty. Named datasets must belong to task.
func SelectDatasets(task dataset.Task, names []string) ([]dataset.Spec, error) {
	if len(names) == 0 {
		return dataset.ByTask(task), nil
	}
	out := make([]dataset.Spec, 0, len(names))
	for _, n := range names {
		s, err := dataset.Lookup(n)
		if err != nil {
			return nil, err
		}
		if s.Task != task {
			return nil, fmt.Errorf("dataset %s is a %s dataset, not %s", n, s.Task, task)
		}
		out = append(out, s)
	}
	return out, nil
}

// SelectModels is SelectDatasets for models.
func SelectModels(task dataset.Task, names []string) ([]adapter.Model, error) {
	if len(names) == 0 {
		return adapter.ByTask(task), nil
	}
	out := make([]adapter.Model, 0, len(names))
	for _, n := range names {
		m, err := adapter.Lookup(n)
		if err != nil {
			return nil, err
		}
		if m.Task != task {
			return nil, fmt.Errorf("model %s is a %s model, not %s", n, m.Task, task)
		}
		out = append(out, m)
	}
	return out, nil
}

func firstNonEmpty(lists ...[]string) []string {
	for _, l := range lists {
		if len(l) > 0 {
			return l
		}
	}
	return nil
}
