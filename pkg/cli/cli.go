// Package cli parses command-line arguments into a Command and maps usage
// problems onto exit codes.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

const (
	Evaluate = "evaluate"
	Results  = "results"
	Space    = "space"
)

// Command is a parsed invocation. Only the fields of the chosen subcommand
// are set.
type Command struct {
	Name       string
	ConfigPath string

	// evaluate
	Task     string
	Datasets []string
	Models   []string

	// results
	PlotPath   string
	SQLitePath string

	// space
	Model string
	Seed  int64
}

const usage = `
tabbench - evaluate tuned models on tabular benchmark datasets.

Usage:
  tabbench evaluate [-config FILE] [-task classification|regression] [-datasets A,B] [-models X,Y]
  tabbench results  [-config FILE] [-plot ranking.png] [-sqlite results.db]
  tabbench space    -model NAME [-seed N]

Run 'tabbench <command> -h' for the options of a command.
`

// Parse processes command-line arguments. It returns the Command, whether
// the program should exit cleanly (help was printed), or an *ExitError.
func Parse(args []string, output io.Writer) (*Command, bool, error) {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(output, usage)
		return nil, true, nil
	}

	cmd := &Command{Name: args[0]}
	fs := flag.NewFlagSet("tabbench "+cmd.Name, flag.ContinueOnError)
	fs.SetOutput(output)

	var datasets, models string
	switch cmd.Name {
	case Evaluate:
		fs.StringVar(&cmd.ConfigPath, "config", "", "Path to the YAML configuration file.")
		fs.StringVar(&cmd.Task, "task", "classification", "Task to evaluate: 'classification' or 'regression'.")
		fs.StringVar(&datasets, "datasets", "", "Comma separated dataset names. Defaults to the config, then to every dataset of the task.")
		fs.StringVar(&models, "models", "", "Comma separated model names. Defaults to the config, then to every model of the task.")
	case Results:
		fs.StringVar(&cmd.ConfigPath, "config", "", "Path to the YAML configuration file.")
		fs.StringVar(&cmd.PlotPath, "plot", "", "Write a bar chart of mean model ranks to this file.")
		fs.StringVar(&cmd.SQLitePath, "sqlite", "", "Upsert the results table into this SQLite database.")
	case Space:
		fs.StringVar(&cmd.Model, "model", "", "Model whose hyperparameter space is printed.")
		fs.Int64Var(&cmd.Seed, "seed", 1, "Seed for the sample configuration.")
	default:
		fmt.Fprint(output, usage)
		return nil, false, usageError("unknown command %q", cmd.Name)
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, usageError("%s", err.Error())
	}
	if fs.NArg() > 0 {
		return nil, false, usageError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	switch cmd.Name {
	case Evaluate:
		cmd.Task = strings.ToLower(cmd.Task)
		if cmd.Task != "classification" && cmd.Task != "regression" {
			return nil, false, usageError("invalid task %q: must be 'classification' or 'regression'", cmd.Task)
		}
		cmd.Datasets = splitList(datasets)
		cmd.Models = splitList(models)
	case Space:
		if cmd.Model == "" {
			return nil, false, usageError("space: -model is required")
		}
	}
	return cmd, false, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
