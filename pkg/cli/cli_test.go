package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvaluate(t *testing.T) {
	var out bytes.Buffer
	cmd, exit, err := Parse([]string{"evaluate", "-config", "x.yaml", "-task", "Regression", "-datasets", "A, B,", "-models", "M"}, &out)
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, &Command{
		Name:       Evaluate,
		ConfigPath: "x.yaml",
		Task:       "regression",
		Datasets:   []string{"A", "B"},
		Models:     []string{"M"},
	}, cmd)
}

func TestParseDefaults(t *testing.T) {
	cmd, _, err := Parse([]string{"evaluate"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "classification", cmd.Task)
	assert.Nil(t, cmd.Datasets)

	cmd, _, err = Parse([]string{"results", "-plot", "r.png", "-sqlite", "r.db"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "r.png", cmd.PlotPath)
	assert.Equal(t, "r.db", cmd.SQLitePath)

	cmd, _, err = Parse([]string{"space", "-model", "KNNModel"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), cmd.Seed)
}

func TestParseHelp(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}, {"help"}, {"evaluate", "-h"}} {
		var out bytes.Buffer
		cmd, exit, err := Parse(args, &out)
		require.NoError(t, err, args)
		assert.True(t, exit)
		assert.Nil(t, cmd)
		assert.NotEmpty(t, out.String())
	}
}

func TestParseUsageErrors(t *testing.T) {
	tests := map[string][]string{
		"unknown command":    {"train"},
		"unknown flag":       {"results", "-verbose"},
		"bad task":           {"evaluate", "-task", "clustering"},
		"missing model":      {"space"},
		"stray argument":     {"results", "extra"},
		"flag for other cmd": {"space", "-model", "KNNModel", "-plot", "x.png"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := Parse(args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}
