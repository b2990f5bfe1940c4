package app

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabbench/pkg/adapter"
	"tabbench/pkg/cli"
	"tabbench/pkg/config"
	"tabbench/pkg/dataset"
	"tabbench/pkg/hparams"
	"tabbench/pkg/results"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.WorkDir = filepath.Join(dir, "data")
	cfg.ResultsDir = filepath.Join(dir, "results")
	cfg.Seed = 1
	return cfg
}

func TestSelect(t *testing.T) {
	ds, err := SelectDatasets(dataset.Regression, nil)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "WineQualityRedDataset", ds[0].Name)

	_, err = SelectDatasets(dataset.Regression, []string{"AdultDataset"})
	assert.Error(t, err)
	_, err = SelectDatasets(dataset.Classification, []string{"Nope"})
	assert.ErrorIs(t, err, dataset.ErrUnknown)

	ms, err := SelectModels(dataset.Classification, []string{"KNNModel", "DecisionTreeModel"})
	require.NoError(t, err)
	assert.Len(t, ms, 2)
	_, err = SelectModels(dataset.Classification, []string{"LinearRegressionModel"})
	assert.Error(t, err)
	_, err = SelectModels(dataset.Classification, []string{"Nope"})
	assert.ErrorIs(t, err, adapter.ErrUnknown)
}

func TestSpaceCommand(t *testing.T) {
	var out bytes.Buffer
	a := NewApp(&out, &bytes.Buffer{}, testConfig(t))
	require.NoError(t, a.Run(context.Background(), &cli.Command{Name: cli.Space, Model: "KNNModel", Seed: 3}))
	assert.Contains(t, out.String(), "KNNModel (classification, onehot encoding)")
	assert.Contains(t, out.String(), "n_neighbors: quniform(1, 50, q=1)")
	assert.Contains(t, out.String(), "Sample:")

	err := a.Run(context.Background(), &cli.Command{Name: cli.Space, Model: "Nope"})
	assert.ErrorIs(t, err, adapter.ErrUnknown)
}

func TestEvaluateThenResults(t *testing.T) {
	var wine strings.Builder
	wine.WriteString(`"alcohol";"acidity";"quality"` + "\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&wine, "%d;%.1f;%d\n", 9+i%4, float64(i%5)/10, 5+i%4)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, wine.String())
	}))
	defer srv.Close()

	cfg := testConfig(t)
	// serve the catalog's file from the test server
	spec, err := dataset.Lookup("WineQualityRedDataset")
	require.NoError(t, err)
	prov := &dataset.Provider{WorkDir: cfg.WorkDir, TestSize: 0.25, Seed: 1, Client: srv.Client()}
	spec.Resources = []dataset.Resource{{URL: srv.URL + "/winequality-red.csv", Filename: "winequality-red.csv"}}
	require.NoError(t, prov.Fetch(context.Background(), spec))

	store := results.NewStore(cfg.ResultsDir)
	require.NoError(t, store.SaveTuning("WineQualityRedDataset", "KNNRegressorModel",
		results.TuningResult{HP: hparams.Params{"n_neighbors": 3.0}, Score: -0.4, NTrials: 12}))

	var out bytes.Buffer
	a := NewApp(&out, &bytes.Buffer{}, cfg)
	require.NoError(t, a.Run(context.Background(), &cli.Command{Name: cli.Evaluate, Task: "regression"}))
	assert.Contains(t, out.String(), "KNNRegressorModel")
	assert.Contains(t, out.String(), "persisted")
	assert.Contains(t, out.String(), "skipped_no_tuning")

	out.Reset()
	dbPath := filepath.Join(t.TempDir(), "results.db")
	plotPath := filepath.Join(t.TempDir(), "ranking.png")
	require.NoError(t, a.Run(context.Background(), &cli.Command{Name: cli.Results, SQLitePath: dbPath, PlotPath: plotPath}))
	assert.Contains(t, out.String(), "== regression ==")
	assert.Contains(t, out.String(), "n_neighbors=3.00")
	assert.FileExists(t, dbPath)
	assert.FileExists(t, plotPath)
}
