// Package report aggregates evaluation results across datasets and models.
package report

import (
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"tabbench/pkg/hparams"
	"tabbench/pkg/results"
)

// Row is one evaluation.json flattened for display.
type Row struct {
	Dataset        string
	Model          string
	Score          float64
	ValScore       float64
	TrainTime      float64
	EvaluationTime float64
	TuningNTrials  int
	HP             string
	Metric         string
}

// Table reads every <root>/<Dataset>/<Model>/evaluation.json. Dataset and
// model names come from the directory names.
func Table(root string) ([]Row, error) {
	files, err := filepath.Glob(filepath.Join(root, "*", "*", results.EvaluationFile))
	if err != nil {
		return nil, err
	}
	store := results.NewStore(root)
	rows := make([]Row, 0, len(files))
	for _, f := range files {
		modelDir := filepath.Dir(f)
		model := filepath.Base(modelDir)
		ds := filepath.Base(filepath.Dir(modelDir))
		ev, err := store.Evaluation(ds, model)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Row{
			Dataset:        ds,
			Model:          model,
			Score:          ev.Score,
			ValScore:       ev.ValScore,
			TrainTime:      ev.TrainTime,
			EvaluationTime: ev.EvaluationTime,
			TuningNTrials:  ev.TuningNTrials,
			HP:             FormatHP(ev.HP),
			Metric:         ev.MetricUsed,
		})
	}
	return rows, nil
}

// FormatHP flattens hyperparameters to "k=v,k=v" in key order. Scalars other
// than strings and nil are printed as numbers with two decimals, booleans
// included; lists are printed as Python literals, as the tuning tools wrote them.
func FormatHP(hp hparams.Params) string {
	parts := make([]string, 0, len(hp))
	for _, k := range hp.Keys() {
		switch v := hp[k].(type) {
		case string:
			parts = append(parts, k+"="+v)
		case nil, []any, map[string]any:
			parts = append(parts, k+"="+pyLiteral(v))
		default:
			parts = append(parts, fmt.Sprintf("%s=%.2f", k, toFloat(v)))
		}
	}
	return strings.Join(parts, ",")
}

// pyLiteral renders a decoded JSON value the way Python's repr does.
// Integral numbers are taken to have been ints.
func pyLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		x = strings.ReplaceAll(x, `\`, `\\`)
		if strings.Contains(x, "'") && !strings.Contains(x, `"`) {
			return `"` + x + `"`
		}
		return "'" + strings.ReplaceAll(x, "'", `\'`) + "'"
	case []any:
		items := make([]string, len(x))
		for i, e := range x {
			items[i] = pyLiteral(e)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]string, len(keys))
		for i, k := range keys {
			items[i] = pyLiteral(k) + ": " + pyLiteral(x[k])
		}
		return "{" + strings.Join(items, ", ") + "}"
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return fmt.Sprint(v)
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
	}
	return 0
}
