package report

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"tabbench/pkg/dataset"
	"tabbench/pkg/stats"
)

// ModelRank is a model's rank averaged over the datasets it was evaluated on.
type ModelRank struct {
	Model    string
	MeanRank float64
	Datasets int
}

// Ranking ranks models within each dataset by descending score (1 is best,
// ties share the average rank) and averages per model, best first.
func Ranking(rows []Row) []ModelRank {
	byDataset := make(map[string][]Row)
	for _, r := range rows {
		byDataset[r.Dataset] = append(byDataset[r.Dataset], r)
	}
	perModel := make(map[string][]float64)
	for _, group := range byDataset {
		scores := make([]float64, len(group))
		for i, r := range group {
			scores[i] = r.Score
		}
		for i, rank := range stats.Rank(scores, true) {
			perModel[group[i].Model] = append(perModel[group[i].Model], rank)
		}
	}

	out := make([]ModelRank, 0, len(perModel))
	for m, ranks := range perModel {
		out = append(out, ModelRank{Model: m, MeanRank: stat.Mean(ranks, nil), Datasets: len(ranks)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MeanRank != out[j].MeanRank {
			return out[i].MeanRank < out[j].MeanRank
		}
		return out[i].Model < out[j].Model
	})
	return out
}

// TaskRanking is the model ranking among the datasets of one task.
type TaskRanking struct {
	Task  dataset.Task
	Ranks []ModelRank
}

// RankByTask ranks models separately within each task group of SplitByTask.
func RankByTask(rows []Row, lookup TaskLookup) []TaskRanking {
	groups := SplitByTask(rows, lookup)
	out := make([]TaskRanking, 0, len(groups))
	for _, g := range groups {
		out = append(out, TaskRanking{Task: g.Task, Ranks: Ranking(g.Rows)})
	}
	return out
}

// TaskLookup resolves a dataset name to its task.
type TaskLookup func(name string) (dataset.Task, bool)

// Unknown tags rows whose dataset is not in the catalog.
const Unknown dataset.Task = "unknown"

// TaskRows groups the rows of one task.
type TaskRows struct {
	Task dataset.Task
	Rows []Row
}

// SplitByTask partitions rows by their dataset's task: classification,
// regression, then unknown. Empty groups are left out.
func SplitByTask(rows []Row, lookup TaskLookup) []TaskRows {
	groups := make(map[dataset.Task][]Row)
	for _, r := range rows {
		task, ok := lookup(r.Dataset)
		if !ok {
			task = Unknown
		}
		groups[task] = append(groups[task], r)
	}
	var out []TaskRows
	for _, task := range []dataset.Task{dataset.Classification, dataset.Regression, Unknown} {
		if len(groups[task]) > 0 {
			out = append(out, TaskRows{Task: task, Rows: groups[task]})
		}
	}
	return out
}
