package report

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Print writes, per task, the results table followed by the model ranking.
func Print(w io.Writer, rows []Row, lookup TaskLookup) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No evaluation results found.")
		return err
	}
	rankings := RankByTask(rows, lookup)
	for i, group := range SplitByTask(rows, lookup) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s ==\n", group.Task)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATASET\tMODEL\tMETRIC\tSCORE\tVAL_SCORE\tTRAIN_TIME\tEVAL_TIME\tTRIALS\tHP")
		for _, r := range group.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%.4f\t%.1f\t%.1f\t%d\t%s\n",
				r.Dataset, r.Model, r.Metric, r.Score, r.ValScore, r.TrainTime, r.EvaluationTime, r.TuningNTrials, r.HP)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "MODEL\tMEAN_RANK\tDATASETS")
		for _, mr := range rankings[i].Ranks {
			fmt.Fprintf(tw, "%s\t%.2f\t%d\n", mr.Model, mr.MeanRank, mr.Datasets)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
