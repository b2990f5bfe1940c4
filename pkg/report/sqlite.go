package report

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"
)

const evaluationsSchema = `
CREATE TABLE IF NOT EXISTS evaluations (
	dataset         TEXT NOT NULL,
	model           TEXT NOT NULL,
	metric          TEXT,
	score           REAL,
	val_score       REAL,
	train_time      REAL,
	evaluation_time REAL,
	tuning_n_trials INTEGER,
	hp              TEXT,
	PRIMARY KEY (dataset, model)
);`

// ExportSQLite upserts rows into the evaluations table of the SQLite
// database at path, creating both as needed.
func ExportSQLite(ctx context.Context, path string, rows []Row) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, evaluationsSchema); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO evaluations
		(dataset, model, metric, score, val_score, train_time, evaluation_time, tuning_n_trials, hp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Dataset, r.Model, r.Metric, r.Score, r.ValScore,
			r.TrainTime, r.EvaluationTime, r.TuningNTrials, r.HP); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
