package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"tabbench/pkg/adapter"
	"tabbench/pkg/ctxlog"
	"tabbench/pkg/dataset"
	"tabbench/pkg/model"
)

// Trains a random forest on one catalog dataset without tuning results and
// reports its test metric, the quickest way to sanity check a dataset parser.
func main() {
	name := flag.String("dataset", "StatlogGermanDataset", "Classification dataset from the catalog.")
	workDir := flag.String("work-dir", "data", "Dataset download directory.")
	trees := flag.Int("trees", 50, "Number of trees.")
	seed := flag.Int64("seed", 1, "Seed for the split and the forest.")
	flag.Parse()

	ctx := ctxlog.WithLogger(context.Background(), ctxlog.New("info", "text", os.Stderr))

	spec, err := dataset.Lookup(*name)
	if err != nil {
		log.Fatal(err)
	}
	if spec.Task != dataset.Classification {
		log.Fatalf("%s is not a classification dataset", spec.Name)
	}

	provider := dataset.NewProvider(*workDir)
	provider.Seed = *seed
	train, test, err := provider.Get(ctx, spec)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: train size %d, test size %d\n", spec.Name, train.Len(), test.Len())

	trainData, testData, err := adapter.Prepare(train, test, spec.Categorical, adapter.Ordinal)
	if err != nil {
		log.Fatal(err)
	}

	rf := model.NewRandomForest(
		model.WithNEstimators(*trees),
		model.WithBootstrap(true),
		model.WithForestSeed(*seed),
	)
	if err := rf.Fit(ctx, trainData.X, trainData.Y); err != nil {
		log.Fatalf("training failed: %v", err)
	}

	metric, err := model.LookupMetric(spec.Metric)
	if err != nil {
		log.Fatal(err)
	}
	preds := rf.Predict(testData.X)
	fmt.Println("First 10 test predictions (pred vs true):")
	for i := 0; i < 10 && i < len(preds); i++ {
		fmt.Printf("  %v vs %v\n", preds[i], testData.Y[i])
	}
	fmt.Printf("\n%s on test data: %.4f\n", metric.Name, metric.Fn(testData.Y, preds))
}
