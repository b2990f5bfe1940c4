package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tabbench/pkg/data"
	"tabbench/pkg/dataprep"
)

const uciBase = "https://archive.ics.uci.edu/ml/machine-learning-databases"

var catalog = []Spec{
	{
		Name:      "StatlogAustralianDataset",
		Task:      Classification,
		Metric:    "accuracy",
		Resources: []Resource{{URL: uciBase + "/statlog/australian/australian.dat", Filename: "australian.dat"}},
		Parse:     parseWhitespaceTable("australian.dat"),
	},
	{
		Name:      "StatlogGermanDataset",
		Task:      Classification,
		Metric:    "accuracy",
		Resources: []Resource{{URL: uciBase + "/statlog/german/german.data-numeric", Filename: "german.data-numeric"}},
		Parse:     parseWhitespaceTable("german.data-numeric"),
	},
	{
		Name:        "AdultDataset",
		Task:        Classification,
		Metric:      "accuracy",
		Categorical: []string{"workclass", "education"},
		Resources: []Resource{
			{URL: uciBase + "/adult/adult.data", Filename: "adult.data"},
			{URL: uciBase + "/adult/adult.test", Filename: "adult.test"},
		},
		Parse: parseAdult,
	},
	{
		Name:   "SteelPlatesFaultsDataset",
		Task:   Classification,
		Metric: "accuracy",
		Resources: []Resource{
			{URL: uciBase + "/00198/Faults.NNA", Filename: "Faults.NNA"},
			{URL: uciBase + "/00198/Faults27x7_var", Filename: "Faults27x7_var"},
		},
		Parse: parseSteelPlates,
	},
	{
		Name:        "SeismicBumpsDataset",
		Task:        Classification,
		Metric:      "f1",
		Categorical: []string{"seismic", "seismoacoustic", "shift", "ghazard"},
		Resources:   []Resource{{URL: uciBase + "/00266/seismic-bumps.arff", Filename: "seismic-bumps.arff"}},
		Parse:       parseSeismicBumps,
	},
	{
		Name:      "WineQualityRedDataset",
		Task:      Regression,
		Metric:    "mse",
		Resources: []Resource{{URL: uciBase + "/wine-quality/winequality-red.csv", Filename: "winequality-red.csv"}},
		Parse:     parseWineQuality,
	},
}

// All returns every known dataset, in catalog order.
func All() []Spec {
	return append([]Spec(nil), catalog...)
}

// Lookup finds a dataset by name.
func Lookup(name string) (Spec, error) {
	for _, s := range catalog {
		if s.Name == name {
			return s, nil
		}
	}
	return Spec{}, fmt.Errorf("%w: %q", ErrUnknown, name)
}

// ByTask returns the datasets posing the given task.
func ByTask(task Task) []Spec {
	var out []Spec
	for _, s := range catalog {
		if s.Task == task {
			out = append(out, s)
		}
	}
	return out
}

// TaskOf returns the task of the named dataset, if known.
func TaskOf(name string) (Task, bool) {
	s, err := Lookup(name)
	if err != nil {
		return "", false
	}
	return s.Task, true
}

func parseWhitespaceTable(filename string) func(string) (Parsed, error) {
	return func(dir string) (Parsed, error) {
		f, err := data.ReadFile(filepath.Join(dir, filename), data.ReadOptions{})
		if err != nil {
			return Parsed{}, err
		}
		s, err := lastColumnLabel(f)
		return Parsed{Data: s}, err
	}
}

var adultFeatures = []string{
	"age", "workclass", "fnlwgt", "education", "education-num", "marital-status",
	"occupation", "relationship", "race", "sex", "capital-gain", "capital-loss",
	"hours-per-week", "native-country",
}

func parseAdult(dir string) (Parsed, error) {
	names := append(append([]string(nil), adultFeatures...), "income")
	read := func(filename string, skip int) (*data.Frame, *data.Column, error) {
		f, err := data.ReadFile(filepath.Join(dir, filename), data.ReadOptions{
			Sep:      ',',
			SkipRows: skip,
			Names:    names,
			Missing:  []string{"?"},
		})
		if err != nil {
			return nil, nil, err
		}
		label, rest, err := f.Pop("income")
		if err != nil {
			return nil, nil, err
		}
		if label.Kind != data.Categorical {
			return nil, nil, fmt.Errorf("%s: income column is not categorical", filename)
		}
		return rest, label, nil
	}

	trainX, trainLabel, err := read("adult.data", 0)
	if err != nil {
		return Parsed{}, err
	}
	testX, testLabel, err := read("adult.test", 1)
	if err != nil {
		return Parsed{}, err
	}

	// test labels carry a trailing "."
	testRaw := make([]string, len(testLabel.Str))
	for i, v := range testLabel.Str {
		testRaw[i] = strings.TrimSuffix(v, ".")
	}
	le := new(dataprep.LabelEncoder).Fit(trainLabel.Str)
	trainY, err := le.Transform(trainLabel.Str)
	if err != nil {
		return Parsed{}, err
	}
	testY, err := le.Transform(testRaw)
	if err != nil {
		return Parsed{}, err
	}
	return Parsed{
		Train: &Split{Features: trainX, Labels: trainY},
		Test:  &Split{Features: testX, Labels: testY},
	}, nil
}

const steelFaultColumns = 7

func parseSteelPlates(dir string) (Parsed, error) {
	return parseSteelPlatesN(dir, steelFaultColumns)
}

// parseSteelPlatesN reads the features followed by nFaults one-hot fault
// columns; the label is the index of the active fault.
func parseSteelPlatesN(dir string, nFaults int) (Parsed, error) {
	f, err := data.ReadFile(filepath.Join(dir, "Faults.NNA"), data.ReadOptions{Sep: '\t'})
	if err != nil {
		return Parsed{}, err
	}
	nFeatures := f.NCols() - nFaults
	if nFeatures < 1 {
		return Parsed{}, fmt.Errorf("Faults.NNA: want more than %d columns, got %d", nFaults, f.NCols())
	}

	raw, err := os.ReadFile(filepath.Join(dir, "Faults27x7_var"))
	if err != nil {
		return Parsed{}, err
	}
	var names []string
	for _, line := range strings.Split(strings.TrimSpace(string(raw)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	switch len(names) {
	case f.NCols():
	case nFeatures:
		for j := 0; j < nFaults; j++ {
			names = append(names, fmt.Sprintf("fault_%d", j))
		}
	default:
		return Parsed{}, fmt.Errorf("Faults27x7_var: %d names for %d columns", len(names), f.NCols())
	}
	if err := f.Rename(names); err != nil {
		return Parsed{}, err
	}

	faults := f.Columns[nFeatures:]
	labels := make([]float64, f.NRows())
	for i := range labels {
		active := -1
		for j, c := range faults {
			if c.Kind != data.Numeric {
				return Parsed{}, fmt.Errorf("fault column %q is not numeric", c.Name)
			}
			if c.Num[i] == 1 {
				active = j
				break
			}
		}
		if active < 0 {
			return Parsed{}, fmt.Errorf("row %d has no active fault", i)
		}
		labels[i] = float64(active)
	}
	return Parsed{Data: &Split{Features: f.Drop(names[nFeatures:]...), Labels: labels}}, nil
}

func parseSeismicBumps(dir string) (Parsed, error) {
	f, err := data.ReadARFFFile(filepath.Join(dir, "seismic-bumps.arff"))
	if err != nil {
		return Parsed{}, err
	}
	s, err := namedLabel(f, "class")
	return Parsed{Data: s}, err
}

func parseWineQuality(dir string) (Parsed, error) {
	f, err := data.ReadFile(filepath.Join(dir, "winequality-red.csv"), data.ReadOptions{Sep: ';', Header: true})
	if err != nil {
		return Parsed{}, err
	}
	s, err := namedLabel(f, "quality")
	return Parsed{Data: s}, err
}
