package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"tabbench/pkg/ctxlog"
	"tabbench/pkg/loader"
)

// DefaultTestSize is the held-out fraction for datasets without a test file.
const DefaultTestSize = 0.25

// Provider downloads datasets into WorkDir and returns their splits.
type Provider struct {
	WorkDir  string
	TestSize float64
	// Seed makes random splits reproducible; 0 leaves them unseeded.
	Seed   int64
	Client *http.Client
}

// NewProvider returns a Provider with the default test size and http client.
func NewProvider(workDir string) *Provider {
	return &Provider{WorkDir: workDir, TestSize: DefaultTestSize, Client: http.DefaultClient}
}

// Get ensures the dataset's files are present locally, parses them and
// returns the train and test splits.
func (p *Provider) Get(ctx context.Context, spec Spec) (train, test Split, err error) {
	logger := ctxlog.FromContext(ctx).With("dataset", spec.Name)
	if err := p.Fetch(ctx, spec); err != nil {
		return Split{}, Split{}, err
	}

	parsed, err := spec.Parse(p.WorkDir)
	if err != nil {
		return Split{}, Split{}, fmt.Errorf("%w: %s: %w", ErrParse, spec.Name, err)
	}

	switch {
	case parsed.Train != nil && parsed.Test != nil:
		train, test = *parsed.Train, *parsed.Test
	case parsed.Data != nil:
		train, test = p.split(*parsed.Data)
	default:
		return Split{}, Split{}, fmt.Errorf("%w: %s: parser returned no data", ErrParse, spec.Name)
	}
	logger.Debug("Dataset loaded.", "train_rows", train.Len(), "test_rows", test.Len())
	return train, test, nil
}

// Fetch downloads every declared resource whose local file is absent.
func (p *Provider) Fetch(ctx context.Context, spec Spec) error {
	if len(spec.Resources) == 0 {
		return fmt.Errorf("%w: %s declares no resources", ErrDownload, spec.Name)
	}
	for _, r := range spec.Resources {
		path := filepath.Join(p.WorkDir, r.Filename)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s: %w", ErrDownload, r.Filename, err)
		}
		if err := os.MkdirAll(p.WorkDir, 0o755); err != nil {
			return fmt.Errorf("%w: %w", ErrDownload, err)
		}
		ctxlog.FromContext(ctx).Info("Downloading dataset file.", "dataset", spec.Name, "url", r.URL)
		if err := p.download(ctx, r.URL, path); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrDownload, r.URL, err)
		}
	}
	return nil
}

// download writes the body of url to path via a temporary file, so an
// interrupted transfer never leaves a file that later counts as present.
func (p *Provider) download(ctx context.Context, url, path string) error {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.ReplaceAll(url, " ", "%20"), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.part")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (p *Provider) split(s Split) (Split, Split) {
	var rng *rand.Rand
	if p.Seed != 0 {
		rng = rand.New(rand.NewSource(p.Seed))
	}
	testSize := p.TestSize
	if testSize <= 0 || testSize >= 1 {
		testSize = DefaultTestSize
	}
	trainIdx, testIdx := loader.TrainTestSplit(s.Len(), testSize, rng)
	return take(s, trainIdx), take(s, testIdx)
}

func take(s Split, idx []int) Split {
	y := make([]float64, len(idx))
	for i, j := range idx {
		y[i] = s.Labels[j]
	}
	return Split{Features: s.Features.Take(idx), Labels: y}
}
