package dataset

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Loader reads the two halves of a dataset from gob blobs. A source is
// either a local file path or an http(s) URL; remote blobs are fetched with
// a shared resty client.
type Loader struct {
	client *resty.Client
}

// NewLoader returns a loader with a default HTTP client.
func NewLoader() *Loader {
	return &Loader{client: resty.New()}
}

// Load reads the feature blob and the target blob and assembles a validated
// Dataset.
func (l *Loader) Load(ctx context.Context, featuresSrc, targetSrc string) (*Dataset, error) {
	var features [][]float64
	if err := l.decode(ctx, featuresSrc, &features); err != nil {
		return nil, fmt.Errorf("load features from %s: %w", featuresSrc, err)
	}
	var target []float64
	if err := l.decode(ctx, targetSrc, &target); err != nil {
		return nil, fmt.Errorf("load target from %s: %w", targetSrc, err)
	}
	ds, err := New(features, target)
	if err != nil {
		return nil, fmt.Errorf("validate dataset: %w", err)
	}
	return ds, nil
}

func (l *Loader) decode(ctx context.Context, src string, v any) error {
	data, err := l.read(ctx, src)
	if err != nil {
		return err
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("decode gob blob: %w", err)
	}
	return nil
}

func (l *Loader) read(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		resp, err := l.client.R().SetContext(ctx).Get(src)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("fetch: unexpected status %s", resp.Status())
		}
		return resp.Body(), nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

// SaveMatrix gob-encodes a feature matrix to path. It exists so tooling and
// tests can produce blobs in the loader's format.
func SaveMatrix(path string, features [][]float64) error {
	return saveGob(path, features)
}

// SaveVector gob-encodes a target vector to path.
func SaveVector(path string, target []float64) error {
	return saveGob(path, target)
}

func saveGob(path string, v any) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("encode gob blob: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
