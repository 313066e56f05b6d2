package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/sentinel/internal/common"
)

// Artifact file names inside a model directory.
const (
	VectorizerFile = "vectorizer.json"
	ModelFile      = "fraud_classifier.json"
	LabelsFile     = "label_encoder.json"
)

// LabelsSpec maps model output indexes to label names.
type LabelsSpec struct {
	Classes []string `json:"classes"`
}

// Artifacts bundles the three documents produced by training.
type Artifacts struct {
	Labels     LabelsSpec
	Vectorizer VectorizerSpec
	Model      ModelSpec
}

// ReadArtifacts reads all artifacts from dir. Any failure wraps
// common.ErrArtifactLoad.
func ReadArtifacts(dir string) (*Artifacts, error) {
	var a Artifacts
	if err := readJSON(filepath.Join(dir, VectorizerFile), &a.Vectorizer); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, ModelFile), &a.Model); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, LabelsFile), &a.Labels); err != nil {
		return nil, err
	}
	return &a, nil
}

// WriteArtifacts stores a in dir, creating it if needed.
func WriteArtifacts(dir string, a *Artifacts) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}
	files := map[string]any{
		VectorizerFile: a.Vectorizer,
		ModelFile:      a.Model,
		LabelsFile:     a.Labels,
	}
	for name, doc := range files {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrArtifactLoad, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", common.ErrArtifactLoad, filepath.Base(path), err)
	}
	return nil
}
