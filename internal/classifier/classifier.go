// Package classifier assigns a fraud category to message text using a
// TF-IDF vectorizer and a trained model loaded from disk.
package classifier

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
)

// Classifier is immutable after construction and safe for concurrent use.
type Classifier struct {
	vectorizer *Vectorizer
	model      Model
	labels     []model.Label
}

// Load reads the artifacts in dir and builds a classifier.
func Load(dir string) (*Classifier, error) {
	artifacts, err := ReadArtifacts(dir)
	if err != nil {
		return nil, err
	}
	return New(artifacts)
}

// New builds a classifier from decoded artifacts, checking that their
// dimensions agree. Errors wrap common.ErrArtifactLoad.
func New(a *Artifacts) (*Classifier, error) {
	vectorizer, err := newVectorizer(a.Vectorizer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrArtifactLoad, err)
	}
	m, err := newModel(a.Model)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrArtifactLoad, err)
	}
	if m.Features() != vectorizer.Features() {
		return nil, fmt.Errorf("%w: model expects %d features, vectorizer produces %d",
			common.ErrArtifactLoad, m.Features(), vectorizer.Features())
	}

	labels, err := parseLabels(a.Labels.Classes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrArtifactLoad, err)
	}
	if len(labels) != m.Classes() {
		return nil, fmt.Errorf("%w: label map has %d classes, model predicts %d",
			common.ErrArtifactLoad, len(labels), m.Classes())
	}

	return &Classifier{vectorizer: vectorizer, model: m, labels: labels}, nil
}

func parseLabels(classes []string) ([]model.Label, error) {
	labels := make([]model.Label, 0, len(classes))
	seen := make(map[model.Label]bool, len(classes))
	for _, c := range classes {
		label, err := model.ParseLabel(c)
		if err != nil {
			return nil, err
		}
		if label == model.LabelError {
			return nil, fmt.Errorf("label map may not contain %q", model.LabelError)
		}
		if seen[label] {
			return nil, fmt.Errorf("duplicate label %q", label)
		}
		seen[label] = true
		labels = append(labels, label)
	}
	return labels, nil
}

// Labels returns the labels the model can predict, in model output order.
func (c *Classifier) Labels() []model.Label {
	out := make([]model.Label, len(c.labels))
	copy(out, c.labels)
	return out
}

// Classify predicts the category of text. Empty text and the exact OCR
// no-text sentinel yield model.ErrorResult without consulting the model;
// anything else, whitespace included, is classified.
func (c *Classifier) Classify(text string) model.ClassificationResult {
	if text == "" || text == model.NoTextDetected {
		return model.ErrorResult()
	}

	x := c.vectorizer.Transform(Normalize(text))
	proba := c.model.PredictProba(x)

	var total float64
	for _, p := range proba {
		total += p
	}
	if total <= 0 {
		for i := range proba {
			proba[i] = 1
		}
		total = float64(len(proba))
	}

	best := 0
	for i, p := range proba {
		if p > proba[best] {
			best = i
		}
	}

	dist := make(map[model.Label]float64, len(model.AllLabels()))
	for _, l := range model.AllLabels() {
		dist[l] = 0
	}
	for i, p := range proba {
		dist[c.labels[i]] = p / total
	}

	label := c.labels[best]
	return model.ClassificationResult{
		Label:        label,
		Confidence:   dist[label],
		Distribution: dist,
	}
}

// Normalize lowercases text and collapses runs of whitespace.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
