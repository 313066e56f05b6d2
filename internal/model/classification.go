package model

import (
	"math"
	"sort"
	"time"
)

const (
	// DistributionTolerance is the allowed drift of a probability distribution from 1.
	DistributionTolerance = 1e-6

	// NoTextDetected is the text produced when OCR found nothing in an image.
	NoTextDetected = "No text detected in image"
)

// ClassificationResult is the classifier verdict for a piece of text.
type ClassificationResult struct {
	Distribution map[Label]float64
	Label        Label
	Confidence   float64
}

// ErrorResult is the verdict for input that had no text to classify.
func ErrorResult() ClassificationResult {
	return ClassificationResult{
		Label:        LabelError,
		Confidence:   0,
		Distribution: map[Label]float64{},
	}
}

// IsError reports whether classification was skipped.
func (r ClassificationResult) IsError() bool {
	return r.Label == LabelError
}

// Total returns the sum of all probabilities in the distribution.
func (r ClassificationResult) Total() float64 {
	var sum float64
	for _, p := range r.Distribution {
		sum += p
	}
	return sum
}

// Valid reports whether the result satisfies its invariants: confidence is the
// probability of the predicted label and the distribution sums to one.
func (r ClassificationResult) Valid() bool {
	if r.IsError() {
		return r.Confidence == 0 && len(r.Distribution) == 0
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return false
	}
	p, ok := r.Distribution[r.Label]
	if !ok || p != r.Confidence {
		return false
	}
	return math.Abs(r.Total()-1) <= DistributionTolerance
}

// Ranked returns the distribution sorted by descending probability.
// Ties are broken by the label order of AllLabels.
func (r ClassificationResult) Ranked() []LabelProbability {
	order := make(map[Label]int, len(allLabels))
	for i, l := range allLabels {
		order[l] = i
	}
	ranked := make([]LabelProbability, 0, len(r.Distribution))
	for l, p := range r.Distribution {
		ranked = append(ranked, LabelProbability{Label: l, Probability: p})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Probability != ranked[j].Probability {
			return ranked[i].Probability > ranked[j].Probability
		}
		return order[ranked[i].Label] < order[ranked[j].Label]
	})
	return ranked
}

// LabelProbability pairs a label with its probability.
type LabelProbability struct {
	Label       Label
	Probability float64
}

// FraudAnalysis is the externally visible verdict with its justification.
type FraudAnalysis struct {
	Probabilities map[Label]float64 `json:"probabilities"`
	Verdict       Label             `json:"verdict"`
	Reasoning     string            `json:"reasoning"`
	RedFlags      []string          `json:"red_flags,omitempty"`
	Confidence    float64           `json:"confidence"`
}

// PipelineResult aggregates everything learned from one analyzed message.
type PipelineResult struct {
	AnalyzedAt         time.Time          `json:"analyzed_at"`
	ID                 string             `json:"id"`
	Source             string             `json:"source,omitempty"`
	ExtractedText      string             `json:"extracted_text"`
	FraudAnalysis      FraudAnalysis      `json:"fraud_analysis"`
	TransactionDetails TransactionDetails `json:"transaction_details"`
}

// Classification returns the classifier view of the stored verdict.
func (r *PipelineResult) Classification() ClassificationResult {
	return ClassificationResult{
		Label:        r.FraudAnalysis.Verdict,
		Confidence:   r.FraudAnalysis.Confidence,
		Distribution: r.FraudAnalysis.Probabilities,
	}
}
