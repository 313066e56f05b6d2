package classifier_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Veraticus/sentinel/internal/classifier"
	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	legitimateText = "Rs.500 debited from account XX1234 on 15-Jan-24. UPI/GPAY/9876543210. Available balance: Rs.5000"
	phishingText   = "URGENT: Your bank account will be blocked. Click here immediately: bit.ly/fake123 to verify"
)

func TestClassify(t *testing.T) {
	c := testutil.FixtureClassifier(t)

	tests := []struct {
		name          string
		text          string
		want          model.Label
		minConfidence float64
	}{
		{name: "bank debit alert", text: legitimateText, want: model.LabelLegitimate, minConfidence: 0.9},
		{name: "urgent verification link", text: phishingText, want: model.LabelPhishing, minConfidence: 0.5},
		{name: "otp request", text: "Share the OTP sent to your phone", want: model.LabelOTPRequest, minConfidence: 0.8},
		{name: "no known words leans legitimate", text: "hello there", want: model.LabelLegitimate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.text)
			assert.Equal(t, tt.want, got.Label)
			assert.True(t, got.Valid(), "result should be internally consistent: %+v", got)
			assert.GreaterOrEqual(t, got.Confidence, tt.minConfidence)
			assert.Len(t, got.Distribution, len(model.AllLabels()))
		})
	}
}

func TestClassifyGuard(t *testing.T) {
	c := testutil.FixtureClassifier(t)

	for _, text := range []string{"", model.NoTextDetected} {
		got := c.Classify(text)
		assert.Equal(t, model.ErrorResult(), got, "text %q", text)
	}

	for _, text := range []string{"   \n\t", "  " + model.NoTextDetected + "\n"} {
		got := c.Classify(text)
		assert.False(t, got.IsError(), "text %q", text)
		assert.True(t, got.Valid(), "text %q", text)
	}
}

func TestClassifyNormalizesInput(t *testing.T) {
	c := testutil.FixtureClassifier(t)

	a := c.Classify("CLICK   the\nLINK")
	b := c.Classify("click the link")
	assert.Equal(t, a, b)
	assert.Equal(t, "click the link", classifier.Normalize("  CLICK   the\nLINK "))
}

func TestClassifyTiesPickFirstClass(t *testing.T) {
	artifacts := &classifier.Artifacts{
		Vectorizer: classifier.VectorizerSpec{
			Vocabulary: map[string]int{"prize": 0},
			IDF:        []float64{1},
			Norm:       "l2",
		},
		Model: classifier.ModelSpec{
			Kind:      classifier.KindLinear,
			Coef:      [][]float64{{0}, {0}, {0}},
			Intercept: []float64{0, 0, 0},
			NFeatures: 1,
			NClasses:  3,
		},
		Labels: classifier.LabelsSpec{Classes: []string{"tax_scam", "legitimate", "phishing"}},
	}

	c, err := classifier.New(artifacts)
	require.NoError(t, err)

	got := c.Classify("anything at all")
	assert.Equal(t, model.LabelTaxScam, got.Label)
	assert.InDelta(t, 1.0/3, got.Confidence, 1e-9)
	assert.True(t, got.Valid())
	assert.Equal(t, []model.Label{model.LabelTaxScam, model.LabelLegitimate, model.LabelPhishing}, c.Labels())
}

func TestClassifyForest(t *testing.T) {
	artifacts := &classifier.Artifacts{
		Vectorizer: classifier.VectorizerSpec{
			Vocabulary: map[string]int{"otp": 0, "hello": 1},
			IDF:        []float64{1, 1},
			Norm:       "l2",
		},
		Model: classifier.ModelSpec{
			Kind:      classifier.KindForest,
			NFeatures: 2,
			NClasses:  2,
			Trees: []classifier.TreeSpec{
				{Nodes: []classifier.NodeSpec{
					{Feature: 0, Threshold: 0.5, Left: 1, Right: 2},
					{Left: classifier.Leaf, Right: classifier.Leaf, Value: []float64{9, 1}},
					{Left: classifier.Leaf, Right: classifier.Leaf, Value: []float64{0, 10}},
				}},
				{Nodes: []classifier.NodeSpec{
					{Left: classifier.Leaf, Right: classifier.Leaf, Value: []float64{3, 3}},
				}},
			},
		},
		Labels: classifier.LabelsSpec{Classes: []string{"legitimate", "otp_request"}},
	}

	c, err := classifier.New(artifacts)
	require.NoError(t, err)

	got := c.Classify("send otp now")
	assert.Equal(t, model.LabelOTPRequest, got.Label)
	assert.InDelta(t, 0.75, got.Confidence, 1e-9)
	assert.True(t, got.Valid())
	assert.Zero(t, got.Distribution[model.LabelPhishing])

	got = c.Classify("hello")
	assert.Equal(t, model.LabelLegitimate, got.Label)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)
}

func TestClassifyBigrams(t *testing.T) {
	artifacts := &classifier.Artifacts{
		Vectorizer: classifier.VectorizerSpec{
			Vocabulary:  map[string]int{"account blocked": 0, "account": 1},
			IDF:         []float64{2, 1},
			NgramRange:  [2]int{1, 2},
			Norm:        "l2",
			SublinearTF: true,
		},
		Model: classifier.ModelSpec{
			Kind:      classifier.KindLinear,
			Coef:      [][]float64{{0, 0}, {6, 0}},
			Intercept: []float64{0, 0},
			NFeatures: 2,
			NClasses:  2,
		},
		Labels: classifier.LabelsSpec{Classes: []string{"legitimate", "blocking_threat"}},
	}

	c, err := classifier.New(artifacts)
	require.NoError(t, err)

	assert.Equal(t, model.LabelBlockingThreat, c.Classify("Your account blocked today").Label)
	// Word order matters for bigrams, and the unigram carries no weight.
	assert.Equal(t, model.LabelLegitimate, c.Classify("blocked account").Label)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *classifier.Artifacts)
	}{
		{name: "idf shorter than vocabulary", mutate: func(a *classifier.Artifacts) {
			a.Vectorizer.IDF = a.Vectorizer.IDF[:3]
		}},
		{name: "model feature mismatch", mutate: func(a *classifier.Artifacts) {
			a.Model.NFeatures++
			for i := range a.Model.Coef {
				a.Model.Coef[i] = append(a.Model.Coef[i], 0)
			}
		}},
		{name: "unknown label", mutate: func(a *classifier.Artifacts) {
			a.Labels.Classes[0] = "crypto_scam"
		}},
		{name: "error label", mutate: func(a *classifier.Artifacts) {
			a.Labels.Classes[0] = "error"
		}},
		{name: "duplicate label", mutate: func(a *classifier.Artifacts) {
			a.Labels.Classes[1] = a.Labels.Classes[0]
		}},
		{name: "label count mismatch", mutate: func(a *classifier.Artifacts) {
			a.Labels.Classes = a.Labels.Classes[:7]
		}},
		{name: "unsupported kind", mutate: func(a *classifier.Artifacts) {
			a.Model.Kind = "svm"
		}},
		{name: "unsupported norm", mutate: func(a *classifier.Artifacts) {
			a.Vectorizer.Norm = "max"
		}},
		{name: "tree with cycle", mutate: func(a *classifier.Artifacts) {
			a.Model.Kind = classifier.KindForest
			a.Model.Trees = []classifier.TreeSpec{{Nodes: []classifier.NodeSpec{
				{Feature: 0, Threshold: 0.5, Left: 0, Right: 0},
			}}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifacts := testutil.FixtureArtifacts()
			tt.mutate(artifacts)

			dir := t.TempDir()
			require.NoError(t, classifier.WriteArtifacts(dir, artifacts))

			_, err := classifier.Load(dir)
			require.ErrorIs(t, err, common.ErrArtifactLoad)
		})
	}
}

func TestLoadMissingOrCorruptFiles(t *testing.T) {
	_, err := classifier.Load(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, common.ErrArtifactLoad)

	dir := testutil.WriteFixtureModel(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, classifier.LabelsFile), []byte("{not json"), 0o600))
	_, err = classifier.Load(dir)
	require.ErrorIs(t, err, common.ErrArtifactLoad)

	dir = testutil.WriteFixtureModel(t)
	require.NoError(t, os.Remove(filepath.Join(dir, classifier.ModelFile)))
	_, err = classifier.Load(dir)
	require.ErrorIs(t, err, common.ErrArtifactLoad)
}

func TestClassifyConcurrent(t *testing.T) {
	c := testutil.FixtureClassifier(t)
	want := c.Classify(phishingText)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, c.Classify(phishingText))
		}()
	}
	wg.Wait()
}
