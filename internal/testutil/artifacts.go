package testutil

import (
	"testing"

	"github.com/Veraticus/sentinel/internal/classifier"
	"github.com/Veraticus/sentinel/internal/model"
)

// fixtureTerms lists, per label, the words that push the fixture model
// towards that label.
var fixtureTerms = []struct {
	label model.Label
	terms []string
}{
	{model.LabelLegitimate, []string{"debited", "balance", "available", "credited"}},
	{model.LabelPhishing, []string{"click", "link", "urgent", "verify"}},
	{model.LabelOTPRequest, []string{"otp", "cvv", "pin"}},
	{model.LabelFakeKYC, []string{"kyc"}},
	{model.LabelLotteryScam, []string{"lottery", "won", "prize"}},
	{model.LabelBlockingThreat, []string{"blocked"}},
	{model.LabelDeliveryScam, []string{"delivery", "parcel"}},
	{model.LabelTaxScam, []string{"tax", "refund"}},
}

// FixtureArtifacts returns a small linear model over a hand-picked
// vocabulary. Each vocabulary word votes for one label, and text without
// any known word leans slightly towards legitimate.
func FixtureArtifacts() *classifier.Artifacts {
	vocabulary := map[string]int{}
	var owner []int
	classes := make([]string, len(fixtureTerms))
	for c, group := range fixtureTerms {
		classes[c] = string(group.label)
		for _, term := range group.terms {
			vocabulary[term] = len(owner)
			owner = append(owner, c)
		}
	}

	idf := make([]float64, len(owner))
	coef := make([][]float64, len(fixtureTerms))
	intercept := make([]float64, len(fixtureTerms))
	for c := range coef {
		coef[c] = make([]float64, len(owner))
	}
	for f, c := range owner {
		idf[f] = 1
		coef[c][f] = 4
	}
	intercept[0] = 0.1

	return &classifier.Artifacts{
		Vectorizer: classifier.VectorizerSpec{
			Vocabulary: vocabulary,
			IDF:        idf,
			NgramRange: [2]int{1, 1},
			Norm:       "l2",
		},
		Model: classifier.ModelSpec{
			Kind:      classifier.KindLinear,
			Coef:      coef,
			Intercept: intercept,
			NFeatures: len(owner),
			NClasses:  len(fixtureTerms),
		},
		Labels: classifier.LabelsSpec{Classes: classes},
	}
}

// WriteFixtureModel writes FixtureArtifacts to a temporary directory and
// returns its path.
func WriteFixtureModel(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	if err := classifier.WriteArtifacts(dir, FixtureArtifacts()); err != nil {
		t.Fatalf("failed to write fixture model: %v", err)
	}
	return dir
}

// FixtureClassifier loads the fixture model.
func FixtureClassifier(t *testing.T) *classifier.Classifier {
	t.Helper()

	c, err := classifier.Load(WriteFixtureModel(t))
	if err != nil {
		t.Fatalf("failed to load fixture model: %v", err)
	}
	return c
}
