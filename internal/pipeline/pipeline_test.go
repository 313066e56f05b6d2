package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"
	"testing"
	"time"

	"github.com/Veraticus/sentinel/internal/explain"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/pipeline"
	"github.com/Veraticus/sentinel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticExtractor string

func (s staticExtractor) Extract(context.Context, image.Image) string { return string(s) }

type recordingSink struct {
	err     error
	results []*model.PipelineResult
}

func (r *recordingSink) Record(_ context.Context, result *model.PipelineResult) error {
	r.results = append(r.results, result)
	return r.err
}

var fixedTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

func newPipeline(t *testing.T, text string, sink pipeline.Sink) *pipeline.Pipeline {
	t.Helper()
	return pipeline.New(
		staticExtractor(text),
		testutil.FixtureClassifier(t),
		pipeline.WithSink(sink),
		pipeline.WithClock(func() time.Time { return fixedTime }),
	)
}

func TestAnalyzeLegitimate(t *testing.T) {
	text := "Rs.500 debited from account XX1234 on 15-Jan-24. UPI/GPAY/9876543210. Available balance: Rs.5000"
	sink := &recordingSink{}
	p := newPipeline(t, text, sink)

	ctx := pipeline.WithSource(context.Background(), "screenshot.png")
	result, err := p.Analyze(ctx, image.NewGray(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, fixedTime, result.AnalyzedAt)
	assert.Equal(t, "screenshot.png", result.Source)
	assert.Equal(t, text, result.ExtractedText)

	require.NotNil(t, result.TransactionDetails.Amount)
	assert.Equal(t, 500.0, result.TransactionDetails.Amount.InexactFloat64())
	assert.Equal(t, model.TransactionDebit, result.TransactionDetails.Type)

	analysis := result.FraudAnalysis
	assert.Equal(t, model.LabelLegitimate, analysis.Verdict)
	assert.Empty(t, analysis.RedFlags)
	assert.NotContains(t, analysis.Reasoning, "Red Flags")
	assert.True(t, result.Classification().Valid())

	require.Len(t, sink.results, 1)
	assert.Same(t, result, sink.results[0])
}

func TestAnalyzeTextPhishing(t *testing.T) {
	text := "URGENT: Your bank account will be blocked. Click here immediately: bit.ly/fake123 to verify"
	p := newPipeline(t, "", &recordingSink{})

	result, err := p.AnalyzeText(context.Background(), text)
	require.NoError(t, err)

	analysis := result.FraudAnalysis
	assert.Equal(t, model.LabelPhishing, analysis.Verdict)
	assert.Equal(t, []string{
		"Contains suspicious links",
		"Uses urgency tactics",
		"Requests verification/update",
	}, analysis.RedFlags)
	assert.Contains(t, analysis.Reasoning, "🚩 Red Flags Detected:\n  • Contains suspicious links\n  • Uses urgency tactics\n  • Requests verification/update")
	assert.Empty(t, result.Source)
}

func TestAnalyzeNoText(t *testing.T) {
	p := newPipeline(t, model.NoTextDetected, &recordingSink{})

	result, err := p.Analyze(context.Background(), image.NewGray(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)

	analysis := result.FraudAnalysis
	assert.Equal(t, model.LabelError, analysis.Verdict)
	assert.Zero(t, analysis.Confidence)
	assert.Empty(t, analysis.Probabilities)
	assert.Equal(t, explain.ErrorReasoning, analysis.Reasoning)
	assert.Nil(t, analysis.RedFlags)
	assert.True(t, result.TransactionDetails.IsEmpty())
}

func TestAnalyzeWithoutExtractor(t *testing.T) {
	p := pipeline.New(nil, testutil.FixtureClassifier(t), pipeline.WithSink(&recordingSink{}))

	result, err := p.Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, model.LabelError, result.FraudAnalysis.Verdict)
}

func TestSinkErrorsAreSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	p := newPipeline(t, "", sink)

	result, err := p.AnalyzeText(context.Background(), "Your parcel delivery is on hold")
	require.NoError(t, err)
	assert.Equal(t, model.LabelDeliveryScam, result.FraudAnalysis.Verdict)
	assert.Len(t, sink.results, 1)
}

func TestAnalyzeCancelled(t *testing.T) {
	sink := &recordingSink{}
	p := newPipeline(t, "anything", sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Analyze(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	_, err = p.AnalyzeText(ctx, "anything")
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.results)
}

func TestMultiSink(t *testing.T) {
	first := &recordingSink{err: errors.New("first failed")}
	second := &recordingSink{}
	multi := pipeline.MultiSink{first, second}

	result := &model.PipelineResult{ID: "abc"}
	err := multi.Record(context.Background(), result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first failed")
	assert.Len(t, first.results, 1)
	assert.Len(t, second.results, 1)

	var called bool
	fn := pipeline.SinkFunc(func(context.Context, *model.PipelineResult) error {
		called = true
		return nil
	})
	require.NoError(t, fn.Record(context.Background(), result))
	assert.True(t, called)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := pipeline.LogSink{Logger: slog.New(slog.NewJSONHandler(&buf, nil))}
	p := newPipeline(t, "", sink)

	_, err := p.AnalyzeText(context.Background(), "Share OTP now")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"Message analyzed"`)
	assert.Contains(t, out, `"verdict":"otp_request"`)
	assert.Contains(t, out, `"extracted_text":"Share OTP now"`)
}
