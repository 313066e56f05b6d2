package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Veraticus/sentinel/internal/model"
)

// Sink receives every completed analysis. Delivery is best effort: the
// pipeline logs and ignores sink errors.
type Sink interface {
	Record(ctx context.Context, result *model.PipelineResult) error
}

// LogSink writes each analysis as one structured log record.
type LogSink struct {
	Logger *slog.Logger
}

// Record implements Sink.
func (s LogSink) Record(ctx context.Context, result *model.PipelineResult) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Message analyzed",
		slog.String("id", result.ID),
		slog.String("source", result.Source),
		slog.String("extracted_text", result.ExtractedText),
		slog.Any("transaction_details", result.TransactionDetails),
		slog.String("verdict", string(result.FraudAnalysis.Verdict)),
		slog.Float64("confidence", result.FraudAnalysis.Confidence),
		slog.Any("probabilities", result.FraudAnalysis.Probabilities),
	)
	return nil
}

// MultiSink fans a result out to several sinks. Every sink is tried; the
// errors are joined.
type MultiSink []Sink

// Record implements Sink.
func (m MultiSink) Record(ctx context.Context, result *model.PipelineResult) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, result *model.PipelineResult) error

// Record implements Sink.
func (f SinkFunc) Record(ctx context.Context, result *model.PipelineResult) error {
	return f(ctx, result)
}
