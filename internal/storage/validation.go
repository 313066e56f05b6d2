// Package storage provides the data persistence layer for sentinel.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sentinel/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidAnalysis = errors.New("invalid analysis")
	ErrInvalidLimit    = errors.New("limit must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAnalysis checks the fields the analyses table requires.
func validateAnalysis(result *model.PipelineResult) error {
	if result == nil {
		return fmt.Errorf("%w: analysis", ErrNilParameter)
	}
	if result.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidAnalysis)
	}
	if result.AnalyzedAt.IsZero() {
		return fmt.Errorf("%w: missing analysis time", ErrInvalidAnalysis)
	}
	if result.FraudAnalysis.Verdict == "" {
		return fmt.Errorf("%w: missing verdict", ErrInvalidAnalysis)
	}
	if _, err := model.ParseLabel(string(result.FraudAnalysis.Verdict)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidAnalysis, err)
	}
	return nil
}

// validateLinkReport ensures a link report is present.
func validateLinkReport(report *model.LinkReport) error {
	if report == nil {
		return fmt.Errorf("%w: link report", ErrNilParameter)
	}
	return nil
}
