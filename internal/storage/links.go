package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/sentinel/internal/model"
)

// LinkCheck is one stored link verdict.
type LinkCheck struct {
	CheckedAt time.Time
	model.LinkAnalysis
	ID int64
}

// SaveLinkReport stores every link of report in a single transaction.
func (s *SQLiteStorage) SaveLinkReport(ctx context.Context, checkedAt time.Time, report *model.LinkReport) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateLinkReport(report); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO link_checks (checked_at, url, is_suspicious, safety_score, issues)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, link := range report.Links {
		issues := link.Issues
		if issues == nil {
			issues = []string{}
		}
		encoded, err := json.Marshal(issues)
		if err != nil {
			return fmt.Errorf("failed to encode issues: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, checkedAt.UTC(), link.URL, link.IsSuspicious, link.SafetyScore, string(encoded)); err != nil {
			return fmt.Errorf("failed to save link check for %s: %w", link.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit link checks: %w", err)
	}
	return nil
}

// ListLinkChecks returns the most recent link checks first.
func (s *SQLiteStorage) ListLinkChecks(ctx context.Context, limit int) ([]LinkCheck, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, checked_at, url, is_suspicious, safety_score, issues
		FROM link_checks
		ORDER BY checked_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query link checks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var checks []LinkCheck
	for rows.Next() {
		var (
			check  LinkCheck
			issues string
		)
		if err := rows.Scan(&check.ID, &check.CheckedAt, &check.URL, &check.IsSuspicious, &check.SafetyScore, &issues); err != nil {
			return nil, fmt.Errorf("failed to scan link check: %w", err)
		}
		if err := json.Unmarshal([]byte(issues), &check.Issues); err != nil {
			return nil, fmt.Errorf("failed to decode issues of link check %d: %w", check.ID, err)
		}
		checks = append(checks, check)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate link checks: %w", err)
	}
	return checks, nil
}
