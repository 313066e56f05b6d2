package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/shopspring/decimal"
)

// ListOptions filters analysis history.
type ListOptions struct {
	Verdict model.Label
	Limit   int
}

const analysisColumns = `id, analyzed_at, source, extracted_text, verdict, confidence, reasoning,
	probabilities, red_flags, amount, transaction_type, recipient, upi_id, account_number, transaction_id`

// Record implements pipeline.Sink by saving the analysis.
func (s *SQLiteStorage) Record(ctx context.Context, result *model.PipelineResult) error {
	return s.SaveAnalysis(ctx, result)
}

// SaveAnalysis stores a completed analysis.
func (s *SQLiteStorage) SaveAnalysis(ctx context.Context, result *model.PipelineResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAnalysis(result); err != nil {
		return err
	}

	probabilities, err := json.Marshal(result.FraudAnalysis.Probabilities)
	if err != nil {
		return fmt.Errorf("failed to encode probabilities: %w", err)
	}
	redFlags := result.FraudAnalysis.RedFlags
	if redFlags == nil {
		redFlags = []string{}
	}
	flags, err := json.Marshal(redFlags)
	if err != nil {
		return fmt.Errorf("failed to encode red flags: %w", err)
	}

	details := result.TransactionDetails
	var amount decimal.NullDecimal
	if details.Amount != nil {
		amount = decimal.NullDecimal{Decimal: *details.Amount, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO analyses (`+analysisColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.AnalyzedAt.UTC(),
		nullString(result.Source),
		result.ExtractedText,
		string(result.FraudAnalysis.Verdict),
		result.FraudAnalysis.Confidence,
		result.FraudAnalysis.Reasoning,
		string(probabilities),
		string(flags),
		amount,
		nullString(string(details.Type)),
		nullString(details.Recipient),
		nullString(details.UPIID),
		nullString(details.AccountNumber),
		nullString(details.TransactionID),
	)
	if err != nil {
		return fmt.Errorf("failed to save analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns the analysis with the given ID or common.ErrNotFound.
func (s *SQLiteStorage) GetAnalysis(ctx context.Context, id string) (*model.PipelineResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE id = ?`, id)
	result, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListAnalyses returns the most recent analyses first.
func (s *SQLiteStorage) ListAnalyses(ctx context.Context, opts ListOptions) ([]*model.PipelineResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, opts.Limit)
	}

	var (
		where []string
		args  []any
	)
	if opts.Verdict != "" {
		where = append(where, "verdict = ?")
		args = append(args, string(opts.Verdict))
	}

	query := `SELECT ` + analysisColumns + ` FROM analyses`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY analyzed_at DESC, id LIMIT ?"
	args = append(args, opts.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*model.PipelineResult
	for rows.Next() {
		result, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	return results, nil
}

// VerdictCounts returns how many stored analyses carry each verdict.
func (s *SQLiteStorage) VerdictCounts(ctx context.Context) (map[model.Label]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT verdict, COUNT(*) FROM analyses GROUP BY verdict`)
	if err != nil {
		return nil, fmt.Errorf("failed to count verdicts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.Label]int)
	for rows.Next() {
		var (
			verdict string
			count   int
		)
		if err := rows.Scan(&verdict, &count); err != nil {
			return nil, fmt.Errorf("failed to scan verdict count: %w", err)
		}
		counts[model.Label(verdict)] = count
	}
	return counts, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scanner) (*model.PipelineResult, error) {
	var (
		result        model.PipelineResult
		source        sql.NullString
		verdict       string
		probabilities string
		redFlags      string
		amount        decimal.NullDecimal
		txnType       sql.NullString
		recipient     sql.NullString
		upiID         sql.NullString
		accountNumber sql.NullString
		transactionID sql.NullString
	)

	err := row.Scan(
		&result.ID,
		&result.AnalyzedAt,
		&source,
		&result.ExtractedText,
		&verdict,
		&result.FraudAnalysis.Confidence,
		&result.FraudAnalysis.Reasoning,
		&probabilities,
		&redFlags,
		&amount,
		&txnType,
		&recipient,
		&upiID,
		&accountNumber,
		&transactionID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan analysis: %w", err)
	}

	result.Source = source.String
	result.FraudAnalysis.Verdict = model.Label(verdict)
	if err := json.Unmarshal([]byte(probabilities), &result.FraudAnalysis.Probabilities); err != nil {
		return nil, fmt.Errorf("%w: probabilities of %s: %w", common.ErrDatabaseCorrupted, result.ID, err)
	}
	if err := json.Unmarshal([]byte(redFlags), &result.FraudAnalysis.RedFlags); err != nil {
		return nil, fmt.Errorf("%w: red flags of %s: %w", common.ErrDatabaseCorrupted, result.ID, err)
	}
	if len(result.FraudAnalysis.RedFlags) == 0 {
		result.FraudAnalysis.RedFlags = nil
	}

	details := model.TransactionDetails{
		Type:          model.TransactionType(txnType.String),
		Recipient:     recipient.String,
		UPIID:         upiID.String,
		AccountNumber: accountNumber.String,
		TransactionID: transactionID.String,
	}
	if amount.Valid {
		amt := amount.Decimal
		details.Amount = &amt
	}
	result.TransactionDetails = details

	return &result, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
