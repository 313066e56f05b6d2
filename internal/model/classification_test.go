package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassificationResultValid(t *testing.T) {
	t.Run("error result", func(t *testing.T) {
		r := ErrorResult()
		assert.True(t, r.IsError())
		assert.True(t, r.Valid())
		assert.Zero(t, r.Confidence)
		assert.Empty(t, r.Distribution)
	})

	t.Run("consistent distribution", func(t *testing.T) {
		r := ClassificationResult{
			Label:      LabelPhishing,
			Confidence: 0.7,
			Distribution: map[Label]float64{
				LabelPhishing:   0.7,
				LabelLegitimate: 0.2,
				LabelTaxScam:    0.1,
			},
		}
		assert.True(t, r.Valid())
	})

	t.Run("confidence mismatch", func(t *testing.T) {
		r := ClassificationResult{
			Label:        LabelPhishing,
			Confidence:   0.9,
			Distribution: map[Label]float64{LabelPhishing: 0.7, LabelLegitimate: 0.3},
		}
		assert.False(t, r.Valid())
	})

	t.Run("does not sum to one", func(t *testing.T) {
		r := ClassificationResult{
			Label:        LabelPhishing,
			Confidence:   0.7,
			Distribution: map[Label]float64{LabelPhishing: 0.7, LabelLegitimate: 0.1},
		}
		assert.False(t, r.Valid())
	})
}

func TestClassificationResultRanked(t *testing.T) {
	r := ClassificationResult{
		Label:      LabelLotteryScam,
		Confidence: 0.5,
		Distribution: map[Label]float64{
			LabelTaxScam:     0.25,
			LabelLotteryScam: 0.5,
			LabelPhishing:    0.25,
		},
	}

	ranked := r.Ranked()
	require.Len(t, ranked, 3)
	assert.Equal(t, LabelLotteryScam, ranked[0].Label)
	// Ties keep taxonomy order: phishing comes before tax_scam.
	assert.Equal(t, LabelPhishing, ranked[1].Label)
	assert.Equal(t, LabelTaxScam, ranked[2].Label)
}

func TestTransactionDetailsJSON(t *testing.T) {
	amount := decimal.RequireFromString("500")
	details := TransactionDetails{
		Amount:        &amount,
		Type:          TransactionDebit,
		AccountNumber: "XX1234",
	}

	raw, err := json.Marshal(details)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"amount": 500,
		"transaction_type": "Debit",
		"recipient": null,
		"upi_id": null,
		"account_number": "XX1234",
		"transaction_id": null
	}`, string(raw))

	var back TransactionDetails
	require.NoError(t, json.Unmarshal(raw, &back))
	require.NotNil(t, back.Amount)
	assert.True(t, amount.Equal(*back.Amount))
	assert.Equal(t, TransactionDebit, back.Type)
	assert.Equal(t, "XX1234", back.AccountNumber)
}

func TestTransactionDetailsEmpty(t *testing.T) {
	assert.True(t, TransactionDetails{Type: TransactionUnknown}.IsEmpty())
	assert.False(t, TransactionDetails{UPIID: "9876543210@ybl"}.IsEmpty())

	raw, err := json.Marshal(TransactionDetails{Type: TransactionUnknown})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"transaction_type":null`)
}
