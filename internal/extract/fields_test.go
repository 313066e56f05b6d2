package extract

import (
	"testing"

	"github.com/Veraticus/sentinel/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.TransactionDetails
	}{
		{
			name: "bank debit alert",
			text: "Rs.500 debited from account XX1234 on 15-Jan-24. UPI/GPAY/9876543210. Available balance: Rs.5000",
			want: model.TransactionDetails{
				Amount:        amount("500"),
				Type:          model.TransactionDebit,
				AccountNumber: "XX1234",
			},
		},
		{
			name: "payment with txn id",
			text: "You have successfully paid Rs.250 to ABC Store via UPI. Txn ID: 402345678901",
			want: model.TransactionDetails{
				Amount:        amount("250"),
				Type:          model.TransactionDebit,
				TransactionID: "402345678901",
			},
		},
		{
			name: "transfer with recipient and upi ref",
			text: "Rs.2500 transferred to Ramesh Kumar via PhonePe. UPI Ref: 401234567890",
			want: model.TransactionDetails{
				Amount:        amount("2500"),
				Type:          model.TransactionTransfer,
				Recipient:     "Ramesh Kumar",
				TransactionID: "401234567890",
			},
		},
		{
			name: "credit with upi id",
			text: "Received Rs.2000 from 9876543210@ybl via UPI",
			want: model.TransactionDetails{
				Amount: amount("2000"),
				Type:   model.TransactionCredit,
				UPIID:  "9876543210@ybl",
			},
		},
		{
			name: "order id fallback",
			text: "Payment of Rs.799 to Amazon Pay successful. Order ID: 1234567",
			want: model.TransactionDetails{
				Amount:        amount("799"),
				Type:          model.TransactionDebit,
				Recipient:     "Amazon Pay",
				TransactionID: "1234567",
			},
		},
		{
			name: "inr with starred account",
			text: "A/c no. **5678 credited with INR 1,250.50",
			want: model.TransactionDetails{
				Amount:        amount("1250.50"),
				Type:          model.TransactionCredit,
				AccountNumber: "**5678",
			},
		},
		{
			name: "nothing to find",
			text: "hello world",
			want: model.TransactionDetails{Type: model.TransactionUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fields(tt.text)
			assertAmount(t, tt.want.Amount, got.Amount)
			assert.Equal(t, tt.want.Type, got.Type)
			assert.Equal(t, tt.want.Recipient, got.Recipient)
			assert.Equal(t, tt.want.UPIID, got.UPIID)
			assert.Equal(t, tt.want.AccountNumber, got.AccountNumber)
			assert.Equal(t, tt.want.TransactionID, got.TransactionID)
		})
	}
}

func TestAmountThousandsSeparators(t *testing.T) {
	withSep := Amount("Rs.1,000")
	withoutSep := Amount("Rs.1000")
	require.NotNil(t, withSep)
	require.NotNil(t, withoutSep)
	assert.True(t, withSep.Equal(*withoutSep))
	assert.Equal(t, 1000.0, withSep.InexactFloat64())

	lakhs := Amount("₹ 2,50,000 credited")
	require.NotNil(t, lakhs)
	assert.Equal(t, "250000", lakhs.String())
}

func TestAmountRuleOrder(t *testing.T) {
	// The Rs pattern is tried before the verb pattern even though the verb
	// amount appears first in the text.
	got := Amount("debited 300 for order, Rs.45 cashback")
	require.NotNil(t, got)
	assert.Equal(t, "45", got.String())

	got = Amount("Your account was debited 300 today")
	require.NotNil(t, got)
	assert.Equal(t, "300", got.String())

	assert.Nil(t, Amount("no money mentioned"))
}

func TestTypePriority(t *testing.T) {
	tests := []struct {
		text string
		want model.TransactionType
	}{
		{text: "Rs.100 debited and Rs.100 received", want: model.TransactionDebit},
		{text: "Refund received and transfer initiated", want: model.TransactionCredit},
		{text: "Money sent to savings", want: model.TransactionTransfer},
		{text: "PAYMENT DUE", want: model.TransactionDebit},
		{text: "balance enquiry", want: model.TransactionUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, Type(tt.text))
		})
	}
}

func TestRecipientRequiresLowercaseTo(t *testing.T) {
	assert.Empty(t, Fields("Sent TO Ramesh").Recipient)
	assert.Empty(t, Fields("paid to ramesh kumar").Recipient)
	assert.Equal(t, "Sita", Fields("Rs.10 paid to Sita").Recipient)
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func assertAmount(t *testing.T, want, got *decimal.Decimal) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.True(t, want.Equal(*got), "want %s, got %s", want, got)
}
