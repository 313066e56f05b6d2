package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// TransactionType describes the direction of money movement in a message.
type TransactionType string

// Transaction types detected from message wording.
const (
	TransactionDebit    TransactionType = "Debit"
	TransactionCredit   TransactionType = "Credit"
	TransactionTransfer TransactionType = "Transfer"
	TransactionUnknown  TransactionType = "Unknown"
)

// TransactionDetails holds the facts mined from a financial message.
// Every field is optional; empty strings and a nil Amount mean "not found".
type TransactionDetails struct {
	Amount        *decimal.Decimal
	Type          TransactionType
	Recipient     string
	UPIID         string
	AccountNumber string
	TransactionID string
}

// HasAmount reports whether an amount was extracted.
func (d TransactionDetails) HasAmount() bool {
	return d.Amount != nil
}

// IsEmpty reports whether no field was extracted at all.
func (d TransactionDetails) IsEmpty() bool {
	return d.Amount == nil &&
		(d.Type == "" || d.Type == TransactionUnknown) &&
		d.Recipient == "" &&
		d.UPIID == "" &&
		d.AccountNumber == "" &&
		d.TransactionID == ""
}

type transactionDetailsJSON struct {
	Amount        *float64 `json:"amount"`
	Type          *string  `json:"transaction_type"`
	Recipient     *string  `json:"recipient"`
	UPIID         *string  `json:"upi_id"`
	AccountNumber *string  `json:"account_number"`
	TransactionID *string  `json:"transaction_id"`
}

// MarshalJSON renders absent fields as null and the amount as a number.
func (d TransactionDetails) MarshalJSON() ([]byte, error) {
	out := transactionDetailsJSON{
		Recipient:     optional(d.Recipient),
		UPIID:         optional(d.UPIID),
		AccountNumber: optional(d.AccountNumber),
		TransactionID: optional(d.TransactionID),
	}
	if d.Amount != nil {
		f := d.Amount.InexactFloat64()
		out.Amount = &f
	}
	if d.Type != "" && d.Type != TransactionUnknown {
		out.Type = optional(string(d.Type))
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the representation produced by MarshalJSON.
func (d *TransactionDetails) UnmarshalJSON(data []byte) error {
	var in transactionDetailsJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*d = TransactionDetails{Type: TransactionUnknown}
	if in.Amount != nil {
		amt := decimal.NewFromFloat(*in.Amount)
		d.Amount = &amt
	}
	if in.Type != nil {
		d.Type = TransactionType(*in.Type)
	}
	d.Recipient = deref(in.Recipient)
	d.UPIID = deref(in.UPIID)
	d.AccountNumber = deref(in.AccountNumber)
	d.TransactionID = deref(in.TransactionID)
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
