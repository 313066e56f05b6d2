// Package extract mines transaction facts from noisy message text.
//
// Every field is located by an ordered list of rules that is evaluated
// short-circuit: the first rule that matches wins and later rules are never
// consulted. Reordering a list changes extraction priority.
package extract

import (
	"regexp"
	"strings"

	"github.com/Veraticus/sentinel/internal/model"
	"github.com/shopspring/decimal"
)

// rule pairs a pattern with the capture group holding the extracted value.
// Group 0 means the whole match.
type rule struct {
	pattern *regexp.Regexp
	name    string
	group   int
}

func (r rule) find(text string) (string, bool) {
	m := r.pattern.FindStringSubmatch(text)
	if m == nil || len(m) <= r.group || m[r.group] == "" {
		return "", false
	}
	return m[r.group], true
}

// firstMatch returns the value captured by the first matching rule.
func firstMatch(rules []rule, text string) (string, bool) {
	for _, r := range rules {
		if v, ok := r.find(text); ok {
			return v, true
		}
	}
	return "", false
}

// keywordRule assigns a transaction type when any keyword occurs in the text.
type keywordRule struct {
	txnType  model.TransactionType
	keywords []string
}

func (k keywordRule) matches(lower string) bool {
	for _, kw := range k.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

const number = `(\d+(?:,\d+)*(?:\.\d{2})?)`

var (
	amountRules = []rule{
		{name: "rupee-abbrev", pattern: regexp.MustCompile(`(?i)Rs\.?\s*` + number), group: 1},
		{name: "rupee-sign", pattern: regexp.MustCompile(`(?i)₹\s*` + number), group: 1},
		{name: "inr", pattern: regexp.MustCompile(`(?i)INR\s*` + number), group: 1},
		{name: "verb", pattern: regexp.MustCompile(`(?i)(?:paid|credited|debited|received|transferred)\s+(?:Rs\.?|₹)?\s*` + number), group: 1},
	}

	// Debit beats credit beats transfer when several sets match.
	typeRules = []keywordRule{
		{txnType: model.TransactionDebit, keywords: []string{"debited", "paid", "payment", "withdrawn"}},
		{txnType: model.TransactionCredit, keywords: []string{"credited", "received", "deposit", "refund"}},
		{txnType: model.TransactionTransfer, keywords: []string{"transferred", "transfer", "sent"}},
	}

	upiRules = []rule{
		{name: "upi-phone", pattern: regexp.MustCompile(`(\d{10})@[\w.]+`), group: 0},
	}

	accountRules = []rule{
		{name: "masked-account", pattern: regexp.MustCompile(`(?i)(?:account|a/c|ac)\s*(?:no\.?|number)?\s*[:\s]*([X*]{2,}\d{4})`), group: 1},
	}

	transactionIDRules = []rule{
		{name: "reference", pattern: regexp.MustCompile(`(?i)(?:txn|transaction|ref|reference|upi ref)\.?\s*(?:id|no|number)?[:\s]*(\w+)`), group: 1},
		{name: "order-payment", pattern: regexp.MustCompile(`(?i)(?:order|payment)\s*id[:\s]*(\w+)`), group: 1},
	}

	recipientRules = []rule{
		{name: "title-case-name", pattern: regexp.MustCompile(`to\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)`), group: 1},
	}
)

// Fields extracts transaction details from text. It never fails: anything
// that cannot be found is left empty.
func Fields(text string) model.TransactionDetails {
	lower := strings.ToLower(text)

	details := model.TransactionDetails{
		Amount: Amount(text),
		Type:   Type(text),
	}

	if v, ok := firstMatch(upiRules, text); ok {
		details.UPIID = v
	}
	if v, ok := firstMatch(accountRules, text); ok {
		details.AccountNumber = v
	}
	if v, ok := firstMatch(transactionIDRules, text); ok {
		details.TransactionID = v
	}
	if strings.Contains(lower, "to ") {
		if v, ok := firstMatch(recipientRules, text); ok {
			details.Recipient = v
		}
	}

	return details
}

// Amount returns the first monetary amount found in text, or nil.
// Thousands separators are ignored, so "Rs.1,000" and "Rs.1000" are equal.
func Amount(text string) *decimal.Decimal {
	raw, ok := firstMatch(amountRules, text)
	if !ok {
		return nil
	}
	amt, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil || amt.IsNegative() {
		return nil
	}
	return &amt
}

// Type classifies the direction of a transaction from its wording.
func Type(text string) model.TransactionType {
	lower := strings.ToLower(text)
	for _, r := range typeRules {
		if r.matches(lower) {
			return r.txnType
		}
	}
	return model.TransactionUnknown
}
