// Package model defines the core domain models used throughout the application.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// Label is a message category produced by the classifier.
type Label string

// Message categories known to the classifier.
const (
	LabelLegitimate     Label = "legitimate"
	LabelPhishing       Label = "phishing"
	LabelOTPRequest     Label = "otp_request"
	LabelFakeKYC        Label = "fake_kyc"
	LabelLotteryScam    Label = "lottery_scam"
	LabelBlockingThreat Label = "blocking_threat"
	LabelDeliveryScam   Label = "delivery_scam"
	LabelTaxScam        Label = "tax_scam"

	// LabelError is returned when there was nothing to classify.
	LabelError Label = "error"
)

// ErrUnknownLabel is returned when a string does not name a known category.
var ErrUnknownLabel = errors.New("unknown label")

var allLabels = []Label{
	LabelLegitimate,
	LabelPhishing,
	LabelOTPRequest,
	LabelFakeKYC,
	LabelLotteryScam,
	LabelBlockingThreat,
	LabelDeliveryScam,
	LabelTaxScam,
}

// AllLabels returns every classifiable category in a stable order.
// LabelError is not included.
func AllLabels() []Label {
	out := make([]Label, len(allLabels))
	copy(out, allLabels)
	return out
}

// ParseLabel converts a raw category name into a Label.
func ParseLabel(s string) (Label, error) {
	normalized := Label(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range allLabels {
		if l == normalized {
			return l, nil
		}
	}
	if normalized == LabelError {
		return LabelError, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLabel, s)
}

// IsFraud reports whether the label names a scam category.
func (l Label) IsFraud() bool {
	return l != LabelLegitimate && l != LabelError && l != ""
}

// String implements fmt.Stringer.
func (l Label) String() string {
	return string(l)
}

// DisplayName returns a human friendly category name.
func (l Label) DisplayName() string {
	switch l {
	case LabelLegitimate:
		return "Legitimate"
	case LabelPhishing:
		return "Phishing"
	case LabelOTPRequest:
		return "OTP Request"
	case LabelFakeKYC:
		return "Fake KYC"
	case LabelLotteryScam:
		return "Lottery Scam"
	case LabelBlockingThreat:
		return "Blocking Threat"
	case LabelDeliveryScam:
		return "Delivery Scam"
	case LabelTaxScam:
		return "Tax Scam"
	case LabelError:
		return "Error"
	default:
		return string(l)
	}
}
