// Package explain turns a classifier verdict into a narrative for the user.
package explain

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sentinel/internal/model"
)

const (
	// ErrorReasoning is the narrative for messages that had no text.
	ErrorReasoning = "No text found in the image"

	// UnknownMessage is used for labels without a base message.
	UnknownMessage = "Unable to determine message type"

	redFlagHeader = "🚩 Red Flags Detected:"
)

var baseMessages = map[model.Label]string{
	model.LabelLegitimate:     "✅ This appears to be a legitimate transaction message. It contains standard banking/payment information without suspicious elements.",
	model.LabelPhishing:       "⚠️ DANGER: This is a phishing attempt! It tries to lure you to click malicious links or provide sensitive information. Never click unknown links.",
	model.LabelOTPRequest:     "⚠️ FRAUD ALERT: This message requests your OTP, PIN, or CVV. Banks NEVER ask for these details. Do not share any codes!",
	model.LabelFakeKYC:        "⚠️ SCAM: This is a fake KYC update message. Banks don't ask for KYC through SMS/messages with suspicious links. Verify through official channels.",
	model.LabelLotteryScam:    "⚠️ SCAM: This is a lottery/prize scam. You cannot win a lottery you never entered. Ignore and delete this message.",
	model.LabelBlockingThreat: "⚠️ THREAT SCAM: This uses fear tactics by threatening account blocking. Banks provide proper notice through official channels, not threats.",
	model.LabelDeliveryScam:   "⚠️ SCAM: This is a fake delivery charge message. Verify any delivery notifications through official courier websites or apps.",
	model.LabelTaxScam:        "⚠️ SCAM: This is a fake tax refund message. Income tax department communicates through official portals, not SMS/messages with links.",
}

func init() {
	for _, l := range model.AllLabels() {
		if _, ok := baseMessages[l]; !ok {
			panic(fmt.Sprintf("explain: no base message for label %q", l))
		}
	}
}

// redFlag fires when any of its keywords occurs in the lowercased text.
type redFlag struct {
	message  string
	keywords []string
}

// Flags are reported in this order.
var redFlags = []redFlag{
	{message: "Contains suspicious links", keywords: []string{"click", "link", "bit.ly", "tiny.url", "www."}},
	{message: "Asks for sensitive credentials", keywords: []string{"otp", "pin", "cvv", "password"}},
	{message: "Uses urgency tactics", keywords: []string{"urgent", "immediately", "within", "hours", "blocked"}},
	{message: "Promises unrealistic rewards", keywords: []string{"won", "winner", "prize", "lottery", "congratulations", "lakh"}},
	{message: "Requests verification/update", keywords: []string{"verify", "update", "confirm", "validate"}},
}

// confidenceTier describes confidences strictly above floor.
type confidenceTier struct {
	floor  float64
	format string
}

var confidenceTiers = []confidenceTier{
	{floor: 0.9, format: "Very high confidence (%.1f%%)"},
	{floor: 0.75, format: "High confidence (%.1f%%)"},
	{floor: 0.6, format: "Moderate confidence (%.1f%%)"},
}

const lowConfidenceFormat = "Low confidence (%.1f%%) - Please verify manually"

// BaseMessage returns the fixed message for label.
func BaseMessage(label model.Label) string {
	if msg, ok := baseMessages[label]; ok {
		return msg
	}
	return UnknownMessage
}

// ConfidenceText renders confidence as a tiered sentence.
func ConfidenceText(confidence float64) string {
	for _, tier := range confidenceTiers {
		if confidence > tier.floor {
			return fmt.Sprintf(tier.format, confidence*100)
		}
	}
	return fmt.Sprintf(lowConfidenceFormat, confidence*100)
}

// RedFlags lists the warning signs found in text. Legitimate messages never
// carry red flags.
func RedFlags(label model.Label, text string) []string {
	if label == model.LabelLegitimate {
		return nil
	}

	lower := strings.ToLower(text)
	var flags []string
	for _, flag := range redFlags {
		for _, kw := range flag.keywords {
			if strings.Contains(lower, kw) {
				flags = append(flags, flag.message)
				break
			}
		}
	}
	return flags
}

// Explain builds the narrative for a verdict: the base message, the
// confidence sentence and, for fraud, a bullet list of red flags.
func Explain(label model.Label, confidence float64, text string) string {
	if label == model.LabelError {
		return ErrorReasoning
	}

	var b strings.Builder
	b.WriteString(BaseMessage(label))
	b.WriteString("\n\n")
	b.WriteString(ConfidenceText(confidence))

	if flags := RedFlags(label, text); len(flags) > 0 {
		b.WriteString("\n\n")
		b.WriteString(redFlagHeader)
		for _, flag := range flags {
			b.WriteString("\n  • ")
			b.WriteString(flag)
		}
	}

	return b.String()
}
