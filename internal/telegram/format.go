package telegram

import (
	"fmt"
	"strings"

	"github.com/Veraticus/sentinel/internal/model"
)

// FormatResult renders an analysis as a plain-text chat reply.
func FormatResult(result *model.PipelineResult, links *model.LinkReport) string {
	var b strings.Builder
	analysis := result.FraudAnalysis

	switch {
	case analysis.Verdict == model.LabelError:
		b.WriteString("❔ ")
	case analysis.Verdict.IsFraud():
		b.WriteString("🚨 ")
	default:
		b.WriteString("✅ ")
	}
	b.WriteString(analysis.Verdict.DisplayName())
	b.WriteString("\n\n")
	b.WriteString(analysis.Reasoning)

	if d := result.TransactionDetails; !d.IsEmpty() {
		b.WriteString("\n\n💳 Transaction")
		fmt.Fprintf(&b, "\nAmount: %s", model.FormatINR(d.Amount))
		writeField(&b, "Type", string(d.Type))
		writeField(&b, "Recipient", d.Recipient)
		writeField(&b, "UPI ID", d.UPIID)
		writeField(&b, "Account", d.AccountNumber)
		writeField(&b, "Transaction ID", d.TransactionID)
	}

	if links != nil {
		fmt.Fprintf(&b, "\n\n🔗 Links: %s risk (%d of %d suspicious)",
			links.Overall.RiskLevel, links.Overall.SuspiciousLinks, links.Overall.TotalLinks)
		for _, link := range links.Links {
			if !link.IsSuspicious {
				continue
			}
			fmt.Fprintf(&b, "\n• %s", link.URL)
			for _, issue := range link.Issues {
				fmt.Fprintf(&b, "\n   - %s", issue)
			}
		}
	}

	return b.String()
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" || value == string(model.TransactionUnknown) {
		return
	}
	fmt.Fprintf(b, "\n%s: %s", name, value)
}
