package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/sentinel/internal/model"
	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"
)

const (
	notDetected    = "Not detected"
	topPredictions = 3
)

// RenderAnalysis renders one pipeline result as a boxed report.
func RenderAnalysis(result *model.PipelineResult) string {
	analysis := result.FraudAnalysis
	style := VerdictStyle(analysis.Verdict)

	var b strings.Builder
	verdict := style.Render(analysis.Verdict.DisplayName())
	if analysis.Verdict != model.LabelError {
		verdict += SubtleStyle.Render(fmt.Sprintf("  (%.1f%%)", analysis.Confidence*100))
	}
	fmt.Fprintf(&b, "%s %s\n\n", BoldStyle.Render("Verdict:"), verdict)

	b.WriteString(BoldStyle.Render("Transaction"))
	b.WriteString("\n")
	b.WriteString(renderDetails(result.TransactionDetails))
	b.WriteString("\n\n")

	b.WriteString(BoldStyle.Render("Reasoning"))
	b.WriteString("\n")
	b.WriteString(analysis.Reasoning)

	if ranked := result.Classification().Ranked(); len(ranked) > 1 {
		b.WriteString("\n\n")
		b.WriteString(BoldStyle.Render("Top predictions"))
		for i, p := range ranked {
			if i == topPredictions {
				break
			}
			fmt.Fprintf(&b, "\n  %-16s %5.1f%%", p.Label.DisplayName(), p.Probability*100)
		}
	}

	title := "Message analysis"
	if result.Source != "" {
		title += " · " + result.Source
	}
	return RenderBox(title, b.String())
}

func renderDetails(d model.TransactionDetails) string {
	rows := [][2]string{
		{"Amount", model.FormatINR(d.Amount)},
		{"Type", orNotDetected(string(d.Type))},
		{"Recipient", orNotDetected(d.Recipient)},
		{"UPI ID", orNotDetected(d.UPIID)},
		{"Account", orNotDetected(d.AccountNumber)},
		{"Transaction ID", orNotDetected(d.TransactionID)},
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		value := row[1]
		if value == notDetected {
			value = SubtleStyle.Render(value)
		}
		lines = append(lines, "  "+TableCellStyle.Width(16).Render(row[0])+value)
	}
	return strings.Join(lines, "\n")
}

func orNotDetected(s string) string {
	if s == "" || s == string(model.TransactionUnknown) {
		return notDetected
	}
	return s
}

// RenderLinkReport renders the safety verdict of every link.
func RenderLinkReport(report *model.LinkReport) string {
	if report == nil {
		return FormatInfo("No links found")
	}

	var b strings.Builder
	for i, link := range report.Links {
		if i > 0 {
			b.WriteString("\n")
		}
		icon := SafeStyle.Render(SafeIcon)
		if link.IsSuspicious {
			icon = DangerStyle.Render(ErrorIcon)
		}
		fmt.Fprintf(&b, "%s %s %s", icon, link.URL, SubtleStyle.Render(fmt.Sprintf("(score %.2f)", link.SafetyScore)))
		for _, issue := range link.Issues {
			fmt.Fprintf(&b, "\n    %s %s", FlagIcon, issue)
		}
	}

	overall := report.Overall
	fmt.Fprintf(&b, "\n\n%s %s  %s",
		BoldStyle.Render("Overall risk:"),
		RiskStyle(overall.RiskLevel).Render(strings.ToUpper(string(overall.RiskLevel))),
		SubtleStyle.Render(fmt.Sprintf("%d of %d links suspicious", overall.SuspiciousLinks, overall.TotalLinks)),
	)

	return RenderBox(LinkIcon+" Link safety", b.String())
}

// RenderHistory renders stored analyses as a table, newest first.
func RenderHistory(results []*model.PipelineResult) string {
	if len(results) == 0 {
		return FormatInfo("No analyses recorded yet")
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		TableCellStyle.Width(18).Render("Analyzed"),
		TableCellStyle.Width(18).Render("Verdict"),
		TableCellStyle.Width(12).Render("Confidence"),
		TableCellStyle.Width(14).Render("Amount"),
		TableCellStyle.Render("Source"),
	)

	lines := []string{TableHeaderStyle.Render(header)}
	for _, r := range results {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			TableCellStyle.Width(18).Render(r.AnalyzedAt.Local().Format("2006-01-02 15:04")),
			TableCellStyle.Width(18).Inherit(VerdictStyle(r.FraudAnalysis.Verdict)).Render(r.FraudAnalysis.Verdict.DisplayName()),
			TableCellStyle.Width(12).Render(fmt.Sprintf("%.1f%%", r.FraudAnalysis.Confidence*100)),
			TableCellStyle.Width(14).Render(model.FormatINR(r.TransactionDetails.Amount)),
			TableCellStyle.Render(r.Source),
		))
	}
	return strings.Join(lines, "\n")
}

// NewProgressBar returns the bar shown while a batch of screenshots is analyzed.
func NewProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Analyzing screenshots...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
