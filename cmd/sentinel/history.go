package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/sentinel/internal/cli"
	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/storage"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously analyzed messages",
		RunE:  runHistory,
	}

	cmd.Flags().Int("limit", 20, "Maximum number of analyses to show")
	cmd.Flags().String("verdict", "", "Only show analyses with this verdict (e.g. phishing)")
	cmd.Flags().Bool("links", false, "Show recent link checks instead of analyses")
	cmd.Flags().Bool("json", false, "Print results as JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	verdictName, _ := cmd.Flags().GetString("verdict")
	showLinks, _ := cmd.Flags().GetBool("links")
	asJSON, _ := cmd.Flags().GetBool("json")

	opts := storage.ListOptions{Limit: limit}
	if verdictName != "" {
		verdict, err := model.ParseLabel(verdictName)
		if err != nil {
			return common.NewUserError("Unknown verdict "+verdictName, err)
		}
		opts.Verdict = verdict
	}

	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Database.HistoryEnabled {
		return common.NewUserError("History is disabled; set history.enabled to true", nil)
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if showLinks {
		checks, err := store.ListLinkChecks(ctx, limit)
		if err != nil {
			return err
		}
		if asJSON {
			return enc.Encode(checks)
		}
		_, err = fmt.Fprintln(out, renderLinkChecks(checks))
		return err
	}

	results, err := store.ListAnalyses(ctx, opts)
	if err != nil {
		return err
	}
	if asJSON {
		return enc.Encode(results)
	}

	counts, err := store.VerdictCounts(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s\n\n%s\n", cli.RenderHistory(results), renderCounts(counts))
	return err
}

func renderCounts(counts map[model.Label]int) string {
	var parts []string
	for _, label := range append(model.AllLabels(), model.LabelError) {
		if n := counts[label]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", label.DisplayName(), n))
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return cli.SubtleStyle.Render("Totals  " + strings.Join(parts, " · "))
}

func renderLinkChecks(checks []storage.LinkCheck) string {
	if len(checks) == 0 {
		return cli.FormatInfo("No link checks recorded yet")
	}
	lines := make([]string, 0, len(checks))
	for _, c := range checks {
		status := cli.SafeStyle.Render(cli.SafeIcon)
		if c.IsSuspicious {
			status = cli.DangerStyle.Render(cli.ErrorIcon)
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s %s",
			c.CheckedAt.Local().Format("2006-01-02 15:04"),
			status,
			c.URL,
			cli.SubtleStyle.Render(fmt.Sprintf("(score %.2f)", c.SafetyScore)),
		))
	}
	return strings.Join(lines, "\n")
}
