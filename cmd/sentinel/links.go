package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Veraticus/sentinel/internal/cli"
	"github.com/Veraticus/sentinel/internal/common"
	"github.com/spf13/cobra"
)

func linksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links [text]",
		Short: "Check the links in a message",
		Long: `Find every URL in a message and grade it: shorteners, suspicious domain
shapes and bank look-alikes lower the score, and each link is probed with an
HTTP HEAD request unless --no-probe is given.

Examples:
  sentinel links "Verify now at secure-hdfc-login.com"
  sentinel links --file message.txt --json`,
		RunE: runLinks,
	}

	cmd.Flags().String("file", "", "Read the message text from a file")
	cmd.Flags().Bool("no-probe", false, "Skip HTTP reachability checks")
	cmd.Flags().Bool("json", false, "Print the report as JSON")

	return cmd
}

func runLinks(cmd *cobra.Command, args []string) error {
	file, _ := cmd.Flags().GetString("file")
	noProbe, _ := cmd.Flags().GetBool("no-probe")
	asJSON, _ := cmd.Flags().GetBool("json")

	text := strings.Join(args, " ")
	if file != "" {
		data, err := os.ReadFile(file) //nolint:gosec // user-specified input file
		if err != nil {
			return common.NewUserError("Cannot read "+file, err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("provide message text or --file")
	}

	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	report := buildLinkAnalyzer(cfg, !noProbe).AnalyzeText(ctx, text)

	if report != nil {
		store, err := openHistory(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore(store)
		if store != nil {
			if err := store.SaveLinkReport(ctx, time.Now(), report); err != nil {
				common.LogWarn("Failed to record link checks", common.Fields{"error": err})
			}
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err = fmt.Fprintln(out, cli.RenderLinkReport(report))
	return err
}
