package main

import (
	"fmt"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/Veraticus/sentinel/internal/telegram"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
)

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Long: `Run a Telegram bot that replies to forwarded screenshots with a fraud
verdict and to pasted messages with a verdict plus a link report.

The token is read from telegram.token, SENTINEL_TELEGRAM_TOKEN or TELEGRAM_BOT_TOKEN.`,
		RunE: runBot,
	}
}

func runBot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return common.NewUserError("Telegram bot token is not configured", fmt.Errorf("%w: telegram.token", common.ErrMissingConfig))
	}

	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	p, cleanup, err := buildPipeline(cfg, store)
	if err != nil {
		return err
	}
	defer cleanup()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}
	common.LogInfo("Telegram bot started", common.Fields{"username": api.Self.UserName})

	return telegram.New(api, p, buildLinkAnalyzer(cfg, true)).Run(ctx)
}
