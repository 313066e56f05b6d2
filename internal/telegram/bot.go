// Package telegram answers forwarded screenshots and messages with a fraud verdict.
package telegram

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/ocr"
	"github.com/Veraticus/sentinel/internal/pipeline"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	maxMessageLen  = 3900
	pollTimeout    = 30
	baseRetryDelay = time.Second
	maxRetryDelay  = 15 * time.Second
	idleDelay      = 200 * time.Millisecond
	downloadLimit  = 20 << 20

	helpText = "Forward me a screenshot of a bank SMS or payment message and I will tell you whether it looks like fraud.\n" +
		"You can also paste the message text, and I will check any links in it."
)

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// Analyzer runs the fraud analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, img image.Image) (*model.PipelineResult, error)
	AnalyzeText(ctx context.Context, text string) (*model.PipelineResult, error)
}

// LinkChecker grades the links found in a message.
type LinkChecker interface {
	AnalyzeText(ctx context.Context, text string) *model.LinkReport
}

// Bot routes Telegram updates to the pipeline.
type Bot struct {
	api      API
	analyzer Analyzer
	links    LinkChecker
	client   *http.Client
}

// New creates a Bot. links may be nil.
func New(api API, analyzer Analyzer, links LinkChecker) *Bot {
	return &Bot{
		api:      api,
		analyzer: analyzer,
		links:    links,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// Run long-polls for updates until ctx is canceled. Polling errors are
// retried with a bounded delay.
func (b *Bot) Run(ctx context.Context) error {
	offset := 0
	delay := baseRetryDelay

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = pollTimeout

		updates, err := b.api.GetUpdates(u)
		if err != nil {
			slog.Warn("Telegram polling failed", "error", err, "retry_in", delay)
			if !sleep(ctx, delay) {
				return nil
			}
			delay = min(delay*2, maxRetryDelay)
			continue
		}
		delay = baseRetryDelay

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			b.HandleUpdate(ctx, upd)
		}

		if len(updates) == 0 && !sleep(ctx, idleDelay) {
			return nil
		}
	}
}

// HandleUpdate answers a single update.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	switch {
	case msg.IsCommand():
		b.send(chatID, helpText)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		b.handleText(ctx, chatID, msg.Text)
	default:
		b.send(chatID, helpText)
	}
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	// Telegram lists sizes smallest first.
	photo := msg.Photo[len(msg.Photo)-1]

	img, err := b.download(ctx, photo.FileID)
	if err != nil {
		slog.Warn("Failed to fetch photo", "chat_id", chatID, "error", err)
		b.send(chatID, "Sorry, I could not read that image.")
		return
	}

	ctx = pipeline.WithSource(ctx, fmt.Sprintf("telegram:%d", chatID))
	result, err := b.analyzer.Analyze(ctx, img)
	if err != nil {
		slog.Warn("Analysis failed", "chat_id", chatID, "error", err)
		b.send(chatID, "Sorry, the analysis failed. Please try again.")
		return
	}

	var report *model.LinkReport
	if b.links != nil && result.ExtractedText != model.NoTextDetected {
		report = b.links.AnalyzeText(ctx, result.ExtractedText)
	}
	b.send(chatID, FormatResult(result, report))
}

func (b *Bot) handleText(ctx context.Context, chatID int64, text string) {
	ctx = pipeline.WithSource(ctx, fmt.Sprintf("telegram:%d", chatID))
	result, err := b.analyzer.AnalyzeText(ctx, text)
	if err != nil {
		slog.Warn("Analysis failed", "chat_id", chatID, "error", err)
		b.send(chatID, "Sorry, the analysis failed. Please try again.")
		return
	}

	var report *model.LinkReport
	if b.links != nil {
		report = b.links.AnalyzeText(ctx, text)
	}
	b.send(chatID, FormatResult(result, report))
}

func (b *Bot) download(ctx context.Context, fileID string) (image.Image, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	return ocr.Decode(io.LimitReader(resp.Body, downloadLimit))
}

func (b *Bot) send(chatID int64, text string) {
	text = truncate(text, maxMessageLen)
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		slog.Warn("Failed to send Telegram message", "chat_id", chatID, "error", err)
	}
}

// truncate shortens text to at most n bytes without splitting a rune.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n] + "…"
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
