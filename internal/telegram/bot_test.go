package telegram

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/sentinel/internal/linksafety"
	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/pipeline"
	"github.com/Veraticus/sentinel/internal/testutil"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const phishingText = "URGENT: Your bank account will be blocked. Click here immediately: bit.ly/fake123 to verify"

type staticExtractor string

func (s staticExtractor) Extract(context.Context, image.Image) string { return string(s) }

type fakeAPI struct {
	updates  [][]tgbotapi.Update
	fileURL  string
	sent     []string
	pollErrs int
	mu       sync.Mutex
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	if f.fileURL == "" {
		return "", errors.New("file not found")
	}
	return f.fileURL + "/" + fileID, nil
}

func (f *fakeAPI) GetUpdates(tgbotapi.UpdateConfig) ([]tgbotapi.Update, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollErrs > 0 {
		f.pollErrs--
		return nil, errors.New("network down")
	}
	if len(f.updates) == 0 {
		return nil, nil
	}
	next := f.updates[0]
	f.updates = f.updates[1:]
	return next, nil
}

func (f *fakeAPI) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func newBot(t *testing.T, api *fakeAPI, extracted string) *Bot {
	t.Helper()
	p := pipeline.New(staticExtractor(extracted), testutil.FixtureClassifier(t))
	return New(api, p, linksafety.NewAnalyzer(nil, 0))
}

func textUpdate(id int, text string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: 42},
			Text: text,
		},
	}
}

func commandUpdate(id int, command string) tgbotapi.Update {
	upd := textUpdate(id, command)
	upd.Message.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(command)}}
	return upd
}

func photoUpdate(id int) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: id,
		Message: &tgbotapi.Message{
			Chat: &tgbotapi.Chat{ID: 42},
			Photo: []tgbotapi.PhotoSize{
				{FileID: "small"},
				{FileID: "large"},
			},
		},
	}
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 8, 8))))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/large" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHandlePhoto(t *testing.T) {
	api := &fakeAPI{fileURL: imageServer(t).URL}
	bot := newBot(t, api, phishingText)

	bot.HandleUpdate(context.Background(), photoUpdate(1))

	sent := api.messages()
	require.Len(t, sent, 1)
	assert.True(t, strings.HasPrefix(sent[0], "🚨 Phishing"), sent[0])
	assert.Contains(t, sent[0], "Red Flags Detected")
	assert.Contains(t, sent[0], "http://bit.ly/fake123")
	assert.Contains(t, sent[0], "high risk (1 of 1 suspicious)")
}

func TestHandlePhotoDownloadFailure(t *testing.T) {
	tests := []struct {
		name    string
		fileURL func(t *testing.T) string
	}{
		{name: "unresolvable file", fileURL: func(*testing.T) string { return "" }},
		{name: "missing file", fileURL: func(t *testing.T) string { return imageServer(t).URL + "/gone" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{fileURL: tt.fileURL(t)}
			bot := newBot(t, api, phishingText)

			bot.HandleUpdate(context.Background(), photoUpdate(1))

			sent := api.messages()
			require.Len(t, sent, 1)
			assert.Equal(t, "Sorry, I could not read that image.", sent[0])
		})
	}
}

func TestHandleText(t *testing.T) {
	api := &fakeAPI{}
	bot := newBot(t, api, "")

	bot.HandleUpdate(context.Background(), textUpdate(1, "Rs.500 debited from account XX1234. Available balance: Rs.5000"))
	bot.HandleUpdate(context.Background(), commandUpdate(2, "/start"))
	bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 3})

	sent := api.messages()
	require.Len(t, sent, 2)
	assert.True(t, strings.HasPrefix(sent[0], "✅ Legitimate"), sent[0])
	assert.Contains(t, sent[0], "Amount: ₹500.00")
	assert.Contains(t, sent[0], "Account: XX1234")
	assert.NotContains(t, sent[0], "Links:")
	assert.Equal(t, helpText, sent[1])
}

func TestRunPolls(t *testing.T) {
	api := &fakeAPI{
		pollErrs: 1,
		updates: [][]tgbotapi.Update{
			{textUpdate(7, phishingText)},
		},
	}
	bot := newBot(t, api, "")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- bot.Run(ctx) }()

	require.Eventually(t, func() bool { return len(api.messages()) == 1 }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
	assert.Contains(t, api.messages()[0], "Phishing")
}

func TestFormatResultError(t *testing.T) {
	result := &model.PipelineResult{
		ExtractedText: model.NoTextDetected,
		TransactionDetails: model.TransactionDetails{
			Type: model.TransactionUnknown,
		},
		FraudAnalysis: model.FraudAnalysis{
			Verdict:   model.LabelError,
			Reasoning: "No text found in the image",
		},
	}

	out := FormatResult(result, nil)
	assert.Equal(t, "❔ Error\n\nNo text found in the image", out)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "ab…", truncate("abcdef", 2))
	// "₹" is three bytes; cutting inside it backs off to the rune start.
	assert.Equal(t, "a…", truncate("a₹b", 2))
}
