package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/sentinel/internal/model"
	"github.com/Veraticus/sentinel/internal/storage"
	"github.com/Veraticus/sentinel/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legitText = "Rs.500 debited from account XX1234. Available balance: Rs.5000"

// setupCLI points the CLI at the fixture model and returns the history
// database path. An empty path disables history.
func setupCLI(t *testing.T, withHistory bool) string {
	t.Helper()
	t.Cleanup(viper.Reset)
	t.Setenv("HOME", t.TempDir())

	viper.Set("models.dir", testutil.WriteFixtureModel(t))
	viper.Set("history.enabled", withHistory)
	if !withHistory {
		return ""
	}
	dbPath := filepath.Join(t.TempDir(), "history.db")
	viper.Set("database.path", dbPath)
	return dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyzeTextJSON(t *testing.T) {
	setupCLI(t, false)

	out, err := execute(t, "analyze", "--text", legitText, "--json")
	require.NoError(t, err)

	var result model.PipelineResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, legitText, result.ExtractedText)
	assert.Equal(t, "text", result.Source)
	assert.Equal(t, model.LabelLegitimate, result.FraudAnalysis.Verdict)
	assert.Equal(t, "XX1234", result.TransactionDetails.AccountNumber)
}

func TestAnalyzeTextReport(t *testing.T) {
	setupCLI(t, false)

	out, err := execute(t, "analyze", "--text", "Click bit.ly/win to claim your lottery prize", "--links")
	require.NoError(t, err)
	assert.Contains(t, out, "Lottery Scam")
	assert.Contains(t, out, "http://bit.ly/win")
	assert.Contains(t, out, "Overall risk")
}

func TestAnalyzeRequiresInput(t *testing.T) {
	setupCLI(t, false)

	_, err := execute(t, "analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--text")
}

func TestAnalyzeMissingModel(t *testing.T) {
	setupCLI(t, false)
	viper.Set("models.dir", t.TempDir())

	_, err := execute(t, "analyze", "--text", legitText)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load the classifier")
}

func TestLinksNoProbe(t *testing.T) {
	setupCLI(t, false)

	out, err := execute(t, "links", "--no-probe", "--json", "Verify at", "secure-bank-login.com")
	require.NoError(t, err)

	var report model.LinkReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Links, 1)
	assert.Equal(t, "http://secure-bank-login.com", report.Links[0].URL)
	assert.InDelta(t, 0.3, report.Links[0].SafetyScore, 1e-9)
	assert.Equal(t, model.RiskHigh, report.Overall.RiskLevel)
}

func TestHistoryRecordsAnalyses(t *testing.T) {
	setupCLI(t, true)

	_, err := execute(t, "analyze", "--text", legitText)
	require.NoError(t, err)
	_, err = execute(t, "analyze", "--text", "URGENT: click this link to verify your account")
	require.NoError(t, err)
	_, err = execute(t, "links", "--no-probe", "bit.ly/abc")
	require.NoError(t, err)

	out, err := execute(t, "history", "--json", "--verdict", "phishing")
	require.NoError(t, err)
	var results []model.PipelineResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, model.LabelPhishing, results[0].FraudAnalysis.Verdict)

	out, err = execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Legitimate: 1")
	assert.Contains(t, out, "Phishing: 1")

	out, err = execute(t, "history", "--links")
	require.NoError(t, err)
	assert.Contains(t, out, "http://bit.ly/abc")

	_, err = execute(t, "history", "--verdict", "crypto")
	require.Error(t, err)
}

func TestMigrateStatus(t *testing.T) {
	dbPath := setupCLI(t, true)

	_, err := execute(t, "migrate")
	require.NoError(t, err)

	out, err := execute(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, dbPath)
	assert.Contains(t, out, "Current version: 3")

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	version, err := store.SchemaVersion(t.Context())
	require.NoError(t, err)
	assert.Equal(t, storage.ExpectedSchemaVersion, version)
}

func TestBotRequiresToken(t *testing.T) {
	setupCLI(t, false)
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	_, err := execute(t, "bot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Telegram bot token is not configured")
}

func TestVersion(t *testing.T) {
	setupCLI(t, false)

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "sentinel dev\n", out)
}

func TestCollectImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o750))

	single := filepath.Join(t.TempDir(), "single.txt")
	require.NoError(t, os.WriteFile(single, []byte("x"), 0o600))

	paths, err := collectImages([]string{dir, single})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.JPG"),
		filepath.Join(dir, "b.png"),
		single,
	}, paths)

	_, err = collectImages([]string{filepath.Join(dir, "missing.png")})
	require.Error(t, err)
}
