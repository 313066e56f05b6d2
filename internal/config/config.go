package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/sentinel/internal/common"
	"github.com/spf13/viper"
)

// Config holds every runtime setting.
type Config struct {
	Logging  LoggingConfig
	Models   ModelsConfig
	OCR      OCRConfig
	Links    LinksConfig
	Database DatabaseConfig
	Server   ServerConfig
	Telegram TelegramConfig
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// ModelsConfig locates the classifier artifacts.
type ModelsConfig struct {
	Dir string
}

// OCRConfig configures the text extraction engines.
type OCRConfig struct {
	Language  string
	Secondary SecondaryOCRConfig
}

// SecondaryOCRConfig configures the optional Gemini engine.
type SecondaryOCRConfig struct {
	APIKey            string
	Model             string
	RequestsPerMinute int
	Enabled           bool
}

// Available reports whether the secondary engine can be used.
func (c SecondaryOCRConfig) Available() bool {
	return c.Enabled && c.APIKey != ""
}

// LinksConfig configures link safety probing.
type LinksConfig struct {
	Timeout time.Duration
	Probe   bool
}

// DatabaseConfig locates the analysis history database.
type DatabaseConfig struct {
	Path           string
	HistoryEnabled bool
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string
}

// TelegramConfig configures the Telegram bot.
type TelegramConfig struct {
	Token string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("models.dir", "./models")
	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.secondary.enabled", false)
	v.SetDefault("ocr.secondary.model", "gemini-1.5-flash")
	v.SetDefault("ocr.secondary.requests_per_minute", 60)
	v.SetDefault("links.probe", true)
	v.SetDefault("links.timeout", 5*time.Second)
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("history.enabled", true)
	v.SetDefault("server.addr", ":5000")
}

// DefaultDatabasePath is the history database location when none is configured.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "sentinel.db"
	}
	return filepath.Join(home, ".local", "share", "sentinel", "sentinel.db")
}

// DefaultConfigDir is where the config file is searched for.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "sentinel")
}

// Load builds a Config from v. It follows this precedence for secrets:
// 1. Viper configuration (from config file or SENTINEL_ env vars)
// 2. Direct environment variables (GEMINI_API_KEY, TELEGRAM_BOT_TOKEN)
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Models: ModelsConfig{
			Dir: ExpandPath(v.GetString("models.dir")),
		},
		OCR: OCRConfig{
			Language: v.GetString("ocr.language"),
			Secondary: SecondaryOCRConfig{
				Enabled:           v.GetBool("ocr.secondary.enabled"),
				Model:             v.GetString("ocr.secondary.model"),
				APIKey:            v.GetString("ocr.secondary.api_key"),
				RequestsPerMinute: v.GetInt("ocr.secondary.requests_per_minute"),
			},
		},
		Links: LinksConfig{
			Probe:   v.GetBool("links.probe"),
			Timeout: v.GetDuration("links.timeout"),
		},
		Database: DatabaseConfig{
			Path:           ExpandPath(v.GetString("database.path")),
			HistoryEnabled: v.GetBool("history.enabled"),
		},
		Server: ServerConfig{
			Addr: v.GetString("server.addr"),
		},
		Telegram: TelegramConfig{
			Token: v.GetString("telegram.token"),
		},
	}

	if cfg.OCR.Secondary.APIKey == "" {
		cfg.OCR.Secondary.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail far from their source.
func (c *Config) Validate() error {
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be console or json, got %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	if strings.TrimSpace(c.Models.Dir) == "" {
		return fmt.Errorf("%w: models.dir", common.ErrMissingConfig)
	}
	if strings.TrimSpace(c.OCR.Language) == "" {
		return fmt.Errorf("%w: ocr.language", common.ErrMissingConfig)
	}
	if c.OCR.Secondary.Enabled && strings.TrimSpace(c.OCR.Secondary.Model) == "" {
		return fmt.Errorf("%w: ocr.secondary.model", common.ErrMissingConfig)
	}
	if c.Links.Timeout <= 0 {
		return fmt.Errorf("%w: links.timeout must be positive, got %s", common.ErrInvalidConfig, c.Links.Timeout)
	}
	return nil
}
