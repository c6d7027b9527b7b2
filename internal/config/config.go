// Package config loads job configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the collection jobs read from the environment.
// Jobs validate only the fields they actually use, so a points-only run
// does not need chat credentials.
type Config struct {
	// SpreadsheetID identifies the target spreadsheet (SHEET_ID).
	SpreadsheetID string

	// SheetsToken authorizes spreadsheet writes (SHEETS_TOKEN).
	SheetsToken string

	// ProxyURL routes page fetches through an egress proxy (PROXY_HTTP).
	ProxyURL string

	// TelegramToken is the report bot token (TELEGRAM_KEY).
	TelegramToken string

	// TelegramChatID is the report destination (CHAT_ID).
	TelegramChatID string

	// WalletAddress parameterizes per-wallet metric pages (WALLET_ADDRESS).
	WalletAddress string

	// RedisURL enables the page cache when set (REDIS_URL).
	RedisURL string

	// LogLevel is the zerolog level name (LOG_LEVEL).
	LogLevel string

	// UseBrowser switches transports from plain HTTP to a headless
	// browser (BROWSER).
	UseBrowser bool

	// PageTimeout bounds a single page fetch (PAGE_TIMEOUT).
	PageTimeout time.Duration
}

// Load reads the configuration from environment variables.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PAGE_TIMEOUT", "20s")

	return &Config{
		SpreadsheetID:  v.GetString("SHEET_ID"),
		SheetsToken:    v.GetString("SHEETS_TOKEN"),
		ProxyURL:       v.GetString("PROXY_HTTP"),
		TelegramToken:  v.GetString("TELEGRAM_KEY"),
		TelegramChatID: v.GetString("CHAT_ID"),
		WalletAddress:  v.GetString("WALLET_ADDRESS"),
		RedisURL:       v.GetString("REDIS_URL"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		UseBrowser:     v.GetBool("BROWSER"),
		PageTimeout:    v.GetDuration("PAGE_TIMEOUT"),
	}
}

// RequireSheets checks the fields every spreadsheet-writing job needs.
func (c *Config) RequireSheets() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("SHEET_ID is required")
	}
	if c.SheetsToken == "" {
		return fmt.Errorf("SHEETS_TOKEN is required")
	}
	return nil
}

// RequireTelegram checks the fields the report jobs need.
func (c *Config) RequireTelegram() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_KEY is required")
	}
	if c.TelegramChatID == "" {
		return fmt.Errorf("CHAT_ID is required")
	}
	return nil
}
