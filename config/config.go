// Package config loads and validates the monitor's JSON configuration file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
)

// Config holds monitor configuration, mirroring the on-disk JSON schema.
type Config struct {
	URL                  string        `json:"url"`
	DiscountThreshold    float64       `json:"discount_threshold"`
	RegularPrice         *float64      `json:"regular_price"`
	CheckIntervalMinutes int           `json:"check_interval_minutes"`
	PriceHistoryFile     string        `json:"price_history_file"`
	Notifications        Notifications `json:"notifications"`
	Email                Email         `json:"email"`
	Telegram             Telegram      `json:"telegram"`
	Logging              Logging       `json:"logging"`
}

// Notifications toggles the individual delivery channels.
type Notifications struct {
	MacOSEnabled    bool `json:"macos_enabled"`
	EmailEnabled    bool `json:"email_enabled"`
	TelegramEnabled bool `json:"telegram_enabled"`
}

// Email holds SMTP settings. The account password comes from the
// GMAIL_APP_PASSWORD environment variable, never from this file.
type Email struct {
	SMTPServer  string `json:"smtp_server"`
	SMTPPort    int    `json:"smtp_port"`
	SenderEmail string `json:"sender_email"`
	SenderName  string `json:"sender_name"`
}

// Telegram holds bot API settings.
type Telegram struct {
	BotToken string `json:"bot_token"`
	ChatID   string `json:"chat_id"`
}

// Logging configures level and the optional log file.
type Logging struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// DefaultConfig returns the documented defaults written on first run.
func DefaultConfig() *Config {
	return &Config{
		URL:                  "https://www.coles.com.au/search/products?q=yochi",
		DiscountThreshold:    0.30,
		RegularPrice:         nil,
		CheckIntervalMinutes: 60,
		PriceHistoryFile:     "price_history.json",
		Notifications: Notifications{
			MacOSEnabled:    true,
			EmailEnabled:    false,
			TelegramEnabled: false,
		},
		Email: Email{
			SMTPServer: "smtp.gmail.com",
			SMTPPort:   587,
			SenderName: "Price Monitor",
		},
		Logging: Logging{
			Level: "INFO",
			File:  "price_monitor.log",
		},
	}
}

// Load reads the configuration at path. A missing file is not an error: the
// documented default is written instead and created reports true, so the
// caller can tell the operator to edit it and re-run.
func Load(path string) (cfg *Config, created bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeDefault(path); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read config: %w", err)
	}

	cfg = DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, false, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, false, nil
}

func writeDefault(path string) error {
	data, err := json.MarshalIndent(DefaultConfig(), "", "    ")
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url cannot be empty")
	}
	parsed, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("url must include a host")
	}
	if c.DiscountThreshold < 0 || c.DiscountThreshold > 1 {
		return fmt.Errorf("discount threshold must be a fraction between 0 and 1")
	}
	if c.RegularPrice != nil && *c.RegularPrice < 0 {
		return fmt.Errorf("regular price cannot be negative")
	}
	if c.CheckIntervalMinutes < 0 {
		return fmt.Errorf("check interval cannot be negative")
	}
	if c.PriceHistoryFile == "" {
		return fmt.Errorf("price history file cannot be empty")
	}
	if c.Notifications.EmailEnabled && c.Email.SMTPPort <= 0 {
		return fmt.Errorf("smtp port must be positive when email is enabled")
	}
	return nil
}

// EnvString returns the value of an environment variable and whether it was set.
func EnvString(name string) (string, bool) {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
