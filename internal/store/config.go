package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Mode        string   `yaml:"mode"`        // PAPER or LIVE
	DataSource  string   `yaml:"data_source"` // LIVE or STATIC
	PollSeconds int      `yaml:"poll_seconds"`
	Symbols     []string `yaml:"symbols"`
	// DefaultSymbol is substituted by the parser for missing or unknown
	// symbols. Falls back to the first allow-list entry.
	DefaultSymbol string  `yaml:"default_symbol"`
	StartingCash  float64 `yaml:"starting_cash"`
	RiskPercent   float64 `yaml:"risk_percent"`
	LLM           struct {
		Provider       string  `yaml:"provider"`
		BaseURL        string  `yaml:"base_url"`
		Model          string  `yaml:"model"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float32 `yaml:"temperature"`
		System         string  `yaml:"system"`
		APIKeyEnv      string  `yaml:"api_key_env"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"llm"`
	Broker struct {
		PaperURL       string `yaml:"paper_url"`
		LiveURL        string `yaml:"live_url"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"broker"`
	Report struct {
		Enabled        bool   `yaml:"enabled"`
		SendAfter      string `yaml:"send_after"` // local "HH:MM"
		TelegramChatID string `yaml:"telegram_chat_id"`
	} `yaml:"report"`
	History struct {
		DBPath    string `yaml:"db_path"`
		ExportDir string `yaml:"export_dir"`
	} `yaml:"history"`
	LogRetentionDays int `yaml:"log_retention_days"`
}

func (c *Config) Validate() error {
	if c.Mode != "PAPER" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'PAPER' or 'LIVE'", c.Mode)
	}
	if c.DataSource != "STATIC" && c.DataSource != "LIVE" {
		return fmt.Errorf("invalid data_source '%s': must be 'STATIC' or 'LIVE'", c.DataSource)
	}
	if len(c.Symbols) == 0 {
		return errors.New("symbols cannot be empty")
	}
	if c.DefaultSymbol != "" && !c.Allowed(c.DefaultSymbol) {
		return fmt.Errorf("default_symbol '%s' is not in symbols", c.DefaultSymbol)
	}
	if c.StartingCash <= 0 {
		return fmt.Errorf("starting_cash must be positive, got %.2f", c.StartingCash)
	}
	if c.RiskPercent <= 0 || c.RiskPercent > 100 {
		return fmt.Errorf("risk_percent must be between 0-100, got %.2f", c.RiskPercent)
	}
	if c.PollSeconds <= 0 {
		return fmt.Errorf("poll_seconds must be positive, got %d", c.PollSeconds)
	}
	return nil
}

// CheckCredentials fails fast on configuration that cannot enter the loop:
// live trading without broker keys, or an LLM provider whose key is absent.
func (c *Config) CheckCredentials() error {
	if c.Mode == "LIVE" && (os.Getenv("ALPACA_KEY") == "" || os.Getenv("ALPACA_SECRET") == "") {
		return errors.New("mode LIVE requires ALPACA_KEY and ALPACA_SECRET")
	}
	if c.LLM.Provider == "OPENAI" && os.Getenv(c.LLM.APIKeyEnv) == "" {
		return fmt.Errorf("llm provider OPENAI requires %s to be set", c.LLM.APIKeyEnv)
	}
	return nil
}

// Allowed reports whether sym is in the configured allow-list.
func (c *Config) Allowed(sym string) bool {
	for _, s := range c.Symbols {
		if s == sym {
			return true
		}
	}
	return false
}

// Default returns the symbol substituted for unparseable decisions.
func (c *Config) Default() string {
	if c.DefaultSymbol != "" {
		return c.DefaultSymbol
	}
	return c.Symbols[0]
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.PollSeconds == 0 {
		c.PollSeconds = 60
	}
	if c.DataSource == "" {
		c.DataSource = "STATIC"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.x.ai/v1"
	}
	if c.LLM.APIKeyEnv == "" {
		c.LLM.APIKeyEnv = "XAI_API_KEY"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 30
	}
	if c.Broker.PaperURL == "" {
		c.Broker.PaperURL = "https://paper-api.alpaca.markets"
	}
	if c.Broker.LiveURL == "" {
		c.Broker.LiveURL = "https://api.alpaca.markets"
	}
	if c.Broker.TimeoutSeconds == 0 {
		c.Broker.TimeoutSeconds = 10
	}
	if c.Report.SendAfter == "" {
		c.Report.SendAfter = "16:00"
	}
	if c.History.DBPath == "" {
		c.History.DBPath = "data/trader.db"
	}
	if c.History.ExportDir == "" {
		c.History.ExportDir = "data/export"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
