// Package config loads bankd settings: defaults, then a TOML file, then
// environment overrides (a .env file is honored when present).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Listen  Listen  `toml:"listen"`
	Storage Storage `toml:"storage"`
	Bank    Bank    `toml:"bank"`
	Cards   Cards   `toml:"cards"`
}

type Listen struct {
	Addr string `toml:"addr"`
}

type Storage struct {
	JournalPath string `toml:"journal_path"`
}

type Bank struct {
	DefaultCurrency string `toml:"default_currency"`
}

// Cards carries the issuing defaults applied when a client does not ask
// for explicit limits. Amounts are decimal strings, never floats.
type Cards struct {
	CreditLimit    string `toml:"credit_limit"`
	DailyLimit     string `toml:"daily_limit"`
	DailyUses      int    `toml:"daily_uses"`
	OneTimeMaxDraw string `toml:"one_time_max_draw"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Listen:  Listen{Addr: ":8080"},
		Storage: Storage{JournalPath: "bankd.db"},
		Bank:    Bank{DefaultCurrency: "USD"},
		Cards: Cards{
			CreditLimit:    "10000",
			DailyLimit:     "100000",
			DailyUses:      15,
			OneTimeMaxDraw: "100000",
		},
	}
}

// Load builds the effective config: defaults, then the TOML file at path
// (skipped when path is empty or missing), then environment variables.
func Load(path string) (Config, error) {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return Config{}, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("BANKD_LISTEN_ADDR"); v != "" {
		cfg.Listen.Addr = v
	}
	if v := os.Getenv("BANKD_JOURNAL_PATH"); v != "" {
		cfg.Storage.JournalPath = v
	}
	if v := os.Getenv("BANKD_DEFAULT_CURRENCY"); v != "" {
		cfg.Bank.DefaultCurrency = v
	}

	if _, err := cfg.CardDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// CardDefaults holds the parsed issuing amounts.
type CardDefaults struct {
	CreditLimit    decimal.Decimal
	DailyLimit     decimal.Decimal
	DailyUses      int
	OneTimeMaxDraw decimal.Decimal
}

// CardDefaults parses and validates the card amount strings.
func (c Config) CardDefaults() (CardDefaults, error) {
	creditLimit, err := decimal.NewFromString(c.Cards.CreditLimit)
	if err != nil {
		return CardDefaults{}, fmt.Errorf("cards.credit_limit: %w", err)
	}
	dailyLimit, err := decimal.NewFromString(c.Cards.DailyLimit)
	if err != nil {
		return CardDefaults{}, fmt.Errorf("cards.daily_limit: %w", err)
	}
	maxDraw, err := decimal.NewFromString(c.Cards.OneTimeMaxDraw)
	if err != nil {
		return CardDefaults{}, fmt.Errorf("cards.one_time_max_draw: %w", err)
	}
	return CardDefaults{
		CreditLimit:    creditLimit,
		DailyLimit:     dailyLimit,
		DailyUses:      c.Cards.DailyUses,
		OneTimeMaxDraw: maxDraw,
	}, nil
}
