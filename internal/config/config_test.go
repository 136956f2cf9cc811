package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Listen.Addr != ":8080" {
		t.Errorf("Listen.Addr = %q", cfg.Listen.Addr)
	}
	if cfg.Storage.JournalPath != "bankd.db" {
		t.Errorf("Storage.JournalPath = %q", cfg.Storage.JournalPath)
	}
	if cfg.Bank.DefaultCurrency != "USD" {
		t.Errorf("Bank.DefaultCurrency = %q", cfg.Bank.DefaultCurrency)
	}
	if cfg.Cards.DailyUses != 15 {
		t.Errorf("Cards.DailyUses = %d", cfg.Cards.DailyUses)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != DefaultConfig() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankd.toml")
	body := `
[listen]
addr = ":9090"

[bank]
default_currency = "EUR"

[cards]
credit_limit = "5000.50"
daily_uses = 5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen.Addr != ":9090" {
		t.Errorf("Listen.Addr = %q", cfg.Listen.Addr)
	}
	if cfg.Bank.DefaultCurrency != "EUR" {
		t.Errorf("Bank.DefaultCurrency = %q", cfg.Bank.DefaultCurrency)
	}
	// Unset keys keep their defaults.
	if cfg.Storage.JournalPath != "bankd.db" {
		t.Errorf("Storage.JournalPath = %q", cfg.Storage.JournalPath)
	}
	if cfg.Cards.DailyUses != 5 || cfg.Cards.DailyLimit != "100000" {
		t.Errorf("Cards = %+v", cfg.Cards)
	}

	defaults, err := cfg.CardDefaults()
	if err != nil {
		t.Fatal(err)
	}
	if !defaults.CreditLimit.Equal(decimal.RequireFromString("5000.50")) {
		t.Errorf("CreditLimit = %s", defaults.CreditLimit)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BANKD_LISTEN_ADDR", ":7000")
	t.Setenv("BANKD_JOURNAL_PATH", "/tmp/j.db")
	t.Setenv("BANKD_DEFAULT_CURRENCY", "GBP")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Listen.Addr != ":7000" || cfg.Storage.JournalPath != "/tmp/j.db" || cfg.Bank.DefaultCurrency != "GBP" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadRejectsBadAmounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bankd.toml")
	body := `
[cards]
credit_limit = "not-a-number"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("bad amount accepted")
	}
}
