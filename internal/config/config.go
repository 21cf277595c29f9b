// Package config loads projectledger settings from YAML, the environment
// and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const EnvPrefix = "PROJECTLEDGER"

// Recognition policies for billing revenue.
const (
	RecognizeOnIssue   = "on_issue"
	RecognizeOnPayment = "on_payment"
)

type Config struct {
	Database     DatabaseConfig     `mapstructure:"database" yaml:"database"`
	Server       ServerConfig       `mapstructure:"server" yaml:"server"`
	Client       ClientConfig       `mapstructure:"client" yaml:"client"`
	Logging      LoggingConfig      `mapstructure:"logging" yaml:"logging"`
	Accounts     AccountsConfig     `mapstructure:"accounts" yaml:"accounts"`
	Billing      BillingConfig      `mapstructure:"billing" yaml:"billing"`
	Depreciation DepreciationConfig `mapstructure:"depreciation" yaml:"depreciation"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler" yaml:"scheduler"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type ClientConfig struct {
	Server string `mapstructure:"server" yaml:"server"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// AccountsConfig names the accounts the engines post to by default.
type AccountsConfig struct {
	DepreciationExpense     string `mapstructure:"depreciation_expense" yaml:"depreciation_expense"`
	AccumulatedDepreciation string `mapstructure:"accumulated_depreciation" yaml:"accumulated_depreciation"`
	Receivable              string `mapstructure:"receivable" yaml:"receivable"`
	Revenue                 string `mapstructure:"revenue" yaml:"revenue"`
}

type BillingConfig struct {
	Recognition string `mapstructure:"recognition" yaml:"recognition"`
}

type DepreciationConfig struct {
	Tolerance string `mapstructure:"tolerance" yaml:"tolerance"`
}

type SchedulerConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	RunAt   string `mapstructure:"run_at" yaml:"run_at"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "ledger.db"},
		Server:   ServerConfig{Addr: ":8888"},
		Client:   ClientConfig{Server: "http://localhost:8888"},
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Accounts: AccountsConfig{
			DepreciationExpense:     "6110",
			AccumulatedDepreciation: "1590",
			Receivable:              "1130",
			Revenue:                 "4110",
		},
		Billing:      BillingConfig{Recognition: RecognizeOnIssue},
		Depreciation: DepreciationConfig{Tolerance: "0.01"},
		Scheduler:    SchedulerConfig{Enabled: true, RunAt: "01:00"},
	}
}

// SetDefaults registers every key of Default on v so that environment
// variables and bound flags resolve even without a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("client.server", d.Client.Server)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("accounts.depreciation_expense", d.Accounts.DepreciationExpense)
	v.SetDefault("accounts.accumulated_depreciation", d.Accounts.AccumulatedDepreciation)
	v.SetDefault("accounts.receivable", d.Accounts.Receivable)
	v.SetDefault("accounts.revenue", d.Accounts.Revenue)
	v.SetDefault("billing.recognition", d.Billing.Recognition)
	v.SetDefault("depreciation.tolerance", d.Depreciation.Tolerance)
	v.SetDefault("scheduler.enabled", d.Scheduler.Enabled)
	v.SetDefault("scheduler.run_at", d.Scheduler.RunAt)
}

// DefaultPath is $HOME/.config/projectledger/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "projectledger", "config.yaml")
}

// Load reads path (or the standard locations when path is empty) into v
// and decodes the result. A missing config file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the engines depend on.
func (c *Config) Validate() error {
	switch c.Billing.Recognition {
	case RecognizeOnIssue, RecognizeOnPayment:
	default:
		return fmt.Errorf("billing.recognition: unknown policy %q", c.Billing.Recognition)
	}
	if _, err := c.Depreciation.ToleranceValue(); err != nil {
		return err
	}
	if _, _, err := c.Scheduler.Clock(); err != nil {
		return err
	}
	return nil
}

// ToleranceValue parses the depreciation tolerance.
func (d DepreciationConfig) ToleranceValue() (decimal.Decimal, error) {
	tol, err := decimal.NewFromString(strings.TrimSpace(d.Tolerance))
	if err != nil {
		return decimal.Zero, fmt.Errorf("depreciation.tolerance: %w", err)
	}
	if tol.IsNegative() {
		return decimal.Zero, fmt.Errorf("depreciation.tolerance: must not be negative")
	}
	return tol, nil
}

// Clock parses run_at as a 24-hour HH:MM time.
func (s SchedulerConfig) Clock() (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s.RunAt))
	if err != nil {
		return 0, 0, fmt.Errorf("scheduler.run_at: want HH:MM, got %q", s.RunAt)
	}
	return t.Hour(), t.Minute(), nil
}

// Save writes cfg to path as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
