package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/shiftbook/internal/common"
	"github.com/Veraticus/shiftbook/internal/dedupe"
	"github.com/Veraticus/shiftbook/internal/expense"
	"github.com/Veraticus/shiftbook/internal/pos"
	"github.com/Veraticus/shiftbook/internal/reconcile"
	"github.com/Veraticus/shiftbook/internal/shift"
)

// EnvPrefix prefixes environment overrides, e.g. SHIFTBOOK_POS_ACCESS_TOKEN.
const EnvPrefix = "SHIFTBOOK"

// Config is the complete application configuration.
type Config struct {
	Database struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	POS struct {
		BaseURL     string        `mapstructure:"base_url"`
		AccessToken string        `mapstructure:"access_token"`
		StoreID     string        `mapstructure:"store_id"`
		PageSize    int           `mapstructure:"page_size"`
		Timeout     time.Duration `mapstructure:"timeout"`
	} `mapstructure:"pos"`

	Shift struct {
		UTCOffset   string `mapstructure:"utc_offset"`
		CutoverHour int    `mapstructure:"cutover_hour"`
	} `mapstructure:"shift"`

	Duplicates struct {
		AmountTolerance     int64   `mapstructure:"amount_tolerance"`
		DayTolerance        int     `mapstructure:"day_tolerance"`
		SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	} `mapstructure:"duplicates"`

	Cash struct {
		Tolerance int64 `mapstructure:"tolerance"`
	} `mapstructure:"cash"`

	Import struct {
		ReviewThreshold float64 `mapstructure:"review_threshold"`
		DefaultCurrency string  `mapstructure:"default_currency"`
		Locale          string  `mapstructure:"locale"`
	} `mapstructure:"import"`

	Categorize struct {
		RulesFile string `mapstructure:"rules_file"`
	} `mapstructure:"categorize"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logging"`
}

// DefaultDatabasePath is where the ledger lives when database.path is unset.
func DefaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "shiftbook.db"
	}
	return filepath.Join(home, ".local", "share", "shiftbook", "shiftbook.db")
}

// SetDefaults registers every key with its default so environment overrides
// reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath())

	v.SetDefault("pos.base_url", pos.DefaultBaseURL)
	v.SetDefault("pos.access_token", "")
	v.SetDefault("pos.store_id", "")
	v.SetDefault("pos.page_size", pos.DefaultPageSize)
	v.SetDefault("pos.timeout", pos.DefaultTimeout)

	v.SetDefault("shift.utc_offset", "+07:00")
	v.SetDefault("shift.cutover_hour", 5)

	v.SetDefault("duplicates.amount_tolerance", dedupe.DefaultAmountTolerance)
	v.SetDefault("duplicates.day_tolerance", dedupe.DefaultDayTolerance)
	v.SetDefault("duplicates.similarity_threshold", dedupe.DefaultSimilarityThreshold)

	v.SetDefault("cash.tolerance", reconcile.DefaultTolerance)

	v.SetDefault("import.review_threshold", expense.DefaultReviewThreshold)
	v.SetDefault("import.default_currency", expense.DefaultCurrency)
	v.SetDefault("import.locale", expense.DefaultLocale)

	v.SetDefault("categorize.rules_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// BindEnv makes SHIFTBOOK_SECTION_KEY override section.key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadEnvFiles loads .env style files into the process environment.
// Missing files are skipped; variables already set are kept.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		p = ExpandPath(p)
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Categorize.RulesFile = ExpandPath(cfg.Categorize.RulesFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges. The POS access token is checked only when a client is built.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{common.ErrInvalidConfig}, args...)...))
	}

	if strings.TrimSpace(c.Database.Path) == "" {
		invalid("database.path is empty")
	}
	if c.POS.PageSize <= 0 {
		invalid("pos.page_size must be positive, got %d", c.POS.PageSize)
	}
	if c.POS.Timeout <= 0 {
		invalid("pos.timeout must be positive, got %s", c.POS.Timeout)
	}
	if _, err := shift.ParseOffset(c.Shift.UTCOffset); err != nil {
		errs = append(errs, err)
	}
	if c.Shift.CutoverHour < 0 || c.Shift.CutoverHour > 23 {
		invalid("shift.cutover_hour must be 0-23, got %d", c.Shift.CutoverHour)
	}
	if c.Duplicates.AmountTolerance < 0 {
		invalid("duplicates.amount_tolerance must not be negative")
	}
	if c.Duplicates.DayTolerance < 0 {
		invalid("duplicates.day_tolerance must not be negative")
	}
	if !unitInterval(c.Duplicates.SimilarityThreshold) {
		invalid("duplicates.similarity_threshold must be between 0 and 1, got %v", c.Duplicates.SimilarityThreshold)
	}
	if c.Cash.Tolerance < 0 {
		invalid("cash.tolerance must not be negative")
	}
	if !unitInterval(c.Import.ReviewThreshold) {
		invalid("import.review_threshold must be between 0 and 1, got %v", c.Import.ReviewThreshold)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Logging.Format {
	case "", "console", "text", "json":
	default:
		invalid("logging.format %q", c.Logging.Format)
	}

	return errors.Join(errs...)
}

func unitInterval(f float64) bool {
	return f >= 0 && f <= 1
}

// ShiftCalculator builds the configured shift calculator.
func (c *Config) ShiftCalculator() (*shift.Calculator, error) {
	offset, err := shift.ParseOffset(c.Shift.UTCOffset)
	if err != nil {
		return nil, err
	}
	return shift.NewCalculator(offset, c.Shift.CutoverHour)
}

// POSConfig returns the client settings.
func (c *Config) POSConfig() pos.Config {
	return pos.Config{
		BaseURL:     c.POS.BaseURL,
		AccessToken: c.POS.AccessToken,
		StoreID:     c.POS.StoreID,
		PageSize:    c.POS.PageSize,
		Timeout:     c.POS.Timeout,
	}
}

// DedupeConfig returns the duplicate matching tolerances.
func (c *Config) DedupeConfig() dedupe.Config {
	return dedupe.Config{
		AmountTolerance:     c.Duplicates.AmountTolerance,
		DayTolerance:        c.Duplicates.DayTolerance,
		SimilarityThreshold: c.Duplicates.SimilarityThreshold,
	}
}

// ImportConfig returns the importer defaults.
func (c *Config) ImportConfig() expense.Config {
	return expense.Config{
		ReviewThreshold: c.Import.ReviewThreshold,
		DefaultCurrency: c.Import.DefaultCurrency,
		Locale:          c.Import.Locale,
	}
}
