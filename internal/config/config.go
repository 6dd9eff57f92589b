// =============================================================================
// Bartscher Feed Generator - Configuration Module
// =============================================================================
//
// This module loads the run configuration. Every path, URL, column name and
// display label the pipeline uses comes from here, so that nothing is a
// package-level constant. The configuration is created once per invocation
// and handed to each component's constructor.
//
// SOURCES (later wins):
//   1. Built-in defaults (applyDefaults)
//   2. The YAML file (config.yaml by default)
//   3. A .env file in the working directory, if present
//   4. FEED_* environment variables
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/bartscher-feed/internal/csvparser"
	"github.com/ginjaninja78/bartscher-feed/internal/feederr"
	"github.com/ginjaninja78/bartscher-feed/pkg/utils"
)

// dotEnvFile is read from the working directory when present.
const dotEnvFile = ".env"

// Exchange rate sources.
const (
	RateSourceCNB   = "cnb"
	RateSourceFixed = "fixed"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the configuration for a single feed generation run.
type Config struct {
	// =========================================================================
	// FILE SETTINGS
	// =========================================================================

	// InputPath is the vendor spreadsheet.
	// Default: "produktyBartscherCZ.xlsx"
	InputPath string `yaml:"input_path"`

	// SheetName selects the worksheet. Empty means the first sheet.
	SheetName string `yaml:"sheet_name"`

	// OutputPath is where the XML feed is written.
	// Default: "output/bartscher.xml"
	OutputPath string `yaml:"output_path"`

	// SummaryDir receives a plain-text run summary after a successful run.
	// Empty disables the summary.
	SummaryDir string `yaml:"summary_dir"`

	// MetricsTextfile is a Prometheus textfile-collector file written at the
	// end of every run. Empty disables metrics output.
	MetricsTextfile string `yaml:"metrics_textfile"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is an additional log destination next to stderr.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// SkipInvalidRows logs and skips spreadsheet rows with unparseable prices
	// instead of aborting the run.
	// Default: false
	SkipInvalidRows bool `yaml:"skip_invalid_rows"`

	HTTP         HTTPSettings         `yaml:"http"`
	ExchangeRate ExchangeRateSettings `yaml:"exchange_rate"`
	Availability AvailabilitySettings `yaml:"availability"`
	Columns      ColumnSettings       `yaml:"columns"`
	Product      ProductSettings      `yaml:"product"`
}

// HTTPSettings configures the client used for both remote fetches.
type HTTPSettings struct {
	// Timeout bounds a single request.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// RequestsPerSecond limits outbound requests. Must not be negative;
	// zero selects the default.
	// Default: 1
	RequestsPerSecond float64 `yaml:"requests_per_second"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent"`
}

// ExchangeRateSettings selects where the EUR->CZK rate comes from.
type ExchangeRateSettings struct {
	// Source is "cnb" (Czech National Bank daily fixing) or "fixed".
	// Default: "cnb"
	Source string `yaml:"source"`

	// URL of the CNB daily fixing text file.
	URL string `yaml:"url"`

	// Fixed is the rate used when Source is "fixed".
	Fixed float64 `yaml:"fixed"`

	// Currency is the currency code looked up in the fixing.
	// Default: "EUR"
	Currency string `yaml:"currency"`
}

// AvailabilitySettings describes the vendor stock feed.
type AvailabilitySettings struct {
	// URL of the tab-separated availability list.
	URL string `yaml:"url"`

	// CodeColumn is the header of the item number column.
	CodeColumn string `yaml:"code_column"`

	// AvailabilityColumn is the header of the yes/no availability column.
	AvailabilityColumn string `yaml:"availability_column"`

	// Encoding is the charset of the feed.
	// Valid values: "utf-8", "windows-1252", "windows-1250", "iso-8859-1",
	// "iso-8859-2" and the aliases accepted by csvparser.SupportedEncoding.
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`
}

// ColumnSettings is the canonical spreadsheet schema.
type ColumnSettings struct {
	Code          string `yaml:"code"`
	Name          string `yaml:"name"`
	GTIN          string `yaml:"gtin"`
	Description   string `yaml:"description"`
	PurchasePrice string `yaml:"purchase_price"`
	SalePrice     string `yaml:"sale_price"`

	// Images lists the image URL columns in output order.
	Images []string `yaml:"images"`

	// AttributePrefix selects attribute columns by header prefix.
	AttributePrefix string `yaml:"attribute_prefix"`

	// Documents lists the documentation link columns in output order.
	Documents []DocumentColumn `yaml:"documents"`
}

// DocumentColumn maps a documentation column to its display label.
type DocumentColumn struct {
	Column string `yaml:"column"`
	Label  string `yaml:"label"`
}

// ProductSettings holds the fixed strings written into every product.
type ProductSettings struct {
	// Manufacturer is written to <vyrobce> and prefixed to product names.
	// Default: "Bartscher"
	Manufacturer string `yaml:"manufacturer"`

	// Storefront is named in the closing sentence of the HTML description.
	// Default: "Profikuchyn.cz"
	Storefront string `yaml:"storefront"`

	// InStockLabel is written to <sklad> when the product is in stock.
	InStockLabel string `yaml:"in_stock_label"`

	// OutOfStockLabel is written to <sklad> otherwise.
	OutOfStockLabel string `yaml:"out_of_stock_label"`

	// LeadTimeLabel is written to <dostupnost> for every product.
	LeadTimeLabel string `yaml:"lead_time_label"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Load builds the run configuration.
//
// PARAMETERS:
//   - configPath: The path to the YAML configuration file.
//   - required: Whether a missing file is an error. When false and the file
//     does not exist, the built-in defaults are used.
//
// RETURNS:
//   - The validated configuration.
//   - A config-kind error if the file or the environment is invalid.
func Load(configPath string, required bool) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, feederr.Config("parse "+configPath, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
		// Defaults only.
	default:
		return nil, feederr.Config("read "+configPath, err)
	}

	if utils.FileExists(dotEnvFile) {
		if err := godotenv.Load(dotEnvFile); err != nil {
			return nil, feederr.Config("load "+dotEnvFile, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, feederr.Config("validate configuration", err)
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyEnv overrides file settings with FEED_* environment variables.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("FEED_INPUT_PATH"); v != "" {
		cfg.InputPath = v
	}
	if v := os.Getenv("FEED_OUTPUT_PATH"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("FEED_AVAILABILITY_URL"); v != "" {
		cfg.Availability.URL = v
	}
	if v := os.Getenv("FEED_EXCHANGE_RATE_URL"); v != "" {
		cfg.ExchangeRate.URL = v
	}
	if v := os.Getenv("FEED_EXCHANGE_RATE_FIXED"); v != "" {
		rate, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil {
			return feederr.Config("parse FEED_EXCHANGE_RATE_FIXED", err)
		}
		cfg.ExchangeRate.Source = RateSourceFixed
		cfg.ExchangeRate.Fixed = rate
	}
	if v := os.Getenv("FEED_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.InputPath == "" {
		cfg.InputPath = "produktyBartscherCZ.xlsx"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = "output/bartscher.xml"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.HTTP.Timeout == 0 {
		cfg.HTTP.Timeout = 60 * time.Second
	}
	if cfg.HTTP.RequestsPerSecond == 0 {
		cfg.HTTP.RequestsPerSecond = 1
	}
	if cfg.HTTP.UserAgent == "" {
		cfg.HTTP.UserAgent = "bartscher-feed/1.0"
	}

	if cfg.ExchangeRate.Source == "" {
		cfg.ExchangeRate.Source = RateSourceCNB
	}
	if cfg.ExchangeRate.URL == "" {
		cfg.ExchangeRate.URL = "https://www.cnb.cz/cs/financni-trhy/devizovy-trh/kurzy-devizoveho-trhu/kurzy-devizoveho-trhu/denni_kurz.txt"
	}
	if cfg.ExchangeRate.Currency == "" {
		cfg.ExchangeRate.Currency = "EUR"
	}

	if cfg.Availability.URL == "" {
		cfg.Availability.URL = "https://www.bartscher.com/download/availability-list"
	}
	if cfg.Availability.CodeColumn == "" {
		cfg.Availability.CodeColumn = "Artikel Nr. / Item No."
	}
	if cfg.Availability.AvailabilityColumn == "" {
		cfg.Availability.AvailabilityColumn = "Verfügbarkeit / Availability"
	}
	if cfg.Availability.Encoding == "" {
		cfg.Availability.Encoding = "utf-8"
	}

	applyColumnDefaults(&cfg.Columns)

	if cfg.Product.Manufacturer == "" {
		cfg.Product.Manufacturer = "Bartscher"
	}
	if cfg.Product.Storefront == "" {
		cfg.Product.Storefront = "Profikuchyn.cz"
	}
	if cfg.Product.InStockLabel == "" {
		cfg.Product.InStockLabel = "Skladem 2 ks"
	}
	if cfg.Product.OutOfStockLabel == "" {
		cfg.Product.OutOfStockLabel = "Do 5 dnů"
	}
	if cfg.Product.LeadTimeLabel == "" {
		cfg.Product.LeadTimeLabel = "do 5 dní"
	}
}

// applyColumnDefaults fills in the canonical spreadsheet schema.
func applyColumnDefaults(c *ColumnSettings) {
	if c.Code == "" {
		c.Code = "kód"
	}
	if c.Name == "" {
		c.Name = "Název"
	}
	if c.GTIN == "" {
		c.GTIN = "gtin"
	}
	if c.Description == "" {
		c.Description = "popisText"
	}
	if c.PurchasePrice == "" {
		c.PurchasePrice = "Celková cena včetně dopravy pro distributora bez DPH v EUR (nákupní cena bez DPH v EUR)"
	}
	if c.SalePrice == "" {
		// The vendor header really lacks the closing parenthesis.
		c.SalePrice = "Sleva 20 procent na eshop včetně dopravy (výsledná prodejní cena bez DPH v EUR"
	}
	if len(c.Images) == 0 {
		c.Images = []string{"Image1", "Image2", "Image3", "Image4", "Image5", "Image6"}
	}
	if c.AttributePrefix == "" {
		c.AttributePrefix = "Atribut"
	}
	if len(c.Documents) == 0 {
		c.Documents = []DocumentColumn{
			{Column: "datový list", Label: "datový list"},
			{Column: "rozložený pohled", Label: "rozložený pohled"},
			{Column: "schéma zapojení", Label: "schéma zapojení"},
			{Column: "návod k obsluze", Label: "návod k obsluze"},
			{Column: "prohlášení o shodě CE", Label: "prohlášení o shodě CE"},
		}
	}
	for i := range c.Documents {
		if c.Documents[i].Label == "" {
			c.Documents[i].Label = c.Documents[i].Column
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks a configuration after defaults have been applied.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.InputPath) == "" {
		return fmt.Errorf("input_path must not be empty")
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return fmt.Errorf("output_path must not be empty")
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", cfg.LogLevel)
	}

	if cfg.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative")
	}
	if cfg.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("http.requests_per_second must not be negative")
	}

	switch cfg.ExchangeRate.Source {
	case RateSourceCNB:
		if err := validateURL(cfg.ExchangeRate.URL); err != nil {
			return fmt.Errorf("exchange_rate.url: %w", err)
		}
	case RateSourceFixed:
		if f := cfg.ExchangeRate.Fixed; math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
			return fmt.Errorf("exchange_rate.fixed must be a positive finite number, got %v", f)
		}
	default:
		return fmt.Errorf("unknown exchange_rate.source %q", cfg.ExchangeRate.Source)
	}

	if err := validateURL(cfg.Availability.URL); err != nil {
		return fmt.Errorf("availability.url: %w", err)
	}
	if !csvparser.SupportedEncoding(cfg.Availability.Encoding) {
		return fmt.Errorf("unknown availability.encoding %q", cfg.Availability.Encoding)
	}

	required := map[string]string{
		"columns.code":           cfg.Columns.Code,
		"columns.name":           cfg.Columns.Name,
		"columns.purchase_price": cfg.Columns.PurchasePrice,
		"columns.sale_price":     cfg.Columns.SalePrice,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}

	return nil
}

// validateURL accepts absolute http and https URLs.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme in %q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
