// =============================================================================
// Bartscher Feed Generator - Exchange Rate
// =============================================================================
//
// Every price in the feed is converted from EUR to CZK with one rate that is
// fetched once per run.
//
// SOURCES:
//   - CNBSource: the Czech National Bank daily fixing (denni_kurz.txt)
//   - FixedSource: a configured constant
//
// CNB FORMAT:
//   17.10.2026 #201
//   země|měna|množství|kód|kurz
//   EMU|euro|1|EUR|24,335
//
// The rate is kurz / množství of the row whose kód matches the currency.
//
// =============================================================================

package exchange

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ginjaninja78/bartscher-feed/internal/config"
	"github.com/ginjaninja78/bartscher-feed/internal/csvparser"
	"github.com/ginjaninja78/bartscher-feed/internal/feederr"
	"github.com/ginjaninja78/bartscher-feed/internal/fetch"
)

// Header names in the CNB fixing.
const (
	columnAmount = "množství"
	columnCode   = "kód"
	columnRate   = "kurz"
)

// Source provides the EUR->CZK rate.
type Source interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
}

// New selects the source named by the configuration.
func New(cfg config.ExchangeRateSettings, getter fetch.Getter, logger *zap.Logger) (Source, error) {
	switch cfg.Source {
	case config.RateSourceCNB:
		return NewCNBSource(cfg.URL, cfg.Currency, getter, logger), nil
	case config.RateSourceFixed:
		if math.IsNaN(cfg.Fixed) || math.IsInf(cfg.Fixed, 0) {
			return nil, feederr.Config("select exchange rate source", fmt.Errorf("fixed rate %v is not finite", cfg.Fixed))
		}
		return NewFixedSource(decimal.NewFromFloat(cfg.Fixed)), nil
	default:
		return nil, feederr.Config("select exchange rate source", fmt.Errorf("unknown source %q", cfg.Source))
	}
}

// =============================================================================
// FIXED SOURCE
// =============================================================================

// FixedSource returns a constant rate.
type FixedSource struct {
	rate decimal.Decimal
}

// NewFixedSource creates a FixedSource.
func NewFixedSource(rate decimal.Decimal) *FixedSource {
	return &FixedSource{rate: rate}
}

// Rate returns the configured rate. A non-positive rate is a parse error.
func (s *FixedSource) Rate(ctx context.Context) (decimal.Decimal, error) {
	if !s.rate.IsPositive() {
		return decimal.Zero, feederr.Parse("fixed exchange rate", fmt.Errorf("rate must be positive, got %s", s.rate))
	}
	return s.rate, nil
}

// =============================================================================
// CNB SOURCE
// =============================================================================

// CNBSource reads the rate from the CNB daily fixing.
type CNBSource struct {
	url      string
	currency string
	getter   fetch.Getter
	logger   *zap.Logger
}

// NewCNBSource creates a CNBSource. currency defaults to EUR.
func NewCNBSource(url, currency string, getter fetch.Getter, logger *zap.Logger) *CNBSource {
	if currency == "" {
		currency = "EUR"
	}
	return &CNBSource{
		url:      url,
		currency: strings.ToUpper(currency),
		getter:   getter,
		logger:   logger,
	}
}

// Rate downloads the fixing and returns the rate for one unit of currency.
//
// RETURNS:
//   - The positive rate.
//   - A network error if the download fails, a schema error if the header
//     lacks a required column, or a parse error if the currency row is
//     missing or its values are not positive numbers.
func (s *CNBSource) Rate(ctx context.Context) (decimal.Decimal, error) {
	body, err := s.getter.Get(ctx, s.url)
	if err != nil {
		return decimal.Zero, err
	}

	rate, err := ParseFixing(body, s.currency)
	if err != nil {
		return decimal.Zero, err
	}

	s.logger.Info("exchange rate fetched",
		zap.String("currency", s.currency),
		zap.String("rate", rate.String()),
		zap.String("source", s.url),
	)

	return rate, nil
}

// ParseFixing extracts the rate for currency from a CNB fixing document.
func ParseFixing(body []byte, currency string) (decimal.Decimal, error) {
	const op = "parse exchange rate"

	table, err := csvparser.ParseBytes(body, csvparser.Settings{Delimiter: "|", HeaderRow: 2})
	if err != nil {
		if errors.Is(err, csvparser.ErrEmpty) {
			return decimal.Zero, feederr.Schema(op, errors.New("fixing has no header line"))
		}
		return decimal.Zero, feederr.Parse(op, err)
	}

	idxAmount := table.ColumnIndex(columnAmount)
	idxCode := table.ColumnIndex(columnCode)
	idxRate := table.ColumnIndex(columnRate)
	for name, idx := range map[string]int{columnAmount: idxAmount, columnCode: idxCode, columnRate: idxRate} {
		if idx < 0 {
			return decimal.Zero, feederr.Schema(op, fmt.Errorf("missing column %q in header %q", name, table.Headers))
		}
	}

	for _, row := range table.Rows {
		if len(row) <= max(idxAmount, idxCode, idxRate) {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(row[idxCode]), currency) {
			continue
		}

		amount, err := parseNumber(row[idxAmount])
		if err != nil || !amount.IsPositive() {
			return decimal.Zero, feederr.Parse(op, fmt.Errorf("invalid %s %q for %s", columnAmount, row[idxAmount], currency))
		}
		kurz, err := parseNumber(row[idxRate])
		if err != nil || !kurz.IsPositive() {
			return decimal.Zero, feederr.Parse(op, fmt.Errorf("invalid %s %q for %s", columnRate, row[idxRate], currency))
		}

		return kurz.Div(amount), nil
	}

	return decimal.Zero, feederr.Parse(op, fmt.Errorf("currency %s not found in fixing", currency))
}

// parseNumber accepts the Czech decimal comma.
func parseNumber(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	s = strings.ReplaceAll(s, ",", ".")
	return decimal.NewFromString(s)
}
