// =============================================================================
// Bartscher Feed Generator - Availability Fetcher
// =============================================================================
//
// The vendor publishes a tab-separated stock list:
//
//   Artikel Nr. / Item No.<TAB>...<TAB>Verfügbarkeit / Availability
//   100012<TAB>...<TAB>yes
//
// Columns are located by header name. A row whose availability reads "yes"
// maps to types.StockInStock, anything else to types.StockNone. Rows that
// are too short to hold both columns, or that have no code, are skipped.
//
// =============================================================================

package availability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ginjaninja78/bartscher-feed/internal/config"
	"github.com/ginjaninja78/bartscher-feed/internal/csvparser"
	"github.com/ginjaninja78/bartscher-feed/internal/feederr"
	"github.com/ginjaninja78/bartscher-feed/internal/fetch"
	"github.com/ginjaninja78/bartscher-feed/internal/types"
)

// Source provides the availability map.
type Source interface {
	Fetch(ctx context.Context) (types.AvailabilityMap, error)
}

// Stats describes the last parsed feed.
type Stats struct {
	Rows      int
	Malformed int
	InStock   int
}

// Fetcher downloads and parses the availability feed.
type Fetcher struct {
	settings config.AvailabilitySettings
	getter   fetch.Getter
	logger   *zap.Logger
}

// NewFetcher creates a Fetcher.
func NewFetcher(settings config.AvailabilitySettings, getter fetch.Getter, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		settings: settings,
		getter:   getter,
		logger:   logger,
	}
}

// Fetch downloads the feed and builds the availability map.
//
// RETURNS:
//   - The map from product code to stock level.
//   - A network error if the download fails, or a schema error if the
//     feed is empty or lacks one of the configured columns.
func (f *Fetcher) Fetch(ctx context.Context) (types.AvailabilityMap, error) {
	body, err := f.getter.Get(ctx, f.settings.URL)
	if err != nil {
		return nil, err
	}

	m, stats, err := Parse(body, f.settings)
	if err != nil {
		return nil, err
	}

	if stats.Malformed > 0 {
		f.logger.Warn("skipped malformed availability rows", zap.Int("count", stats.Malformed))
	}
	f.logger.Info("availability feed parsed",
		zap.Int("rows", stats.Rows),
		zap.Int("codes", len(m)),
		zap.Int("in_stock", stats.InStock),
	)

	return m, nil
}

// Parse builds the availability map from a raw feed.
func Parse(body []byte, settings config.AvailabilitySettings) (types.AvailabilityMap, Stats, error) {
	const op = "parse availability feed"
	var stats Stats

	table, err := csvparser.ParseBytes(body, csvparser.Settings{
		Delimiter: "\t",
		Encoding:  settings.Encoding,
	})
	if err != nil {
		if errors.Is(err, csvparser.ErrEmpty) {
			return nil, stats, feederr.Schema(op, errors.New("feed is empty"))
		}
		return nil, stats, feederr.Parse(op, err)
	}

	idxCode := table.ColumnIndex(settings.CodeColumn)
	if idxCode < 0 {
		return nil, stats, feederr.Schema(op, fmt.Errorf("missing column %q", settings.CodeColumn))
	}
	idxAvail := table.ColumnIndex(settings.AvailabilityColumn)
	if idxAvail < 0 {
		return nil, stats, feederr.Schema(op, fmt.Errorf("missing column %q", settings.AvailabilityColumn))
	}

	m := make(types.AvailabilityMap, len(table.Rows))
	for _, row := range table.Rows {
		stats.Rows++
		if len(row) <= max(idxCode, idxAvail) {
			stats.Malformed++
			continue
		}

		code := strings.TrimSpace(row[idxCode])
		if code == "" {
			stats.Malformed++
			continue
		}

		level := types.StockNone
		if strings.EqualFold(strings.TrimSpace(row[idxAvail]), "yes") {
			level = types.StockInStock
		}
		m[code] = level
	}

	stats.InStock = m.InStock()
	return m, stats, nil
}
