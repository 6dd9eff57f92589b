// Package metrics records run metrics for the node_exporter textfile
// collector. Each run gets its own registry.
package metrics

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ginjaninja78/bartscher-feed/pkg/utils"
)

// Recorder holds the metrics of one run.
type Recorder struct {
	registry *prometheus.Registry

	products     prometheus.Gauge
	skipped      prometheus.Gauge
	inStock      prometheus.Gauge
	exchangeRate prometheus.Gauge
	stepDuration *prometheus.GaugeVec
	lastSuccess  prometheus.Gauge
}

// New creates a Recorder with a private registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		products: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feed_products_total",
			Help: "Products written to the feed by the last run.",
		}),
		skipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feed_rows_skipped_total",
			Help: "Spreadsheet rows skipped because of invalid values.",
		}),
		inStock: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feed_products_in_stock",
			Help: "Products reported in stock by the availability feed.",
		}),
		exchangeRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feed_exchange_rate",
			Help: "EUR to CZK rate used by the last run.",
		}),
		stepDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "feed_step_duration_seconds",
			Help: "Duration of each pipeline step in the last run.",
		}, []string{"step"}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "feed_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
	}

	r.registry.MustRegister(r.products, r.skipped, r.inStock, r.exchangeRate, r.stepDuration, r.lastSuccess)
	return r
}

// ObserveStep records how long a pipeline step took.
func (r *Recorder) ObserveStep(step string, d time.Duration) {
	r.stepDuration.WithLabelValues(step).Set(d.Seconds())
}

// SetRate records the exchange rate.
func (r *Recorder) SetRate(rate float64) {
	r.exchangeRate.Set(rate)
}

// SetCounts records the record and product counts.
func (r *Recorder) SetCounts(products, skipped, inStock int) {
	r.products.Set(float64(products))
	r.skipped.Set(float64(skipped))
	r.inStock.Set(float64(inStock))
}

// MarkSuccess records the completion time of a successful run.
func (r *Recorder) MarkSuccess(t time.Time) {
	r.lastSuccess.Set(float64(t.Unix()))
}

// WriteTextfile writes the metrics in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
