// =============================================================================
// Bartscher Feed Generator - Converter Module
// =============================================================================
//
// This module orchestrates one feed generation run, from the remote fetches
// to the written XML document.
//
// CONVERSION PIPELINE:
//   1. Fetch the EUR->CZK exchange rate
//   2. Fetch the availability feed
//   3. Load the product spreadsheet
//   4. Transform every record into a feed product
//   5. Generate the XML document
//   6. Write the output file (skipped in dry-run mode)
//
// The first failing step ends the run. Nothing is written after a failure.
//
// CONCURRENCY:
//   A run is strictly sequential. The context only carries cancellation into
//   the network calls.
//
// =============================================================================

package converter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ginjaninja78/bartscher-feed/internal/availability"
	"github.com/ginjaninja78/bartscher-feed/internal/config"
	"github.com/ginjaninja78/bartscher-feed/internal/exchange"
	"github.com/ginjaninja78/bartscher-feed/internal/metrics"
	"github.com/ginjaninja78/bartscher-feed/internal/types"
	"github.com/ginjaninja78/bartscher-feed/internal/validation"
	"github.com/ginjaninja78/bartscher-feed/internal/xlsxparser"
	"github.com/ginjaninja78/bartscher-feed/internal/xmlwriter"
	"github.com/ginjaninja78/bartscher-feed/pkg/utils"
)

// Pipeline step names, used in logs and metrics.
const (
	StepExchangeRate = "exchange_rate"
	StepAvailability = "availability"
	StepLoad         = "load"
	StepTransform    = "transform"
	StepWrite        = "write"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of a run.
type Result struct {
	// RunID identifies the run in logs and the summary file.
	RunID string

	// InputFile is the spreadsheet that was processed.
	InputFile string

	// OutputFile is the path to the generated XML file.
	// This is empty if processing failed or in dry-run mode.
	OutputFile string

	// SummaryFile is the run summary, if one was written.
	SummaryFile string

	// Success indicates whether the run was successful.
	Success bool

	// Error contains the error if the run failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the run.
type ProcessingStats struct {
	// ExchangeRate is the rate applied to every price.
	ExchangeRate decimal.Decimal

	// RecordsLoaded is the number of spreadsheet records.
	RecordsLoaded int

	// RecordsSkipped is the number of rows dropped for invalid values.
	RecordsSkipped int

	// ProductsWritten is the number of <product> elements.
	ProductsWritten int

	// InStock is the number of products with stock.
	InStock int

	// Warnings is the number of validation warnings.
	Warnings int

	// Duplicates is the number of repeated product codes.
	Duplicates int

	// Bytes is the size of the generated document.
	Bytes int

	// ProcessingTime is the time taken by the run.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// RecordLoader loads the product spreadsheet.
type RecordLoader interface {
	Load(path string) (*xlsxparser.Result, error)
}

// Dependencies are the collaborators of a run.
type Dependencies struct {
	Rate         exchange.Source
	Availability availability.Source
	Loader       RecordLoader

	// Metrics is optional.
	Metrics *metrics.Recorder
}

// Options tune a run.
type Options struct {
	// DryRun performs every step except writing the feed.
	DryRun bool
}

// Converter runs the feed pipeline.
type Converter struct {
	cfg         *config.Config
	deps        Dependencies
	opts        Options
	transformer *Transformer
	logger      *zap.Logger
	now         func() time.Time
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Converter instance.
//
// PARAMETERS:
//   - cfg: The run configuration.
//   - deps: The rate source, availability source and spreadsheet loader.
//   - opts: Run options.
//   - logger: The run logger.
//
// RETURNS:
//   - A new Converter instance.
func New(cfg *config.Config, deps Dependencies, opts Options, logger *zap.Logger) *Converter {
	return &Converter{
		cfg:         cfg,
		deps:        deps,
		opts:        opts,
		transformer: NewTransformer(cfg.Product),
		logger:      logger,
		now:         time.Now,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the pipeline.
//
// RETURNS:
//   - A Result struct containing the outcome of the run. Result.Error holds
//     the first error; its kind determines the process exit code.
func (c *Converter) Run(ctx context.Context) (result Result) {
	startTime := c.now()
	result = Result{
		RunID:     utils.NewRunID(),
		InputFile: c.cfg.InputPath,
	}
	logger := c.logger.With(zap.String("run_id", result.RunID))

	defer func() {
		result.Stats.ProcessingTime = c.now().Sub(startTime)
		c.writeMetrics(&result, logger)
	}()

	// =========================================================================
	// STEP 1: EXCHANGE RATE
	// =========================================================================

	logger.Info("fetching exchange rate", zap.String("step", StepExchangeRate))

	var rate decimal.Decimal
	err := c.step(StepExchangeRate, func() error {
		var err error
		rate, err = c.deps.Rate.Rate(ctx)
		return err
	})
	if err != nil {
		return c.fail(result, StepExchangeRate, err, logger)
	}
	result.Stats.ExchangeRate = rate
	if c.deps.Metrics != nil {
		c.deps.Metrics.SetRate(rate.InexactFloat64())
	}

	// =========================================================================
	// STEP 2: AVAILABILITY
	// =========================================================================

	logger.Info("fetching availability", zap.String("step", StepAvailability))

	var stock types.AvailabilityMap
	err = c.step(StepAvailability, func() error {
		m, err := c.deps.Availability.Fetch(ctx)
		stock = m
		return err
	})
	if err != nil {
		return c.fail(result, StepAvailability, err, logger)
	}

	// =========================================================================
	// STEP 3: LOAD SPREADSHEET
	// =========================================================================

	logger.Info("loading spreadsheet", zap.String("step", StepLoad), zap.String("path", c.cfg.InputPath))

	var loaded *xlsxparser.Result
	err = c.step(StepLoad, func() error {
		var err error
		loaded, err = c.deps.Loader.Load(c.cfg.InputPath)
		return err
	})
	if err != nil {
		return c.fail(result, StepLoad, err, logger)
	}
	result.Stats.RecordsLoaded = len(loaded.Records)
	result.Stats.RecordsSkipped = loaded.Skipped
	result.Stats.Duplicates = len(loaded.Duplicates)

	report := validation.Validate(loaded.Records)
	result.Stats.Warnings = len(report.Warnings)
	for _, w := range report.Warnings {
		logger.Warn("validation warning",
			zap.String("rule", w.Rule),
			zap.String("code", w.Code),
			zap.Int("row", w.Row),
			zap.String("message", w.Message),
		)
	}

	// =========================================================================
	// STEP 4: TRANSFORM
	// =========================================================================

	logger.Info("transforming products", zap.String("step", StepTransform), zap.Int("records", len(loaded.Records)))

	var doc []byte
	err = c.step(StepTransform, func() error {
		products := c.transformer.TransformAll(loaded.Records, rate, stock)
		for _, p := range products {
			if p.StockLevel > 0 {
				result.Stats.InStock++
			}
		}
		result.Stats.ProductsWritten = len(products)

		var err error
		doc, err = xmlwriter.Generate(products)
		return err
	})
	if err != nil {
		return c.fail(result, StepTransform, err, logger)
	}
	result.Stats.Bytes = len(doc)

	// =========================================================================
	// STEP 5: WRITE
	// =========================================================================

	if c.opts.DryRun {
		logger.Info("dry run, feed not written", zap.Int("bytes", len(doc)))
	} else {
		logger.Info("writing feed", zap.String("step", StepWrite), zap.String("path", c.cfg.OutputPath))

		err = c.step(StepWrite, func() error {
			return xmlwriter.WriteFile(c.cfg.OutputPath, doc)
		})
		if err != nil {
			return c.fail(result, StepWrite, err, logger)
		}
		result.OutputFile = c.cfg.OutputPath
	}

	result.Success = true

	if c.cfg.SummaryDir != "" {
		result.SummaryFile = c.writeSummary(result, startTime, logger)
	}

	logger.Info("feed generated",
		zap.Int("products", result.Stats.ProductsWritten),
		zap.Int("in_stock", result.Stats.InStock),
		zap.Int("skipped", result.Stats.RecordsSkipped),
		zap.Int("warnings", result.Stats.Warnings),
		zap.String("rate", rate.String()),
		zap.Duration("elapsed", c.now().Sub(startTime)),
	)

	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// step runs fn and records its duration.
func (c *Converter) step(name string, fn func() error) error {
	start := c.now()
	err := fn()
	if c.deps.Metrics != nil {
		c.deps.Metrics.ObserveStep(name, c.now().Sub(start))
	}
	return err
}

// fail records a failed step.
func (c *Converter) fail(result Result, step string, err error, logger *zap.Logger) Result {
	logger.Error("feed generation failed", zap.String("step", step), zap.Error(err))
	result.Error = err
	result.Success = false
	return result
}

// writeSummary writes the run summary. Failures are logged, not returned.
func (c *Converter) writeSummary(result Result, startTime time.Time, logger *zap.Logger) string {
	path, err := utils.WriteSummaryLog(utils.RunSummary{
		RunID:        result.RunID,
		StartTime:    startTime,
		EndTime:      c.now(),
		InputFile:    result.InputFile,
		OutputFile:   result.OutputFile,
		ExchangeRate: result.Stats.ExchangeRate.String(),
		Records:      result.Stats.RecordsLoaded,
		Skipped:      result.Stats.RecordsSkipped,
		Products:     result.Stats.ProductsWritten,
		InStock:      result.Stats.InStock,
		Warnings:     result.Stats.Warnings,
		DryRun:       c.opts.DryRun,
	}, c.cfg.SummaryDir)
	if err != nil {
		logger.Warn("failed to write run summary", zap.Error(err))
		return ""
	}
	logger.Debug("run summary written", zap.String("path", path))
	return path
}

// writeMetrics flushes the metrics textfile, if configured.
func (c *Converter) writeMetrics(result *Result, logger *zap.Logger) {
	if c.deps.Metrics == nil || c.cfg.MetricsTextfile == "" {
		return
	}

	c.deps.Metrics.SetCounts(result.Stats.ProductsWritten, result.Stats.RecordsSkipped, result.Stats.InStock)
	if result.Success {
		c.deps.Metrics.MarkSuccess(c.now())
	}

	if err := c.deps.Metrics.WriteTextfile(c.cfg.MetricsTextfile); err != nil {
		logger.Warn("failed to write metrics", zap.Error(err))
	}
}
