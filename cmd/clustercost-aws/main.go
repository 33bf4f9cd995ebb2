// Command clustercost-aws estimates the monthly cost of discovered AWS
// resources. It reads a discovery-output JSON file, prices every resource
// through the batch executor, and writes one comprehensive cost summary.
//
// Per-resource calculation failures are downgraded to estimated zero-cost
// entries and never affect the exit status; only process-level failures
// (bad flags, unreadable input) exit non-zero.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clustercost/clustercost-aws/internal/aggregate"
	"github.com/clustercost/clustercost-aws/internal/batch"
	"github.com/clustercost/clustercost-aws/internal/costing"
	"github.com/clustercost/clustercost-aws/internal/pricing"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Error().Err(err).Msg("analysis failed")
		os.Exit(1)
	}
}

func run(args []string) error {
	config, err := parseConfig(args)
	if err != nil {
		return err
	}

	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel)
	if config.Verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	resources, err := readResources(config.Input)
	if err != nil {
		return err
	}
	logger.Info().
		Int("resource_count", len(resources)).
		Str("cluster_id", config.ClusterID).
		Msg("loaded discovery output")

	rates := pricing.DefaultRates()
	if config.Rates != "" {
		rates, err = pricing.LoadRates(config.Rates)
		if err != nil {
			return err
		}
		logger.Info().Str("path", config.Rates).Msg("loaded rate overrides")
	}

	calc := costing.NewCalculator(costing.CalculatorConfig{
		Rates:  rates,
		Logger: logger,
	})
	executor := batch.New(calc, batch.Config{Logger: logger})

	results := executor.Run(context.Background(), resources, config.Region, config.PeriodDays,
		func(processed, total int) {
			if processed%25 == 0 || processed == total {
				logger.Info().Int("processed", processed).Int("total", total).Msg("pricing resources")
			}
		})

	aggregator := aggregate.New()
	summary := aggregator.Aggregate(results, resources, config.ClusterID, config.Region, config.PeriodDays)

	if config.BillableOnly {
		summary = aggregator.FilterBillable(summary)
	}
	if config.MinCost > 0 {
		summary = aggregator.FilterMinCost(summary, config.MinCost)
	}

	for _, id := range summary.Defects {
		logger.Warn().Str("resource_id", id).Msg("skipped resource with invalid cost result")
	}
	logger.Info().Msg(summary.String())

	return writeSummary(config, summary)
}

func readResources(path string) ([]costing.ResourceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading discovery output: %w", err)
	}
	var resources []costing.ResourceRecord
	if err := json.Unmarshal(data, &resources); err != nil {
		return nil, fmt.Errorf("parsing discovery output: %w", err)
	}
	return resources, nil
}

func writeSummary(config *Config, summary aggregate.ComprehensiveCostSummary) error {
	var out io.Writer = os.Stdout
	if config.Output != "" {
		f, err := os.Create(config.Output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Error().Err(err).Msg("closing output file")
			}
		}()
		out = f
	}

	if config.CSV {
		return aggregate.WriteCSV(out, summary)
	}
	return aggregate.EncodeJSON(out, summary)
}
