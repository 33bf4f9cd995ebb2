package main

import (
	"flag"
	"fmt"
)

// Config holds the CLI settings for one analysis run. Input names the
// discovery JSON file; Rates optionally points at a YAML file overriding
// the static fallback rate table.
type Config struct {
	Input        string
	Output       string
	ClusterID    string
	Region       string
	PeriodDays   int
	Rates        string
	MinCost      float64
	BillableOnly bool
	CSV          bool
	Verbose      bool
}

func parseConfig(args []string) (*Config, error) {
	config := &Config{}

	fs := flag.NewFlagSet("clustercost-aws", flag.ContinueOnError)
	fs.StringVar(&config.Input, "input", "", "Path to discovery output JSON (list of resource records)")
	fs.StringVar(&config.Output, "output", "", "Path to write the summary to (default stdout)")
	fs.StringVar(&config.ClusterID, "cluster", "", "Cluster identifier for the summary")
	fs.StringVar(&config.Region, "region", "us-east-1", "Default AWS region for resources without one")
	fs.IntVar(&config.PeriodDays, "period-days", 30, "Analysis period length in days")
	fs.StringVar(&config.Rates, "rates", "", "Optional YAML file overriding static fallback rates")
	fs.Float64Var(&config.MinCost, "min-cost", 0, "Only report resources costing at least this much")
	fs.BoolVar(&config.BillableOnly, "billable-only", false, "Only report billable resources")
	fs.BoolVar(&config.CSV, "csv", false, "Write per-resource CSV instead of JSON")
	fs.BoolVar(&config.Verbose, "v", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if config.Input == "" {
		return nil, fmt.Errorf("missing required -input flag")
	}
	if config.PeriodDays <= 0 {
		return nil, fmt.Errorf("-period-days must be positive, got %d", config.PeriodDays)
	}
	return config, nil
}
