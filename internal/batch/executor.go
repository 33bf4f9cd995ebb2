// Package batch runs the cost calculator over many resources with bounded
// retries, chunked processing, and progress reporting. Every resource in a
// run yields a result; a single failure never aborts the batch.
package batch

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clustercost/clustercost-aws/internal/costing"
)

// Defaults for the retry and batching policy.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
	DefaultBatchSize  = 10

	// maxJitter bounds the random component added to each backoff delay.
	maxJitter = 1 * time.Second

	// interBatchFloor is the minimum pause between batches; the actual
	// pause grows with observed batch duration to avoid hammering the
	// pricing source.
	interBatchFloor = 100 * time.Millisecond
)

// Estimator is the slice of the calculator the executor needs.
type Estimator interface {
	Estimate(resource costing.ResourceRecord, region string, periodDays int) costing.CostResult
}

// ProgressFunc is invoked after every processed resource with the number
// processed so far and the total. Counts are monotonic.
type ProgressFunc func(processed, total int)

// Config tunes an Executor. Zero values take the defaults above.
type Config struct {
	MaxRetries int
	BaseDelay  time.Duration
	BatchSize  int
	Logger     zerolog.Logger

	// Sleep and Jitter exist so tests can run the retry loop without wall
	// clock time. Nil means real time.Sleep and rand jitter.
	Sleep  func(time.Duration)
	Jitter func() time.Duration
}

// Executor wraps an Estimator with retry, batching, and progress reporting.
type Executor struct {
	calc       Estimator
	maxRetries int
	baseDelay  time.Duration
	batchSize  int
	logger     zerolog.Logger
	sleep      func(time.Duration)
	jitter     func() time.Duration
}

// New builds an Executor around calc.
func New(calc Estimator, cfg Config) *Executor {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Sleep == nil {
		cfg.Sleep = time.Sleep
	}
	if cfg.Jitter == nil {
		cfg.Jitter = func() time.Duration { return time.Duration(rand.Int63n(int64(maxJitter))) }
	}
	return &Executor{
		calc:       calc,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		batchSize:  cfg.BatchSize,
		logger:     cfg.Logger,
		sleep:      cfg.Sleep,
		jitter:     cfg.Jitter,
	}
}

// Run estimates every resource and returns a map of resource ID to result.
// Resources are processed highest cost-priority first, in fixed-size
// batches, sequentially; progress is reported after each resource. The
// returned map always holds one entry per input resource.
func (e *Executor) Run(ctx context.Context, resources []costing.ResourceRecord, region string, periodDays int, progress ProgressFunc) map[string]costing.CostResult {
	runID := uuid.New().String()
	total := len(resources)
	results := make(map[string]costing.CostResult, total)

	ordered := prioritize(resources)

	e.logger.Info().
		Str("run_id", runID).
		Int("resource_count", total).
		Str("aws_region", region).
		Int("period_days", periodDays).
		Msg("starting batch cost calculation")

	processed := 0
	for start := 0; start < len(ordered); start += e.batchSize {
		end := start + e.batchSize
		if end > len(ordered) {
			end = len(ordered)
		}

		batchStart := time.Now()
		for _, resource := range ordered[start:end] {
			results[resource.ID] = e.RunOne(ctx, resource, region, periodDays)
			processed++
			if progress != nil {
				progress(processed, total)
			}
		}

		// Pause between batches in proportion to how long the batch
		// took, with a floor, to avoid overwhelming the pricing source.
		if end < len(ordered) {
			e.sleep(interBatchDelay(time.Since(batchStart)))
		}
	}

	e.logger.Info().
		Str("run_id", runID).
		Int("resource_count", total).
		Msg("batch cost calculation complete")

	return results
}

// RunOne estimates a single resource with bounded exponential backoff.
// It never returns an error: after a terminal failure or exhausted retries
// it returns the guaranteed fallback result with CalculationFailed set.
func (e *Executor) RunOne(ctx context.Context, resource costing.ResourceRecord, region string, periodDays int) costing.CostResult {
	var lastErr error

	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		result := e.calc.Estimate(resource, region, periodDays)
		if !result.CalculationFailed {
			return result
		}
		lastErr = resultError(result)

		if !retriable(result.Err) {
			e.logger.Warn().
				Str("resource_id", resource.ID).
				Str("error", result.Err).
				Msg("terminal pricing error, not retrying")
			return result
		}
		if attempt == e.maxRetries {
			break
		}

		delay := e.baseDelay*(1<<attempt) + e.jitter()
		e.logger.Warn().
			Str("resource_id", resource.ID).
			Int("attempt", attempt+1).
			Dur("retry_in", delay).
			Str("error", result.Err).
			Msg("cost calculation failed, retrying")

		select {
		case <-ctx.Done():
			return costing.FailedResult(ctx.Err())
		default:
		}
		e.sleep(delay)
	}

	e.logger.Error().
		Str("resource_id", resource.ID).
		Err(lastErr).
		Msg("all cost calculation attempts failed")
	return costing.FailedResult(lastErr)
}

// retriableMarkers and terminalMarkers classify pricing errors by message
// text. Anything matching neither set is treated as retriable: transient
// faults are far more common at this boundary than contract bugs.
var retriableMarkers = []string{
	"throttling", "rate exceeded", "timeout", "connection",
	"network", "unavailable", "internal error", "temporary",
}

var terminalMarkers = []string{
	"access denied", "invalid parameter", "malformed", "not found", "unauthorized",
}

func retriable(errText string) bool {
	msg := strings.ToLower(errText)
	for _, m := range terminalMarkers {
		if strings.Contains(msg, m) {
			return false
		}
	}
	for _, m := range retriableMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return true
}

// prioritize returns resources ordered by descending cost priority so an
// interrupted run has already surfaced the expensive resources. The sort is
// stable: equal priorities keep their input order.
func prioritize(resources []costing.ResourceRecord) []costing.ResourceRecord {
	ordered := make([]costing.ResourceRecord, len(resources))
	copy(ordered, resources)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri := costing.PriorityRank(costing.PriorityOf(costing.NormalizeKind(ordered[i])))
		rj := costing.PriorityRank(costing.PriorityOf(costing.NormalizeKind(ordered[j])))
		return ri > rj
	})
	return ordered
}

func interBatchDelay(batchDuration time.Duration) time.Duration {
	delay := batchDuration / 10
	if delay < interBatchFloor {
		delay = interBatchFloor
	}
	return delay
}

type textError string

func (e textError) Error() string { return string(e) }

func resultError(r costing.CostResult) error {
	if r.Err == "" {
		return textError("cost calculation failed")
	}
	return textError(r.Err)
}
