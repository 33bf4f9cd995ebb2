package pricing

import (
	"sort"
	"strings"
	"sync"
)

// Cached memoizes successful lookups from an underlying RateSource for the
// lifetime of one analysis run, so identical (item, region, params) lookups
// reach the upstream source at most once.
//
// Failures are not cached: the batch executor owns retry policy, and a
// cached error would turn its retries into no-ops.
type Cached struct {
	upstream RateSource

	mu    sync.Mutex
	rates map[string]float64
}

// NewCached wraps upstream with run-lifetime memoization.
func NewCached(upstream RateSource) *Cached {
	return &Cached{
		upstream: upstream,
		rates:    make(map[string]float64),
	}
}

// Rate returns the memoized rate for the key when present, otherwise asks
// the upstream source and records a successful answer.
//
// The lock is held across the upstream call so concurrent lookups for the
// same key make at most one external call. Duplicate concurrent lookups are
// wasteful but not unsafe, so a coarser lock is an acceptable trade for the
// at-most-once guarantee.
func (c *Cached) Rate(item, region string, params map[string]string) (float64, error) {
	key := cacheKey(item, region, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if rate, ok := c.rates[key]; ok {
		return rate, nil
	}
	rate, err := c.upstream.Rate(item, region, params)
	if err != nil {
		return 0, err
	}
	c.rates[key] = rate
	return rate, nil
}

// Len reports the number of memoized rates.
func (c *Cached) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rates)
}

func cacheKey(item, region string, params map[string]string) string {
	if len(params) == 0 {
		return item + "|" + region
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(item)
	b.WriteByte('|')
	b.WriteString(region)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}
