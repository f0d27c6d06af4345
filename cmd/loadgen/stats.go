package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

type endpointSummary struct {
	Total   int64   `json:"total"`
	Success int64   `json:"success"`
	P50Ms   float64 `json:"p50_ms"`
	P95Ms   float64 `json:"p95_ms"`
	P99Ms   float64 `json:"p99_ms"`
}

type summary struct {
	StartTime     time.Time                  `json:"start"`
	EndTime       time.Time                  `json:"end"`
	DurationSec   float64                    `json:"duration_sec"`
	TotalRequests int64                      `json:"total"`
	SuccessCount  int64                      `json:"success"`
	ErrorCount    int64                      `json:"errors"`
	ThroughputRPS float64                    `json:"throughput_rps"`
	P50Ms         float64                    `json:"p50_ms"`
	P95Ms         float64                    `json:"p95_ms"`
	P99Ms         float64                    `json:"p99_ms"`
	Concurrency   int                        `json:"concurrency"`
	ZipfS         float64                    `json:"zipf_s"`
	ZipfV         float64                    `json:"zipf_v"`
	Target        string                     `json:"target"`
	Endpoints     map[string]endpointSummary `json:"endpoints"`
}

// collector aggregates samples and streams them to CSV. Not safe for
// concurrent use; one goroutine owns it.
type collector struct {
	w       *csv.Writer
	total   int64
	success int64
	latMs   []float64
	byName  map[string]*endpointAgg
}

type endpointAgg struct {
	total   int64
	success int64
	latMs   []float64
}

func newCollector(w *csv.Writer) *collector {
	c := &collector{w: w, byName: map[string]*endpointAgg{}}
	if w != nil {
		_ = w.Write([]string{"timestamp", "endpoint", "latency_ms", "status", "error"})
	}
	return c
}

func (c *collector) add(s sample) {
	ms := float64(s.Latency.Microseconds()) / 1000.0
	agg := c.byName[s.Name]
	if agg == nil {
		agg = &endpointAgg{}
		c.byName[s.Name] = agg
	}
	c.total++
	agg.total++
	if s.ok() {
		c.success++
		agg.success++
		c.latMs = append(c.latMs, ms)
		agg.latMs = append(agg.latMs, ms)
	}
	if c.w != nil {
		_ = c.w.Write([]string{
			s.Timestamp.UTC().Format(time.RFC3339Nano),
			s.Name,
			fmt.Sprintf("%.3f", ms),
			strconv.Itoa(s.Status),
			s.ErrorMsg,
		})
	}
}

func (c *collector) flush() error {
	if c.w == nil {
		return nil
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *collector) summary(start, end time.Time, cfg Config) summary {
	elapsed := end.Sub(start).Seconds()
	sort.Float64s(c.latMs)
	s := summary{
		StartTime:     start.UTC(),
		EndTime:       end.UTC(),
		DurationSec:   elapsed,
		TotalRequests: c.total,
		SuccessCount:  c.success,
		ErrorCount:    c.total - c.success,
		P50Ms:         percentile(c.latMs, 50),
		P95Ms:         percentile(c.latMs, 95),
		P99Ms:         percentile(c.latMs, 99),
		Concurrency:   cfg.Concurrency,
		ZipfS:         cfg.ZipfS,
		ZipfV:         cfg.ZipfV,
		Target:        cfg.BaseURL,
		Endpoints:     map[string]endpointSummary{},
	}
	if elapsed > 0 {
		s.ThroughputRPS = float64(c.total) / elapsed
	}
	for name, agg := range c.byName {
		sort.Float64s(agg.latMs)
		s.Endpoints[name] = endpointSummary{
			Total:   agg.total,
			Success: agg.success,
			P50Ms:   percentile(agg.latMs, 50),
			P95Ms:   percentile(agg.latMs, 95),
			P99Ms:   percentile(agg.latMs, 99),
		}
	}
	return s
}

// percentile interpolates linearly between closest ranks of sorted. An empty
// input yields 0 so the summary stays encodable.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	k := (p / 100.0) * float64(len(sorted)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	d := k - f
	return sorted[i]*(1-d) + sorted[i+1]*d
}
