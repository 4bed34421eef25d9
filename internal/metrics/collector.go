package metrics

import (
	"sort"
	"sync"
	"time"
)

// Point is one recorded metric value
type Point struct {
	Timestamp time.Time         `json:"timestamp"`
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Aggregation holds summary statistics for one metric series
type Aggregation struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// Collector collects per-round metrics during a campaign
type Collector struct {
	mu sync.RWMutex

	startTime time.Time
	endTime   time.Time

	// Time-series data: metric name -> labels -> []Point
	timeSeries map[string]map[string][]*Point
}

// NewCollector creates a new metrics collector
func NewCollector() *Collector {
	return &Collector{
		startTime:  time.Now(),
		timeSeries: make(map[string]map[string][]*Point),
	}
}

// Start marks the start of metric collection
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
	c.endTime = time.Time{}
}

// Stop marks the end of metric collection
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endTime = time.Now()
}

// Elapsed is the collection time so far, or the total once stopped
func (c *Collector) Elapsed() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.endTime.IsZero() {
		return time.Since(c.startTime)
	}
	return c.endTime.Sub(c.startTime)
}

// Record records a metric value at a specific timestamp
func (c *Collector) Record(name string, value float64, timestamp time.Time, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := labelKey(labels)
	if c.timeSeries[name] == nil {
		c.timeSeries[name] = make(map[string][]*Point)
	}
	c.timeSeries[name][key] = append(c.timeSeries[name][key], &Point{
		Timestamp: timestamp,
		Name:      name,
		Value:     value,
		Labels:    copyLabels(labels),
	})
}

// RecordNow records a metric value at the current time
func (c *Collector) RecordNow(name string, value float64, labels map[string]string) {
	c.Record(name, value, time.Now(), labels)
}

// GetTimeSeries returns all points for a metric with exactly these labels
func (c *Collector) GetTimeSeries(name string, labels map[string]string) []*Point {
	c.mu.RLock()
	defer c.mu.RUnlock()

	points := c.timeSeries[name][labelKey(labels)]
	if points == nil {
		return nil
	}
	result := make([]*Point, len(points))
	for i, p := range points {
		cp := *p
		cp.Labels = copyLabels(p.Labels)
		result[i] = &cp
	}
	return result
}

// Values returns every value of a metric across all label combinations
func (c *Collector) Values(name string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var values []float64
	for _, points := range c.timeSeries[name] {
		for _, p := range points {
			values = append(values, p.Value)
		}
	}
	return values
}

// Count returns the number of points recorded for a metric with these labels
func (c *Collector) Count(name string, labels map[string]string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.timeSeries[name][labelKey(labels)])
}

// GetAggregation calculates aggregated statistics across all label combinations
func (c *Collector) GetAggregation(name string) *Aggregation {
	return calculateAggregation(c.Values(name))
}

// GetMetricNames returns all metric names that have been collected, sorted
func (c *Collector) GetMetricNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.timeSeries))
	for name := range c.timeSeries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear clears all collected metrics
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.timeSeries = make(map[string]map[string][]*Point)
	c.startTime = time.Now()
	c.endTime = time.Time{}
}

// labelKey creates a key from labels for map lookup
func labelKey(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	key := ""
	for _, k := range keys {
		key += k + "=" + labels[k] + ","
	}
	return key
}

// copyLabels creates a copy of the labels map
func copyLabels(labels map[string]string) map[string]string {
	if labels == nil {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

// calculateAggregation calculates aggregated statistics from values
func calculateAggregation(values []float64) *Aggregation {
	if len(values) == 0 {
		return nil
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}

	return &Aggregation{
		Count: int64(len(sorted)),
		Sum:   sum,
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Mean:  sum / float64(len(sorted)),
		P50:   calculatePercentile(sorted, 0.50),
		P95:   calculatePercentile(sorted, 0.95),
		P99:   calculatePercentile(sorted, 0.99),
	}
}

// calculatePercentile calculates the percentile value from a sorted slice
func calculatePercentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return 0.0
	}
	if len(sortedValues) == 1 {
		return sortedValues[0]
	}

	index := p * float64(len(sortedValues)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sortedValues) {
		return sortedValues[len(sortedValues)-1]
	}

	weight := index - float64(lower)
	return sortedValues[lower]*(1-weight) + sortedValues[upper]*weight
}
