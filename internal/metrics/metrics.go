// Package metrics collects operation counters for the embedded store.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Collector counts store operations by name and status and tracks the
// parsed-document cache hit ratio.
type Collector struct {
	mu sync.RWMutex

	operationsTotal map[string]map[string]uint64 // operation -> status -> count
	totalDuration   map[string]time.Duration

	cacheHits   uint64
	cacheMisses uint64
}

func NewCollector() *Collector {
	return &Collector{
		operationsTotal: make(map[string]map[string]uint64),
		totalDuration:   make(map[string]time.Duration),
	}
}

// RecordOperation records one operation with its status ("ok"/"error") and
// duration.
func (c *Collector) RecordOperation(operation, status string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.operationsTotal[operation] == nil {
		c.operationsTotal[operation] = make(map[string]uint64)
	}
	c.operationsTotal[operation][status]++
	c.totalDuration[operation] += duration
}

// RecordCacheHit records a parsed-document cache lookup result.
func (c *Collector) RecordCacheHit(hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit {
		c.cacheHits++
	} else {
		c.cacheMisses++
	}
}

// OperationCount returns the count for one operation/status pair.
func (c *Collector) OperationCount(operation, status string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.operationsTotal[operation][status]
}

// String renders a plain-text snapshot, one line per counter.
func (c *Collector) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder

	ops := make([]string, 0, len(c.operationsTotal))
	for op := range c.operationsTotal {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	for _, op := range ops {
		statuses := make([]string, 0, len(c.operationsTotal[op]))
		for st := range c.operationsTotal[op] {
			statuses = append(statuses, st)
		}
		sort.Strings(statuses)
		for _, st := range statuses {
			fmt.Fprintf(&sb, "%s{status=%q} %d\n", op, st, c.operationsTotal[op][st])
		}
		fmt.Fprintf(&sb, "%s_duration_seconds %f\n", op, c.totalDuration[op].Seconds())
	}

	fmt.Fprintf(&sb, "cache_hits %d\n", c.cacheHits)
	fmt.Fprintf(&sb, "cache_misses %d\n", c.cacheMisses)

	return sb.String()
}
