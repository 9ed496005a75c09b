package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   atomic.Uint64
	clientErrors    atomic.Uint64
	serverErrors    atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64

	mu     sync.Mutex
	routes map[string]uint64
}

func New() *Collector {
	return &Collector{routes: map[string]uint64{}}
}

// Record counts one finished request. route is the chi route pattern so that
// path parameters do not explode the label set.
func (c *Collector) Record(route string, status int, duration time.Duration) {
	c.totalRequests.Add(1)
	switch {
	case status == 429:
		c.rateLimited.Add(1)
		c.clientErrors.Add(1)
	case status >= 500:
		c.serverErrors.Add(1)
	case status >= 400:
		c.clientErrors.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))

	if route == "" {
		return
	}
	c.mu.Lock()
	c.routes[route]++
	c.mu.Unlock()
}

type RouteCount struct {
	Route string `json:"route"`
	Count uint64 `json:"count"`
}

func (c *Collector) Snapshot() map[string]any {
	total := c.totalRequests.Load()
	totalMs := c.totalDurationMs.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	routes := make([]RouteCount, 0, len(c.routes))
	for route, count := range c.routes {
		routes = append(routes, RouteCount{Route: route, Count: count})
	}
	c.mu.Unlock()
	sort.Slice(routes, func(i, j int) bool { return routes[i].Route < routes[j].Route })

	return map[string]any{
		"requestsTotal":     total,
		"clientErrorsTotal": c.clientErrors.Load(),
		"serverErrorsTotal": c.serverErrors.Load(),
		"rateLimitedTotal":  c.rateLimited.Load(),
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"routes":            routes,
	}
}
