// Package health aggregates independent component checks into the three
// levels of health response: liveness, detailed breakdown, readiness.
package health

import (
	"context"
	"sync"
	"time"

	"agentlab/api/model"
)

// CheckFunc probes one dependency. It must be cheap, side-effect-free and
// respect ctx, so an external supervisor can poll frequently without
// consuming serving capacity.
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	// critical checks make the whole service unavailable when they fail;
	// non-critical ones only degrade it, since the gateway can still
	// serve at least the simple path and defer failures to per-request
	// handling.
	critical bool
	fn       CheckFunc
}

type Checker struct {
	timeout time.Duration
	checks  []check
}

func New(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{timeout: timeout}
}

func (c *Checker) Register(name string, critical bool, fn CheckFunc) {
	c.checks = append(c.checks, check{name: name, critical: critical, fn: fn})
}

// Basic is the liveness answer: if this code runs, the process is up.
func (c *Checker) Basic() model.HealthStatus {
	return model.HealthOK
}

// Detailed runs every registered check concurrently, each under its own
// timeout, and aggregates into a fresh report. A check that exceeds its
// timeout counts as that component being unavailable; it never stalls the
// report past the bound.
func (c *Checker) Detailed(ctx context.Context) model.HealthReport {
	var (
		mu         sync.Mutex
		wg         sync.WaitGroup
		components = make(map[string]model.ComponentHealth, len(c.checks))
	)

	for _, chk := range c.checks {
		wg.Add(1)
		go func(chk check) {
			defer wg.Done()
			result := c.runOne(ctx, chk)
			mu.Lock()
			components[chk.name] = result
			mu.Unlock()
		}(chk)
	}
	wg.Wait()

	status := model.HealthOK
	for _, chk := range c.checks {
		if components[chk.name].Status == model.HealthOK {
			continue
		}
		if chk.critical {
			status = model.HealthUnavailable
			break
		}
		status = model.HealthDegraded
	}

	return model.HealthReport{
		Status:     status,
		Components: components,
		Timestamp:  time.Now().UTC(),
	}
}

func (c *Checker) runOne(ctx context.Context, chk check) model.ComponentHealth {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() { done <- chk.fn(cctx) }()

	var err error
	select {
	case err = <-done:
	case <-cctx.Done():
		// The check hung past its deadline; report without waiting.
		err = cctx.Err()
	}

	elapsed := time.Since(start)
	if err != nil {
		return model.ComponentHealth{
			Status:    model.HealthUnavailable,
			Details:   err.Error(),
			LatencyMS: elapsed.Milliseconds(),
		}
	}
	return model.ComponentHealth{
		Status:    model.HealthOK,
		LatencyMS: elapsed.Milliseconds(),
	}
}

// Ready derives readiness from the detailed report: the service accepts
// traffic while ok or degraded, refusing only when configuration itself is
// broken.
func (c *Checker) Ready(ctx context.Context) (bool, model.HealthStatus) {
	report := c.Detailed(ctx)
	return report.Status != model.HealthUnavailable, report.Status
}
