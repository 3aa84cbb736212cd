package main

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Coordinator refreshes one data service on its interval and keeps the last
// successful snapshot for readers.
type Coordinator struct {
	service DataService
	logger  *log.Logger
	metrics *refreshMetrics
	debug   bool

	snapshot atomic.Pointer[Snapshot]
	inFlight atomic.Bool

	mu          sync.Mutex
	lastRefresh time.Time
	lastErr     error
}

// NewCoordinator creates a coordinator for service. metrics may be nil.
func NewCoordinator(service DataService, logger *log.Logger, metrics *refreshMetrics) *Coordinator {
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		service: service,
		logger:  logger,
		metrics: metrics,
	}
}

// SetDebug enables logging of every successful refresh
func (c *Coordinator) SetDebug(debug bool) { c.debug = debug }

// Snapshot returns the last successful snapshot, or nil if no refresh has
// succeeded yet. The returned snapshot must not be modified.
func (c *Coordinator) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

// Refresh fetches fresh data and swaps in the new snapshot on success.
// On failure the previous snapshot is kept and the error is logged and returned.
// A call made while another refresh is running returns ErrRefreshInProgress.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer c.inFlight.Store(false)

	started := time.Now()
	snapshot, err := c.service.Update(ctx)
	if err == nil && snapshot == nil {
		snapshot = newSnapshot()
	}
	if err == nil {
		c.snapshot.Store(snapshot)
	}

	c.mu.Lock()
	c.lastRefresh = started
	c.lastErr = err
	c.mu.Unlock()

	c.metrics.observe(c.service.Name(), started, err)

	if err != nil {
		c.logger.Printf("Error refreshing %s: %s: %v", c.describe(), errorKind(err), err)
		return err
	}
	if c.debug {
		c.logger.Printf("Updated %s: %d readings %v, attributes %v", c.describe(), snapshot.Len(), snapshot.Values, snapshot.Attributes)
	}
	return nil
}

// Run refreshes the service every update interval until ctx is done.
// Ticks that arrive while a refresh is still running are dropped.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(c.service.UpdateInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// errors are logged by Refresh; the next tick is the retry
			_ = c.Refresh(ctx)
		}
	}
}

// Status returns the start time and error of the last completed refresh
func (c *Coordinator) Status() (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRefresh, c.lastErr
}

func (c *Coordinator) describe() string {
	if s, ok := c.service.(fmt.Stringer); ok {
		return s.String()
	}
	return c.service.Name()
}
