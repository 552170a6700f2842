// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"time"
)

// PendingSource reports the bus removal backlog.
type PendingSource interface {
	Pending() int
}

// PendingChecker flags a removal backlog that upkeep is not draining.
type PendingChecker struct {
	source    PendingSource
	threshold int
}

// NewPendingChecker degrades once more than threshold releases are waiting.
func NewPendingChecker(source PendingSource, threshold int) *PendingChecker {
	return &PendingChecker{source: source, threshold: threshold}
}

func (c *PendingChecker) Name() string {
	return "pending_removals"
}

func (c *PendingChecker) Check(_ context.Context) CheckResult {
	n := c.source.Pending()
	if n > c.threshold {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("%d subscriptions waiting for upkeep", n),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("%d pending", n),
	}
}

// TickChecker reports whether the upkeep loop is still ticking.
type TickChecker struct {
	lastTick func() time.Time
	maxAge   time.Duration
	now      func() time.Time
}

// NewTickChecker is unhealthy when lastTick is older than maxAge.
func NewTickChecker(lastTick func() time.Time, maxAge time.Duration) *TickChecker {
	return &TickChecker{lastTick: lastTick, maxAge: maxAge, now: time.Now}
}

func (c *TickChecker) Name() string {
	return "upkeep_loop"
}

func (c *TickChecker) Check(_ context.Context) CheckResult {
	last := c.lastTick()
	if last.IsZero() {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "upkeep loop has not ticked yet",
		}
	}
	if age := c.now().Sub(last); age > c.maxAge {
		return CheckResult{
			Status:  StatusUnhealthy,
			Error:   "upkeep loop stalled",
			Message: fmt.Sprintf("last tick %s ago", age.Round(time.Millisecond)),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "upkeep loop ticking"}
}
