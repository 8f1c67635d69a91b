package finder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rohankatakam/relfinder/internal/sparql"
)

// queryMonitor times store round-trips and flags queries that come close to
// the slow-query threshold
type queryMonitor struct {
	logger    *slog.Logger
	threshold time.Duration
	warnRatio float64
}

func newQueryMonitor(threshold time.Duration) *queryMonitor {
	return &queryMonitor{
		logger:    slog.Default().With("component", "query_monitor"),
		threshold: threshold,
		warnRatio: 0.8,
	}
}

// observe runs fn for d and returns how long it took
func (m *queryMonitor) observe(ctx context.Context, d sparql.QueryDescriptor, fn func() error) time.Duration {
	start := time.Now()
	err := fn()
	duration := time.Since(start)

	attrs := []any{
		"index", d.Index,
		"kind", d.Kind.String(),
		"distance", d.Distance,
		"duration_ms", duration.Milliseconds(),
	}

	switch {
	case err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded):
		m.logger.Error("query exceeded request deadline", append(attrs, "error", err)...)
	case err != nil:
		m.logger.Warn("query failed", append(attrs, "error", err)...)
	case duration >= m.threshold:
		m.logger.Warn("slow query", append(attrs, "threshold_ms", m.threshold.Milliseconds())...)
	case duration >= time.Duration(float64(m.threshold)*m.warnRatio):
		m.logger.Info("query approaching slow threshold",
			append(attrs, "percent_used", duration.Seconds()/m.threshold.Seconds()*100)...)
	default:
		m.logger.Debug("query completed", attrs...)
	}

	return duration
}
