package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/electrify-cli/internal/model"
	"github.com/sells-group/electrify-cli/internal/store"
)

// MetricsSnapshot summarizes the run ledger over a lookback window.
type MetricsSnapshot struct {
	Total    int                       `json:"total"`
	Complete int                       `json:"complete"`
	Failed   int                       `json:"failed"`
	Skipped  int                       `json:"skipped"`
	Running  int                       `json:"running"`
	ByKind   map[model.FailureKind]int `json:"by_kind"`

	// FailRate is failed / (complete + failed); skipped jobs are excluded.
	FailRate float64 `json:"fail_rate"`
	// SkipRate is skipped / total.
	SkipRate   float64 `json:"skip_rate"`
	AvgDurSecs float64 `json:"avg_duration_secs"`

	LookbackHours int `json:"lookback_hours"`
	// Truncated is set when the window held more runs than the collector reads.
	Truncated   bool      `json:"truncated"`
	CollectedAt time.Time `json:"collected_at"`
}

// defaultMaxRuns bounds how many ledger rows one snapshot reads.
const defaultMaxRuns = 10000

// Collector gathers metrics from the run ledger.
type Collector struct {
	store   store.Store
	maxRuns int
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st, maxRuns: defaultMaxRuns}
}

// Collect gathers a snapshot of the runs created in the last lookbackHours.
// A non-positive lookback covers the whole ledger.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	filter := store.RunFilter{Limit: c.maxRuns}
	if lookbackHours > 0 {
		filter.CreatedAfter = time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)
	}

	runs, err := c.store.ListRuns(ctx, filter)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap := Summarize(runs)
	snap.LookbackHours = lookbackHours
	if len(runs) >= c.maxRuns {
		snap.Truncated = true
		zap.L().Warn("monitoring: snapshot truncated, rates cover only the newest runs",
			zap.Int("max_runs", c.maxRuns),
			zap.Int("lookback_hours", lookbackHours),
		)
	}
	return snap, nil
}

// Summarize computes a snapshot from runs.
func Summarize(runs []model.Run) *MetricsSnapshot {
	snap := &MetricsSnapshot{
		Total:       len(runs),
		ByKind:      make(map[model.FailureKind]int),
		CollectedAt: time.Now().UTC(),
	}

	var totalDur time.Duration
	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.Complete++
			totalDur += r.UpdatedAt.Sub(r.CreatedAt)
		case model.RunStatusFailed:
			snap.Failed++
			kind := model.FailureInternal
			if r.Error != nil && r.Error.Kind != "" {
				kind = r.Error.Kind
			}
			snap.ByKind[kind]++
		case model.RunStatusSkipped:
			snap.Skipped++
		case model.RunStatusRunning:
			snap.Running++
		}
	}

	if finished := snap.Complete + snap.Failed; finished > 0 {
		snap.FailRate = float64(snap.Failed) / float64(finished)
	}
	if snap.Total > 0 {
		snap.SkipRate = float64(snap.Skipped) / float64(snap.Total)
	}
	if snap.Complete > 0 {
		snap.AvgDurSecs = totalDur.Seconds() / float64(snap.Complete)
	}
	return snap
}
