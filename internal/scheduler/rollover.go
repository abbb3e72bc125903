package scheduler

import (
	"context"
	"time"

	"github.com/Alias1177/Turnips/internal/journal"
	"github.com/Alias1177/Turnips/internal/metrics"
)

// RolloverJob starts the new turnip week on every island whose local week
// has ended. Islands span timezones, so it is meant to run hourly.
type RolloverJob struct {
	journal *journal.Journal
	metrics *metrics.Recorder
	timeout time.Duration
	now     func() time.Time
}

func NewRolloverJob(j *journal.Journal, m *metrics.Recorder, timeout time.Duration) *RolloverJob {
	return &RolloverJob{journal: j, metrics: m, timeout: timeout, now: time.Now}
}

func (j *RolloverJob) Name() string {
	return "rollover"
}

func (j *RolloverJob) Run() error {
	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	now := j.now()
	stats, err := j.journal.RolloverAll(ctx, now)
	if j.metrics != nil {
		j.metrics.RecordRollover(stats.Rolled, stats.Current, stats.Failed, now)
	}
	return err
}
