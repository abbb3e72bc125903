package journal

import (
	"context"
	"fmt"
	"time"
)

// BatchStats summarises a RolloverAll run.
type BatchStats struct {
	Total   int
	Rolled  int
	Current int
	Failed  int
}

// RolloverAll moves every stored island to the week containing now. A
// failing island is logged and skipped. Saves are paced by the write limit
// when one is set.
func (j *Journal) RolloverAll(ctx context.Context, now time.Time) (BatchStats, error) {
	islands, err := j.store.ListIslands(ctx)
	if err != nil {
		return BatchStats{}, fmt.Errorf("list islands: %w", err)
	}

	stats := BatchStats{Total: len(islands)}
	for i := range islands {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		island := &islands[i]
		rollover, err := j.EnsureCurrent(island, now)
		if err != nil {
			j.log.Error().Err(err).Int64("user_id", island.UserID).Msg("Rollover failed")
			stats.Failed++
			continue
		}
		if !rollover.Started {
			stats.Current++
			continue
		}
		if j.writes != nil {
			if err := j.writes.Wait(ctx); err != nil {
				return stats, fmt.Errorf("rate limiter error: %w", err)
			}
		}
		if err := j.save(ctx, island, now); err != nil {
			j.log.Error().Err(err).Int64("user_id", island.UserID).Msg("Rollover failed")
			stats.Failed++
			continue
		}
		stats.Rolled++
	}

	j.log.Info().
		Int("total", stats.Total).
		Int("rolled", stats.Rolled).
		Int("current", stats.Current).
		Int("failed", stats.Failed).
		Msg("Rollover finished")
	return stats, nil
}
