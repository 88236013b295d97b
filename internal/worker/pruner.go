// Package worker runs the retention pruner: a scheduled job that
// removes events whose end_time passed longer ago than the configured
// retention.
package worker

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/vkivaturi/traffis/config"
)

// Pruner is the repository surface the job needs.
type Pruner interface {
	PruneExpired(ctx context.Context, before time.Time) (int64, error)
}

// Run schedules the prune job and blocks until ctx is cancelled.
func Run(ctx context.Context, repo Pruner, cfg config.EventsConfig) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.Wrap(err, "failed to create scheduler")
	}

	interval := cfg.PruneInterval
	if interval <= 0 {
		interval = time.Hour
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			prune(ctx, repo, cfg.Retention)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return errors.Wrap(err, "failed to schedule prune job")
	}

	log.Info().
		Dur("interval", interval).
		Dur("retention", cfg.Retention).
		Msg("Starting retention pruner")
	scheduler.Start()

	<-ctx.Done()
	return scheduler.Shutdown()
}

func prune(ctx context.Context, repo Pruner, retention time.Duration) {
	cutoff := time.Now().Add(-retention)
	deleted, err := repo.PruneExpired(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Prune run failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Pruned expired events")
	}
}
