package sessionstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultPurgeSpec runs the purge every ten minutes.
const DefaultPurgeSpec = "*/10 * * * *"

// Purger is implemented by repositories that do not expire records on their own.
type Purger interface {
	Purge(ctx context.Context, cutoff time.Time) (int, error)
}

type PurgeObserver interface {
	ObserveSessionsPurged(n int)
}

type PurgeJob struct {
	purger   Purger
	grace    time.Duration
	log      *slog.Logger
	observer PurgeObserver
	now      func() time.Time
}

func NewPurgeJob(purger Purger, grace time.Duration, log *slog.Logger, observer PurgeObserver) *PurgeJob {
	return &PurgeJob{
		purger:   purger,
		grace:    grace,
		log:      log,
		observer: observer,
		now:      time.Now,
	}
}

// Run purges records that expired more than grace ago.
func (j *PurgeJob) Run(ctx context.Context) (int, error) {
	n, err := j.purger.Purge(ctx, j.now().Add(-j.grace))
	if err != nil {
		return 0, err
	}

	if j.observer != nil {
		j.observer.ObserveSessionsPurged(n)
	}

	return n, nil
}

// Start schedules Run on spec. Stop the returned cron on shutdown.
func (j *PurgeJob) Start(spec string) (*cron.Cron, error) {
	if spec == "" {
		spec = DefaultPurgeSpec
	}

	c := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
	))

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		n, err := j.Run(ctx)
		if err != nil {
			j.log.Error("session purge failed", "err", err)
			return
		}
		j.log.Debug("session purge complete", "purged", n)
	})
	if err != nil {
		return nil, err
	}

	c.Start()

	return c, nil
}
