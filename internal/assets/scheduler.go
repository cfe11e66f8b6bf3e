package assets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher re-runs Sync on a fixed interval so libraries that failed at
// startup are fetched once the CDN is reachable again.
type Refresher struct {
	mirror    *Mirror
	scheduler *gocron.Scheduler
	every     time.Duration
	timeout   time.Duration
}

// NewRefresher schedules a sync every interval hours.
func NewRefresher(mirror *Mirror, hours int) *Refresher {
	return &Refresher{
		mirror:    mirror,
		scheduler: gocron.NewScheduler(time.UTC),
		every:     time.Duration(hours) * time.Hour,
		timeout:   5 * time.Minute,
	}
}

// Start registers the refresh job and runs the scheduler in the background.
// The first run happens one interval after Start.
func (r *Refresher) Start() error {
	if r.every <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %s", r.every)
	}
	if _, err := r.scheduler.Every(r.every).WaitForSchedule().Do(r.refresh); err != nil {
		return fmt.Errorf("scheduling asset refresh: %w", err)
	}
	r.scheduler.StartAsync()
	slog.Info("asset refresh scheduled", "every", r.every.String())
	return nil
}

// Stop terminates the scheduler.
func (r *Refresher) Stop() {
	r.scheduler.Stop()
}

// Jobs reports how many jobs are scheduled.
func (r *Refresher) Jobs() int {
	return len(r.scheduler.Jobs())
}

func (r *Refresher) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	res, err := r.mirror.Sync(ctx)
	if err != nil {
		slog.Warn("asset refresh failed", "error", err)
		return
	}
	slog.Info("asset refresh done",
		"downloaded", res.Downloaded,
		"present", res.Present,
		"failed", res.Failed,
	)
}
