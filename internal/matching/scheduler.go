package matching

import (
    "context"
    "log"
    "time"
)

// Scheduler drives the periodic maintenance jobs: the daily preference
// refresh for active users, the hourly boost decay and the weekly event
// pruning. Job failures are logged; the loops keep running.
type Scheduler struct {
    service       Service
    decayInterval time.Duration
}

func NewScheduler(service Service, decayInterval time.Duration) *Scheduler {
    if decayInterval <= 0 {
        decayInterval = time.Hour
    }
    return &Scheduler{service: service, decayInterval: decayInterval}
}

func (s *Scheduler) Start(ctx context.Context) {
    // Preference refresh daily at 4 AM, off the evening traffic peak
    go s.runDaily(ctx, 4, 0, "preference refresh", s.service.RefreshAllPreferences)

    // Boost decay on the configured interval, hourly by default
    go s.runEvery(ctx, s.decayInterval, "boost decay", s.service.DecayBoosts)

    // Event pruning weekly
    go s.runEvery(ctx, 7*24*time.Hour, "event cleanup", s.service.CleanupOldEvents)
}

func (s *Scheduler) runDaily(ctx context.Context, hour, minute int, name string, task func(context.Context) error) {
    for {
        now := time.Now()
        next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
        if now.After(next) {
            next = next.Add(24 * time.Hour)
        }

        timer := time.NewTimer(next.Sub(now))

        select {
        case <-timer.C:
            if err := task(ctx); err != nil {
                log.Printf("scheduled %s failed: %v", name, err)
            }
        case <-ctx.Done():
            timer.Stop()
            return
        }
    }
}

func (s *Scheduler) runEvery(ctx context.Context, interval time.Duration, name string, task func(context.Context) error) {
    ticker := time.NewTicker(interval)
    defer ticker.Stop()

    for {
        select {
        case <-ticker.C:
            if err := task(ctx); err != nil {
                log.Printf("scheduled %s failed: %v", name, err)
            }
        case <-ctx.Done():
            return
        }
    }
}
