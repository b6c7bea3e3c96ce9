package app

import (
	"context"
	"log"
	"time"
)

const (
	defaultPollInterval = 15 * time.Second
	maxBackoff          = 2 * time.Minute
	pingTimeout         = 3 * time.Second
)

// pinger is the part of the catalog client the health poller needs.
type pinger interface {
	Ping(ctx context.Context) error
}

// StartHealthPoller launches a background goroutine that pings the catalog
// at a fixed cadence, backing off while it is unreachable. The returned
// channel receives the new result whenever reachability changes and is
// closed when ctx is cancelled. initial is the last known result.
func StartHealthPoller(ctx context.Context, client pinger, interval time.Duration, initial error) <-chan error {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	updates := make(chan error, 1)
	go func() {
		defer close(updates)

		last := initial
		failures := 0
		if initial != nil {
			failures = 1
		}
		for {
			timer := time.NewTimer(calculateBackoff(failures, interval))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			err := ping(ctx, client)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				failures++
			} else {
				failures = 0
			}
			if (err == nil) != (last == nil) {
				if err != nil {
					log.Printf("health: catalog unreachable: %v", err)
				} else {
					log.Printf("health: catalog reachable again")
				}
				publish(updates, err)
			}
			last = err
		}
	}()
	return updates
}

func ping(ctx context.Context, client pinger) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return client.Ping(ctx)
}

// publish replaces any unread update with err.
func publish(updates chan error, err error) {
	select {
	case <-updates:
	default:
	}
	updates <- err
}

// calculateBackoff doubles the interval per consecutive failure, capped at maxBackoff.
func calculateBackoff(failures int, interval time.Duration) time.Duration {
	if failures <= 0 {
		return interval
	}
	backoff := interval
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}
