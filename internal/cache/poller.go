package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Poller drives periodic refreshes for one key while its list screen is
// active. Navigating away must call Stop so no timer outlives the screen.
type Poller struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartPolling refreshes the key immediately, then on every interval tick
// until the context is cancelled or Stop is called. Refresh errors are
// logged and do not stop the loop; the snapshot keeps serving the last
// good data.
func (c *Cache) StartPolling(ctx context.Context, key Key, interval time.Duration) *Poller {
	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	log := c.logger.WithFields(logrus.Fields{
		"role":     key.Role,
		"owner_id": key.OwnerID,
		"interval": interval.String(),
	})
	log.Info("Starting report list poller")

	go func() {
		defer close(p.done)

		if _, err := c.Refresh(ctx, key); err != nil {
			log.WithError(err).Warn("Initial refresh failed")
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Info("Stopping report list poller")
				return
			case <-ticker.C:
				if _, err := c.Refresh(ctx, key); err != nil {
					log.WithError(err).Warn("Poll refresh failed")
				}
			}
		}
	}()
	return p
}

// Stop cancels the poll loop and waits for it to exit.
func (p *Poller) Stop() {
	p.cancel()
	<-p.done
}
