package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/ayoisaiah/respite/dist"
)

// Run ticks the heartbeat and applies peer messages and posted functions
// until ctx is done. The timers and statistics are saved on the way out.
func (c *Core) Run(ctx context.Context) error {
	defer close(c.done)

	ticker := time.NewTicker(Tick)
	defer ticker.Stop()

	var inbound <-chan dist.Message
	if c.link != nil {
		inbound = c.link.Inbound()
	}

	c.lastProcess = c.now()
	c.publish(c.lastProcess)

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case <-ticker.C:
			c.Heartbeat()
		case msg := <-inbound:
			if err := dist.Dispatch(msg, c); err != nil {
				c.log.Warn("peer message partly applied",
					slog.String("kind", msg.Kind.String()),
					slog.Any("error", err),
				)
			}
		case fn := <-c.commands:
			fn()
		}
	}
}

func (c *Core) shutdown() {
	now := c.now()

	c.saveState(now)
	c.flushStats(now)

	if err := c.writeStatus(now); err != nil {
		c.log.Warn("status not written", slog.Any("error", err))
	}

	c.log.Info("break loop stopped")
}

// Post queues fn to run on the loop goroutine. It is dropped when the loop
// has stopped.
func (c *Core) Post(fn func()) {
	select {
	case c.commands <- fn:
	case <-c.done:
	}
}

// Do runs fn on the loop goroutine and returns its error.
func (c *Core) Do(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)

	select {
	case c.commands <- func() { result <- fn() }:
	case <-c.done:
		return errStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-c.done:
		return errStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
