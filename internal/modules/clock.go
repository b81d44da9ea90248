package modules

import (
	"context"
	"strings"
	"time"

	"github.com/jmylchreest/waveline/internal/config"
)

// Clock shows the current time formatted per configuration.
type Clock struct {
	format string
	now    time.Time

	clock func() time.Time
}

type clockTick struct {
	at time.Time
}

func (clockTick) Module() string { return "clock" }

// NewClock creates the clock module.
func NewClock(cfg config.ClockConfig) *Clock {
	c := &Clock{
		format: cfg.Format,
		clock:  time.Now,
	}
	c.now = c.clock()
	return c
}

// SetConfig applies a reloaded clock configuration.
func (c *Clock) SetConfig(cfg config.ClockConfig) {
	c.format = cfg.Format
}

// Name implements Module.
func (c *Clock) Name() string { return "clock" }

// View implements Module.
func (c *Clock) View() *Segment {
	return TextSegment("", c.now.Format(c.format))
}

// Update implements Updater.
func (c *Clock) Update(msg Message) Action {
	if tick, ok := msg.(clockTick); ok {
		c.now = tick.at
	}
	return Action{}
}

// Subscribe implements Subscriber. The tick granularity follows the format:
// formats without seconds tick on the minute boundary.
func (c *Clock) Subscribe(ctx context.Context, messages chan<- Message) {
	step := time.Minute
	if strings.Contains(c.format, "05") {
		step = time.Second
	}

	for {
		now := c.clock()
		next := now.Truncate(step).Add(step)

		select {
		case <-time.After(next.Sub(now)):
			select {
			case messages <- clockTick{at: c.clock()}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
