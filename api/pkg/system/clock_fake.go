package system

import (
	"context"
	"sync"
	"time"
)

// FakeClock advances virtual time on every Sleep instead of blocking. OnSleep
// runs after each advance with the total elapsed time, which lets tests
// change the world (say, a page redirect) at a given point of a polling loop.
type FakeClock struct {
	mu      sync.Mutex
	start   time.Time
	now     time.Time
	sleeps  int
	OnSleep func(elapsed time.Duration)
}

func NewFakeClock() *FakeClock {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &FakeClock{start: start, now: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps++
	elapsed := c.now.Sub(c.start)
	hook := c.OnSleep
	c.mu.Unlock()

	if hook != nil {
		hook(elapsed)
	}
	return ctx.Err()
}

func (c *FakeClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(c.start)
}

func (c *FakeClock) Sleeps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sleeps
}
