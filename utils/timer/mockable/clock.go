// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mockable

import (
	"sync"
	"time"
)

// Clock reports wall-clock time unless it has been pinned with Set. It is
// safe for concurrent use.
type Clock struct {
	lock   sync.RWMutex
	pinned bool
	now    time.Time
}

// Set pins the clock to t.
func (c *Clock) Set(t time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.pinned = true
	c.now = t
}

// Advance moves a pinned clock forward by d. It pins an unpinned clock to
// the current time first.
func (c *Clock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if !c.pinned {
		c.pinned = true
		c.now = time.Now()
	}
	c.now = c.now.Add(d)
}

func (c *Clock) Time() time.Time {
	c.lock.RLock()
	defer c.lock.RUnlock()

	if c.pinned {
		return c.now
	}
	return time.Now()
}

// Unix returns the clock's time in whole seconds since the epoch. Times
// before the epoch report zero.
func (c *Clock) Unix() uint64 {
	return uint64(max(c.Time().Unix(), 0))
}
