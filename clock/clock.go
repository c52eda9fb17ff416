// Package clock implements the shared logical timeline for the rewind engine.
// One Clock instance is owned by a store and advanced by exactly one logical
// writer; every namespace commits against the same timeline.
package clock

// Clock tracks a current position and the highest time any commit has been
// recorded at. The invariant 0 <= Current() <= Max() holds at all times, and
// Tick is the only operation that can raise Max.
type Clock struct {
	current int64
	max     int64
}

// New returns a Clock positioned at time zero.
func New() *Clock {
	return &Clock{}
}

// Tick advances the timeline by one step and returns the new current time.
//
// When the caller sits behind the recorded maximum (an abandoned redo branch
// exists), the branch is truncated first: the maximum collapses to the current
// position before the advance. This is the sole trigger for discarding future
// time; trimming the commits that lived there is the store's job.
func (c *Clock) Tick() int64 {
	if c.current < c.max {
		c.max = c.current
	}
	c.current++
	c.max = c.current
	return c.current
}

// Undo steps the current position back by one. No-op at time zero.
func (c *Clock) Undo() {
	if c.current > 0 {
		c.current--
	}
}

// Redo steps the current position forward by one. No-op at the maximum.
func (c *Clock) Redo() {
	if c.current < c.max {
		c.current++
	}
}

// Current returns the position the caller observes.
func (c *Clock) Current() int64 {
	return c.current
}

// Max returns the highest time any commit has been recorded at.
func (c *Clock) Max() int64 {
	return c.max
}

// Seek moves the current position to t. Out-of-range times are ignored
// silently; Seek never raises Max.
func (c *Clock) Seek(t int64) {
	if t >= 0 && t <= c.max {
		c.current = t
	}
}
