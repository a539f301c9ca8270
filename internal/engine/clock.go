package engine

import "sync/atomic"

// Clock is the logical clock that orders the steps of a sequence.
//
// Every attempted step, applied or rejected, is stamped with the next seq.
// The store orders by seq, never by wall time, so replay sees the same
// order the run produced.
//
// Clock is safe for concurrent use, although each run owns its own clock.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
