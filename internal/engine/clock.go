package engine

import "sync/atomic"

// Clock hands out request sequence numbers. Every dispatch goroutine draws
// from the same Clock, so a seq identifies one request within a session.
// The zero value starts at 0.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a Clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a Clock whose first seq is start, for continuing a
// session that already has log entries.
func NewClockAt(start int64) *Clock {
	c := new(Clock)
	c.seq.Store(start)
	return c
}

// Next claims a seq. Concurrent callers never receive the same value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1) - 1
}

// Current peeks at the seq Next would return without claiming it.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
