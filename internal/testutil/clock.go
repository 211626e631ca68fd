// Package testutil holds deterministic stand-ins for the harness' sequence
// clock and run-id generator, so repeated runs produce identical reports.
package testutil

// SeqClock is a logical clock numbering assertion records.
//
// A harness run is strictly sequential, so SeqClock does no locking.
// Use one clock per run.
type SeqClock struct {
	seq int64
}

// NewSeqClock creates a clock whose first Next() returns 1.
func NewSeqClock() *SeqClock {
	return &SeqClock{}
}

// Next advances the clock and returns the new sequence number.
func (c *SeqClock) Next() int64 {
	c.seq++
	return c.seq
}
