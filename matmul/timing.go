package matmul

import "time"

// Timing splits the wall time of one Multiply call on one rank.
type Timing struct {
	Communication time.Duration // both broadcasts of every round
	Computation   time.Duration // local multiply-accumulate of every round
	Rounds        int
}

// Total is Communication + Computation.
func (t Timing) Total() time.Duration { return t.Communication + t.Computation }
