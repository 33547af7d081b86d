package core

import (
	"github.com/sasha-s/go-deadlock"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

// InputSlot buffers at most one Input per actor between ticks. Writers are
// network goroutines, the reader is the room tick; the mutex makes each
// overwrite and each take atomic with respect to the other.
//
// The slot keeps the highest sequence it has ever accepted and drops any
// sequenced Input at or below it, so a reordered older Input can neither
// replace a newer buffered one nor re-apply movement after it was consumed.
// Sequence 0 means unsequenced and always overwrites.
type InputSlot struct {
	mu      deadlock.Mutex
	pending pb.Input
	full    bool
	highest uint64
}

// Offer buffers in, replacing whatever is waiting. It reports whether the
// input was accepted.
func (s *InputSlot) Offer(in pb.Input) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in.Seq != 0 {
		if in.Seq <= s.highest {
			return false
		}
		s.highest = in.Seq
	}
	s.pending = in
	s.full = true
	return true
}

// Take empties the slot. With nothing buffered it returns the zero Input.
func (s *InputSlot) Take() (pb.Input, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.pending, s.full
	s.pending, s.full = pb.Input{}, false
	return in, ok
}
