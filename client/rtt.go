package client

import (
	"time"

	"github.com/sasha-s/go-deadlock"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

const (
	minAdaptiveBlend = 80 * time.Millisecond
	maxAdaptiveBlend = 250 * time.Millisecond
)

// Estimator measures round-trip time and the server clock offset from
// ping/pong pairs. Only the newest sample is kept.
type Estimator struct {
	mu      deadlock.Mutex
	rtt     time.Duration
	offset  time.Duration
	samples int
}

// Probe builds the ping for now.
func (e *Estimator) Probe(now time.Time) pb.Ping {
	return pb.Ping{ClientTs: now.UnixMilli()}
}

// Observe folds in a pong received at now. Replies without a client
// timestamp, or from the future, are ignored.
func (e *Estimator) Observe(p pb.Pong, now time.Time) bool {
	recv := now.UnixMilli()
	if p.ClientTs <= 0 || p.ClientTs > recv {
		return false
	}
	rtt := recv - p.ClientTs
	// offset = serverTs - (clientTs + rtt/2)
	offset := float64(p.ServerTs) - (float64(p.ClientTs) + float64(rtt)/2)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rtt = time.Duration(rtt) * time.Millisecond
	e.offset = time.Duration(offset * float64(time.Millisecond))
	e.samples++
	return true
}

// RTT returns the last measured round trip, and false before the first pong.
func (e *Estimator) RTT() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rtt, e.samples > 0
}

// Offset is how far the server clock runs ahead of the local one.
func (e *Estimator) Offset() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.offset
}

// SnapshotAge is how old a snapshot stamped serverTime (Unix ms) is at now,
// measured on the server clock.
func (e *Estimator) SnapshotAge(serverTime int64, now time.Time) time.Duration {
	if serverTime == 0 {
		return 0
	}
	serverNow := now.Add(e.Offset())
	return serverNow.Sub(time.UnixMilli(serverTime))
}

// BlendDuration suggests a correction blend of half the RTT, kept within
// [80ms, 250ms]. Without a sample it is the default blend.
func (e *Estimator) BlendDuration() time.Duration {
	rtt, ok := e.RTT()
	if !ok {
		return DefaultBlendDuration
	}
	return min(maxAdaptiveBlend, max(minAdaptiveBlend, rtt/2))
}
