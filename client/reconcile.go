package client

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/physics"
	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

// snapEpsilon is the remaining gap, in px, below which a blend snaps.
const snapEpsilon = 1.0

// ApplySnapshot folds an authoritative snapshot into the local view. It
// reports whether the snapshot contained the own actor.
//
// Pending inputs at or below the acknowledged sequence are dropped for good;
// the rest are replayed from the authoritative position to get the blend
// target. Health always comes straight from the snapshot.
func (c *Controller) ApplySnapshot(s pb.State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick, c.serverTime = s.Tick, s.ServerTime
	c.others = c.others[:0]
	for _, p := range s.Players {
		if p.ID != c.playerID {
			c.others = append(c.others, p)
		}
	}
	c.bullets = append(c.bullets[:0], s.Bullets...)

	me, ok := s.Player(c.playerID)
	if !ok {
		return false
	}

	if me.LastProcessedInputSeq > c.acked {
		c.acked = me.LastProcessedInputSeq
	}
	if c.acked > 0 {
		kept := c.pending[:0]
		for _, p := range c.pending {
			if p.Input.Seq > c.acked {
				kept = append(kept, p)
			}
		}
		clear(c.pending[len(kept):])
		c.pending = kept
	}

	pos, angle := c.replay(mgl64.Vec2{me.X, me.Y}, me.Angle)

	c.ship.HP = me.HP
	c.ship.Radius = me.R
	if !c.known {
		c.ship.Pos, c.ship.Angle = mgl64.Vec2{me.X, me.Y}, me.Angle
		c.known = true
	}
	c.blend = blend{active: true, pos: pos, angle: angle}
	return true
}

// replay runs the pending inputs from an authoritative base. It depends only
// on the recorded inputs and timesteps.
func (c *Controller) replay(pos mgl64.Vec2, angle float64) (mgl64.Vec2, float64) {
	for _, p := range c.pending {
		pos, angle = c.tuning.Predict(pos, angle, p.control(), p.Dashing, p.Dt)
	}
	return pos, angle
}

// Target returns the reconciled position and angle the current blend is
// heading to.
func (c *Controller) Target() (mgl64.Vec2, float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.blend.pos, c.blend.angle, c.blend.active
}

// Step advances the blend by elapsed and reports whether the ship has
// settled on its target. Callers keep stepping until it returns true.
func (c *Controller) Step(elapsed time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := &c.blend
	if !b.active {
		return true
	}
	b.elapsed += elapsed
	t := 1.0
	if c.dur > 0 {
		t = min(1, float64(b.elapsed)/float64(c.dur))
	}

	cur := c.ship.Pos
	pos := cur.Add(b.pos.Sub(cur).Mul(0.15 + 0.7*t))
	angle := c.ship.Angle + physics.AngleDelta(c.ship.Angle, b.angle)*(0.2+0.8*t)

	if b.pos.Sub(pos).Len() < snapEpsilon || t >= 1 {
		c.ship.Pos, c.ship.Angle = b.pos, b.angle
		*b = blend{}
		return true
	}
	c.ship.Pos, c.ship.Angle = pos, angle
	return false
}

// SetBlendDuration changes how long a correction blend takes. Zero snaps on
// the next Step.
func (c *Controller) SetBlendDuration(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dur = max(0, d)
}
