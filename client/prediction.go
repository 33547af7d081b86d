// Package client is the controller side of a room: local prediction of the
// own ship, reconciliation against snapshots with a short blend, and the
// round-trip estimator used for telemetry.
package client

import (
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sasha-s/go-deadlock"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/physics"
	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

const DefaultBlendDuration = 120 * time.Millisecond

// PendingInput is an input that was sent but not yet acknowledged.
type PendingInput struct {
	Input  pb.Input
	Dt     float64
	SentAt time.Time
	// Dashing records whether the local prediction applied dash speed, so a
	// replay reproduces the same step.
	Dashing bool
}

func (p PendingInput) control() physics.Control {
	return physics.Control{
		Move:  mgl64.Vec2{p.Input.Mx, p.Input.My},
		Shoot: p.Input.Shoot,
		Dash:  p.Input.Dash,
	}
}

// Ship is the rendered view of the controller's own actor.
type Ship struct {
	Pos    mgl64.Vec2
	Angle  float64
	HP     int32
	Radius float64
}

type blend struct {
	active  bool
	elapsed time.Duration
	pos     mgl64.Vec2
	angle   float64
}

// Controller owns everything one controller renders for itself. Predict,
// ApplySnapshot and Step all mutate the same state and are serialized by one
// lock, so a reader never sees a half-updated ship.
type Controller struct {
	mu deadlock.Mutex

	playerID string
	tuning   physics.Tuning

	seq     uint64
	acked   uint64
	pending []PendingInput

	ship  Ship
	known bool
	blend blend
	dur   time.Duration

	dashTimer    float64
	dashCooldown float64

	tick       int64
	serverTime int64
	others     []pb.PlayerState
	bullets    []pb.BulletState
}

func NewController(playerID string, tuning physics.Tuning) *Controller {
	return &Controller{
		playerID: playerID,
		tuning:   tuning.WithDefaults(),
		dur:      DefaultBlendDuration,
	}
}

func (c *Controller) PlayerID() string { return c.playerID }

// Predict turns one control sample into the next Input. The own ship (and the
// blend target, if a blend is running) advances immediately by dt with the
// same movement rule the authority uses; the Input is kept pending until a
// snapshot acknowledges it.
func (c *Controller) Predict(ctl physics.Control, dt float64, now time.Time) pb.Input {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctl.Move = mgl64.Vec2{physics.ClampAxis(ctl.Move.X()), physics.ClampAxis(ctl.Move.Y())}

	// 本地 dash 判定, 与服务端相同的计时规则
	if ctl.Dash && c.dashTimer <= 0 && c.dashCooldown <= 0 {
		c.dashTimer = c.tuning.DashTime
		c.dashCooldown = c.tuning.DashCooldown
	}
	dashing := c.dashTimer > 0

	if c.known {
		c.ship.Pos, c.ship.Angle = c.tuning.Predict(c.ship.Pos, c.ship.Angle, ctl, dashing, dt)
		if c.blend.active {
			c.blend.pos, c.blend.angle = c.tuning.Predict(c.blend.pos, c.blend.angle, ctl, dashing, dt)
		}
	}
	c.dashTimer = math.Max(0, c.dashTimer-dt)
	c.dashCooldown = math.Max(0, c.dashCooldown-dt)

	c.seq++
	in := pb.Input{
		Seq:       c.seq,
		Mx:        ctl.Move.X(),
		My:        ctl.Move.Y(),
		Shoot:     ctl.Shoot,
		Dash:      ctl.Dash,
		Timestamp: now.UnixMilli(),
	}
	c.pending = append(c.pending, PendingInput{Input: in, Dt: dt, SentAt: now, Dashing: dashing})
	return in
}

// Reset drops pending inputs and any running blend, e.g. when the room ends.
// The sequence counter keeps counting.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.blend = blend{}
	c.dashTimer, c.dashCooldown = 0, 0
}

// Ship returns the currently rendered own ship and whether a snapshot has
// placed it yet.
func (c *Controller) Ship() (Ship, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ship, c.known
}

func (c *Controller) Pending() []PendingInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]PendingInput(nil), c.pending...)
}

// Others returns the other players exactly as the last snapshot had them.
func (c *Controller) Others() []pb.PlayerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]pb.PlayerState(nil), c.others...)
}

func (c *Controller) Bullets() []pb.BulletState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]pb.BulletState(nil), c.bullets...)
}

// LastSnapshot returns the tick and server time of the newest snapshot.
func (c *Controller) LastSnapshot() (tick, serverTime int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tick, c.serverTime
}
