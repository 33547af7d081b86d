package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Control is one sample of a controller's intent: a movement vector with
// components in [-1, 1] plus the two action buttons.
type Control struct {
	Move  mgl64.Vec2
	Shoot bool
	Dash  bool
}

// Idle reports whether the movement vector is inside the move deadzone.
func (c Control) Idle() bool {
	return c.Move.Len() <= MoveDeadzone
}

// Steer resolves a control sample into a velocity and facing angle.
//
// While dashing the velocity is DashSpeed along the input direction, or along
// the current facing when the input is inside DashDeadzone; facing is left
// alone. Otherwise a non-idle input sets PlayerSpeed along the normalized
// direction and turns the facing to it, and an idle input decays vel by
// Friction with the facing unchanged.
func (t Tuning) Steer(c Control, dashing bool, facing float64, vel mgl64.Vec2) (mgl64.Vec2, float64) {
	if dashing {
		dir := Heading(facing)
		if c.Move.Len() > DashDeadzone {
			dir = c.Move.Normalize()
		}
		return dir.Mul(t.DashSpeed), facing
	}
	if c.Idle() {
		return vel.Mul(t.Friction), facing
	}
	dir := c.Move.Normalize()
	return dir.Mul(t.PlayerSpeed), math.Atan2(dir.Y(), dir.X())
}

// Predict advances a locally rendered position by one prediction step. It is
// Steer without velocity memory: an idle input does not move the actor.
func (t Tuning) Predict(pos mgl64.Vec2, facing float64, c Control, dashing bool, dt float64) (mgl64.Vec2, float64) {
	if c.Idle() && !dashing {
		return pos, facing
	}
	vel, facing := t.Steer(c, dashing, facing, mgl64.Vec2{})
	return t.Clamp(pos.Add(vel.Mul(dt))), facing
}

// Clamp keeps an actor's center at least PlayerRadius inside the arena.
func (t Tuning) Clamp(pos mgl64.Vec2) mgl64.Vec2 {
	r := t.PlayerRadius
	return mgl64.Vec2{
		mgl64.Clamp(pos.X(), r, t.ArenaWidth-r),
		mgl64.Clamp(pos.Y(), r, t.ArenaHeight-r),
	}
}

// OutOfBounds reports whether a projectile has left the arena plus margin.
func (t Tuning) OutOfBounds(pos mgl64.Vec2) bool {
	m := t.ArenaMargin
	return pos.X() < -m || pos.X() > t.ArenaWidth+m || pos.Y() < -m || pos.Y() > t.ArenaHeight+m
}

// Heading is the unit vector for an angle in radians.
func Heading(angle float64) mgl64.Vec2 {
	return mgl64.Vec2{math.Cos(angle), math.Sin(angle)}
}

// ClampAxis bounds a single movement component to [-1, 1].
func ClampAxis(v float64) float64 {
	return mgl64.Clamp(v, -1, 1)
}

// AngleDelta returns the signed shortest rotation from a to b, in (-Pi, Pi].
func AngleDelta(a, b float64) float64 {
	d := math.Mod(b-a, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}

// Overlaps is the circle-circle collision test: centers closer than the sum
// of the radii.
func Overlaps(a mgl64.Vec2, ra float64, b mgl64.Vec2, rb float64) bool {
	return a.Sub(b).Len() < ra+rb
}
