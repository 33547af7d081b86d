package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

// Actor is one controller's ship inside a room. Everything except the input
// slot is owned by the room goroutine.
type Actor struct {
	ConnID string
	ID     string
	Name   string
	Conn   Conn

	// 物理属性
	Pos    mgl64.Vec2
	Vel    mgl64.Vec2
	Angle  float64
	HP     int32
	MaxHP  int32
	Radius float64

	// 计时器 (秒)
	DashTimer     float64
	DashCooldown  float64
	ShootCooldown float64

	LastProcessedInputSeq uint64

	input *InputSlot
	stats actorStats
}

type actorStats struct {
	hitsDealt int
	hitsTaken int
	respawns  int
}

func NewActor(conn Conn, id, name string, maxHP int32, radius float64, spawn mgl64.Vec2) *Actor {
	return &Actor{
		ConnID: conn.ID(),
		ID:     id,
		Name:   name,
		Conn:   conn,
		Pos:    spawn,
		Angle:  -math.Pi / 2,
		HP:     maxHP,
		MaxHP:  maxHP,
		Radius: radius,
		input:  &InputSlot{},
	}
}

func (a *Actor) Dashing() bool {
	return a.DashTimer > 0
}

// tickTimers counts every active timer down by dt, floored at zero.
func (a *Actor) tickTimers(dt float64) {
	a.DashTimer = math.Max(0, a.DashTimer-dt)
	a.DashCooldown = math.Max(0, a.DashCooldown-dt)
	a.ShootCooldown = math.Max(0, a.ShootCooldown-dt)
}

func (a *Actor) damage(n int32) {
	a.HP = max(0, a.HP-n)
}

func (a *Actor) State() pb.PlayerState {
	return pb.PlayerState{
		ID:                    a.ID,
		Name:                  a.Name,
		X:                     a.Pos.X(),
		Y:                     a.Pos.Y(),
		Angle:                 a.Angle,
		HP:                    a.HP,
		R:                     a.Radius,
		LastProcessedInputSeq: a.LastProcessedInputSeq,
	}
}

func (a *Actor) result() pb.PlayerResult {
	return pb.PlayerResult{
		PlayerID:  a.ID,
		Name:      a.Name,
		HitsDealt: a.stats.hitsDealt,
		HitsTaken: a.stats.hitsTaken,
		Respawns:  a.stats.respawns,
	}
}
