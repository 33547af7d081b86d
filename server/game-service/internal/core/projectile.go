package core

import (
	"github.com/go-gl/mathgl/mgl64"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

type Projectile struct {
	ID    uint64
	Pos   mgl64.Vec2
	Vel   mgl64.Vec2
	Owner *Actor
	// Life is the remaining lifetime in seconds.
	Life float64
}

func (p *Projectile) State() pb.BulletState {
	return pb.BulletState{
		ID:      p.ID,
		X:       p.Pos.X(),
		Y:       p.Pos.Y(),
		OwnerID: p.Owner.ID,
	}
}
