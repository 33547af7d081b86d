package core

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/physics"
	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

// step advances the room by one fixed timestep. It never blocks: publishing
// only enqueues on member connections.
func (r *Room) step(dt float64) {
	r.tick++
	r.currentTick.Store(r.tick)

	// 1. 处理输入
	for el := r.actors.Front(); el != nil; el = el.Next() {
		r.applyInput(el.Value, dt)
	}

	// 2. 移动
	for el := r.actors.Front(); el != nil; el = el.Next() {
		a := el.Value
		a.Pos = r.tuning.Clamp(a.Pos.Add(a.Vel.Mul(dt)))
	}

	// 3. 子弹与碰撞
	r.advanceProjectiles(dt)

	// 4. 复活
	r.respawnDead()
}

func (r *Room) applyInput(a *Actor, dt float64) {
	t := r.tuning
	in, _ := a.input.Take()
	if in.Seq > a.LastProcessedInputSeq {
		a.LastProcessedInputSeq = in.Seq
	}
	c := physics.Control{Move: mgl64.Vec2{in.Mx, in.My}, Shoot: in.Shoot, Dash: in.Dash}

	if c.Dash && a.DashTimer <= 0 && a.DashCooldown <= 0 {
		a.DashTimer = t.DashTime
		a.DashCooldown = t.DashCooldown
	}

	a.Vel, a.Angle = t.Steer(c, a.Dashing(), a.Angle, a.Vel)

	if c.Shoot && a.ShootCooldown <= 0 {
		r.spawnProjectile(a)
		a.ShootCooldown = t.ShootCooldown
	}

	a.tickTimers(dt)
}

func (r *Room) spawnProjectile(owner *Actor) {
	t := r.tuning
	dir := physics.Heading(owner.Angle)
	r.nextBulletID++
	r.bullets = append(r.bullets, &Projectile{
		ID:    r.nextBulletID,
		Pos:   owner.Pos.Add(dir.Mul(owner.Radius + t.MuzzleOffset)),
		Vel:   dir.Mul(t.BulletSpeed),
		Owner: owner,
		Life:  t.BulletLife,
	})
}

func (r *Room) advanceProjectiles(dt float64) {
	t := r.tuning
	live := r.bullets[:0]
	for _, b := range r.bullets {
		b.Pos = b.Pos.Add(b.Vel.Mul(dt))
		b.Life -= dt

		if target := r.firstHit(b); target != nil {
			target.damage(t.BulletDamage)
			target.stats.hitsTaken++
			b.Owner.stats.hitsDealt++
			hit := pb.Hit{PlayerID: target.ID, HP: target.HP}
			r.publish(pb.MsgHit, hit)
			r.emit(Event{Type: EventHit, Hit: &hit})
			continue
		}
		if b.Life <= 0 || t.OutOfBounds(b.Pos) {
			continue
		}
		live = append(live, b)
	}
	clear(r.bullets[len(live):])
	r.bullets = live
}

func (r *Room) firstHit(b *Projectile) *Actor {
	for el := r.actors.Front(); el != nil; el = el.Next() {
		a := el.Value
		if a == b.Owner {
			continue
		}
		if physics.Overlaps(b.Pos, r.tuning.BulletRadius, a.Pos, a.Radius) {
			return a
		}
	}
	return nil
}

func (r *Room) respawnDead() {
	for el := r.actors.Front(); el != nil; el = el.Next() {
		a := el.Value
		if a.HP > 0 {
			continue
		}
		a.HP = a.MaxHP
		a.Pos = r.spawnPoint()
		a.Vel = mgl64.Vec2{}
		a.stats.respawns++
		ev := pb.Respawn{PlayerID: a.ID}
		r.publish(pb.MsgRespawn, ev)
		r.emit(Event{Type: EventRespawn, Respawn: &ev})
	}
}
