package client

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/physics"
	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

const dt = 0.05

var (
	t0    = time.UnixMilli(1_700_000_000_000)
	right = physics.Control{Move: mgl64.Vec2{1, 0}}
	down  = physics.Control{Move: mgl64.Vec2{0, 1}}
)

func near(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}

func nearVec(a, b mgl64.Vec2) bool {
	return near(a.X(), b.X()) && near(a.Y(), b.Y())
}

func snapshot(x, y float64, ack uint64) pb.State {
	return pb.State{
		Tick:       10,
		ServerTime: t0.UnixMilli(),
		Players: []pb.PlayerState{
			{ID: "me", X: x, Y: y, HP: 60, R: 20, LastProcessedInputSeq: ack},
			{ID: "other", X: 100, Y: 100, HP: 100, R: 20},
		},
		Bullets: []pb.BulletState{{ID: 1, X: 5, Y: 5, OwnerID: "other"}},
	}
}

func seqs(p []PendingInput) []uint64 {
	out := make([]uint64, len(p))
	for i, in := range p {
		out[i] = in.Input.Seq
	}
	return out
}

func TestPredictAssignsSequenceAndMoves(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	c.ApplySnapshot(snapshot(500, 500, 0))
	c.SetBlendDuration(0)
	c.Step(0)

	in := c.Predict(physics.Control{Move: mgl64.Vec2{3, 0}}, dt, t0)
	if in.Seq != 1 || in.Mx != 1 || in.Timestamp != t0.UnixMilli() {
		t.Fatalf("input = %+v", in)
	}
	ship, _ := c.Ship()
	if !nearVec(ship.Pos, mgl64.Vec2{511, 500}) || ship.Angle != 0 {
		t.Fatalf("ship = %+v, want (511,500) facing 0", ship)
	}
	if next := c.Predict(right, dt, t0); next.Seq != 2 {
		t.Fatalf("second seq = %d", next.Seq)
	}
	if p := c.Pending(); len(p) != 2 || p[0].Dt != dt || !p[0].SentAt.Equal(t0) {
		t.Fatalf("pending = %+v", p)
	}
}

func TestAckDropsAcknowledgedInputs(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	for i := 0; i < 8; i++ {
		c.Predict(right, dt, t0)
	}
	c.ApplySnapshot(snapshot(500, 500, 5))
	if got := seqs(c.Pending()); len(got) != 3 || got[0] != 6 || got[2] != 8 {
		t.Fatalf("pending after ack 5 = %v, want [6 7 8]", got)
	}

	c.ApplySnapshot(snapshot(500, 500, 7))
	if got := seqs(c.Pending()); len(got) != 1 || got[0] != 8 {
		t.Fatalf("pending after ack 7 = %v, want [8]", got)
	}
}

func TestAckNeverGoesBackwards(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	for i := 0; i < 8; i++ {
		c.Predict(right, dt, t0)
	}
	c.ApplySnapshot(snapshot(500, 500, 7))
	c.ApplySnapshot(snapshot(500, 500, 3))

	if got := seqs(c.Pending()); len(got) != 1 || got[0] != 8 {
		t.Fatalf("pending = %v, want [8]", got)
	}
	// only seq 8 is replayed on top of the authority
	pos, _, _ := c.Target()
	if !nearVec(pos, mgl64.Vec2{511, 500}) {
		t.Fatalf("target = %v, want (511,500)", pos)
	}
}

func TestZeroAckKeepsEverything(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	c.Predict(right, dt, t0)
	c.Predict(right, dt, t0)
	c.ApplySnapshot(snapshot(500, 500, 0))
	if n := len(c.Pending()); n != 2 {
		t.Fatalf("pending = %d, want 2", n)
	}
	pos, _, _ := c.Target()
	if !nearVec(pos, mgl64.Vec2{522, 500}) {
		t.Fatalf("target = %v", pos)
	}
}

func TestSnapshotIsIdempotent(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	c.Predict(right, dt, t0)
	c.Predict(down, dt, t0)
	c.Predict(right, dt, t0)

	s := snapshot(400, 300, 1)
	c.ApplySnapshot(s)
	p1, a1, _ := c.Target()
	c.ApplySnapshot(s)
	p2, a2, _ := c.Target()

	if p1 != p2 || a1 != a2 {
		t.Fatalf("targets differ: %v/%v vs %v/%v", p1, a1, p2, a2)
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	inputs := []physics.Control{right, down, {Move: mgl64.Vec2{-0.5, 0.5}}, {Move: mgl64.Vec2{1, 0}, Dash: true}}
	run := func(start time.Time, gap time.Duration) (mgl64.Vec2, float64) {
		c := NewController("me", physics.DefaultTuning())
		for i, in := range inputs {
			c.Predict(in, dt, start.Add(time.Duration(i)*gap))
		}
		c.ApplySnapshot(snapshot(700, 400, 1))
		pos, angle, _ := c.Target()
		return pos, angle
	}

	p1, a1 := run(t0, 50*time.Millisecond)
	p2, a2 := run(t0.Add(time.Hour), 3*time.Second)
	if p1 != p2 || a1 != a2 {
		t.Fatalf("replay depends on wall clock: %v/%v vs %v/%v", p1, a1, p2, a2)
	}
	// seq 2..4: down, diagonal, dash right at 900
	want := mgl64.Vec2{700, 400}.
		Add(mgl64.Vec2{0, 11}).
		Add(mgl64.Vec2{-1, 1}.Normalize().Mul(11)).
		Add(mgl64.Vec2{45, 0})
	if !nearVec(p1, want) {
		t.Fatalf("target = %v, want %v", p1, want)
	}
}

func TestHealthComesFromAuthority(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	c.ApplySnapshot(snapshot(500, 500, 0))
	ship, ok := c.Ship()
	if !ok || ship.HP != 60 || ship.Radius != 20 {
		t.Fatalf("ship = %+v", ship)
	}
}

func TestOthersRenderedFromSnapshot(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	c.ApplySnapshot(snapshot(500, 500, 0))
	others := c.Others()
	if len(others) != 1 || others[0].ID != "other" {
		t.Fatalf("others = %+v", others)
	}
	if b := c.Bullets(); len(b) != 1 || b[0].OwnerID != "other" {
		t.Fatalf("bullets = %+v", b)
	}
	if tick, at := c.LastSnapshot(); tick != 10 || at != t0.UnixMilli() {
		t.Fatalf("last snapshot = %d @ %d", tick, at)
	}
	if c.ApplySnapshot(pb.State{Players: []pb.PlayerState{{ID: "other"}}}) {
		t.Fatal("snapshot without own actor reported as applied")
	}
}

func TestBlendConverges(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	c.ApplySnapshot(snapshot(500, 500, 0))
	c.SetBlendDuration(0)
	c.Step(0)

	c.SetBlendDuration(DefaultBlendDuration)
	c.ApplySnapshot(snapshot(600, 500, 0))
	start, _ := c.Ship()
	if start.Pos != (mgl64.Vec2{500, 500}) {
		t.Fatalf("ship snapped to the new snapshot: %v", start.Pos)
	}

	if c.Step(16 * time.Millisecond) {
		t.Fatal("settled after the first step")
	}
	first, _ := c.Ship()
	if first.Pos.X() <= 500 || first.Pos.X() >= 600 {
		t.Fatalf("first step moved to %v", first.Pos)
	}

	settled := false
	for i := 0; i < 10 && !settled; i++ {
		settled = c.Step(16 * time.Millisecond)
	}
	if !settled {
		t.Fatal("blend did not settle within its duration")
	}
	end, _ := c.Ship()
	if end.Pos != (mgl64.Vec2{600, 500}) {
		t.Fatalf("ship = %v, want exactly (600,500)", end.Pos)
	}
	if !c.Step(16 * time.Millisecond) {
		t.Fatal("idle controller not settled")
	}
}

func TestBlendTurnsShortWay(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	s := snapshot(500, 500, 0)
	s.Players[0].Angle = 3
	c.ApplySnapshot(s)

	s.Players[0].Angle = -3
	s.Players[0].X = 600
	c.ApplySnapshot(s)
	c.Step(10 * time.Millisecond)
	ship, _ := c.Ship()
	// 3 -> -3 the short way goes up through pi
	if ship.Angle <= 3 {
		t.Fatalf("angle = %v, expected to increase past 3", ship.Angle)
	}
}

func TestPredictDuringBlendMovesTarget(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	c.ApplySnapshot(snapshot(500, 500, 0))
	before, _, _ := c.Target()

	c.Predict(right, dt, t0)
	after, _, active := c.Target()
	if !active || !nearVec(after, before.Add(mgl64.Vec2{11, 0})) {
		t.Fatalf("target %v -> %v", before, after)
	}
}

func TestDashGateMirrorsAuthority(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	dash := physics.Control{Move: mgl64.Vec2{1, 0}, Dash: true}
	for i := 0; i < 4; i++ {
		c.Predict(dash, dt, t0)
	}
	p := c.Pending()
	want := []bool{true, true, true, false}
	for i, w := range want {
		if p[i].Dashing != w {
			t.Fatalf("input %d dashing = %v, want %v", i+1, p[i].Dashing, w)
		}
	}
}

func TestPredictClampsToArena(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	c.ApplySnapshot(snapshot(1575, 450, 0))
	c.SetBlendDuration(0)
	c.Step(0)
	for i := 0; i < 5; i++ {
		c.Predict(right, dt, t0)
	}
	ship, _ := c.Ship()
	if ship.Pos.X() != 1580 {
		t.Fatalf("x = %v, want clamped to 1580", ship.Pos.X())
	}
}

func TestResetDropsPending(t *testing.T) {
	c := NewController("me", physics.DefaultTuning())
	c.Predict(right, dt, t0)
	c.Reset()
	if len(c.Pending()) != 0 {
		t.Fatal("pending survived reset")
	}
	if in := c.Predict(right, dt, t0); in.Seq != 2 {
		t.Fatalf("seq restarted: %d", in.Seq)
	}
}
