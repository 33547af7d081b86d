package core

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

type frame struct {
	t       string
	payload any
}

// fakeConn records every frame published to it.
type fakeConn struct {
	id string

	mu     sync.Mutex
	frames []frame
}

func newFakeConn(id string) *fakeConn { return &fakeConn{id: id} }

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(t string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame{t, payload})
	return nil
}

func (c *fakeConn) count(t string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, f := range c.frames {
		if f.t == t {
			n++
		}
	}
	return n
}

func (c *fakeConn) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *fakeConn) last(t string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].t == t {
			return c.frames[i].payload, true
		}
	}
	return nil, false
}

type fakeDirectory struct {
	mu    sync.Mutex
	rooms map[string]pb.RoomInfo
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{rooms: make(map[string]pb.RoomInfo)}
}

func (d *fakeDirectory) SaveRoom(_ context.Context, info pb.RoomInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[info.RoomID] = info
	return nil
}

func (d *fakeDirectory) RemoveRoom(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rooms, id)
	return nil
}

func (d *fakeDirectory) ListRooms(context.Context) ([]pb.RoomInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]pb.RoomInfo, 0, len(d.rooms))
	for _, r := range d.rooms {
		out = append(out, r)
	}
	return out, nil
}

func (d *fakeDirectory) has(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.rooms[id]
	return ok
}

type fakePublisher struct {
	results chan pb.RoomResult
}

func (p *fakePublisher) PublishRoomResult(r pb.RoomResult) error {
	p.results <- r
	return nil
}

func testLog() *logrus.Entry {
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	return logrus.NewEntry(lg)
}

// newTestRoom builds a room that is never Run; tests drive its internals
// directly, as the room goroutine would.
func newTestRoom(listener Listener) *Room {
	return NewRoom("TEST01", Settings{Seed: 7}, listener, testLog())
}

func mustJoin(t *testing.T, r *Room, connID, playerID string, pos mgl64.Vec2) (*Actor, *fakeConn) {
	t.Helper()
	conn := newFakeConn(connID)
	if err := r.addActor(conn, playerID, playerID); err != nil {
		t.Fatalf("addActor(%s): %v", connID, err)
	}
	a, ok := r.actors.Get(connID)
	if !ok {
		t.Fatalf("actor %s missing after join", connID)
	}
	a.Pos = pos
	a.Angle = 0
	return a, conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitDone(t *testing.T, r *Room) {
	t.Helper()
	select {
	case <-r.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("room %s did not exit", r.ID)
	}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
