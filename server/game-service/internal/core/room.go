package core

import (
	"math/rand/v2"
	"time"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/logging"
	"github.com/alainledesmablanco-dev/interestelar2/pkg/physics"
	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

type Status int32

const (
	StatusForming Status = iota
	StatusActive
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusForming:
		return "forming"
	case StatusActive:
		return "active"
	default:
		return "ended"
	}
}

// Settings configures one room's simulation.
type Settings struct {
	TickRate     int
	SnapshotRate int
	Tuning       physics.Tuning
	// Seed fixes spawn positions; 0 seeds from the clock.
	Seed uint64
}

func (s Settings) withDefaults() Settings {
	if s.TickRate <= 0 {
		s.TickRate = 20
	}
	if s.SnapshotRate <= 0 {
		s.SnapshotRate = 20
	}
	s.Tuning = s.Tuning.WithDefaults()
	return s
}

// Room is one authoritative simulation. Its actors, projectiles and tick
// counter are owned by the Run goroutine; other goroutines reach them only
// through commands on inbox. Input slots and the atomic metadata fields are
// the only state touched from outside.
type Room struct {
	ID string
	// MatchID names this room instance; codes are reused once a room is gone.
	MatchID string

	settings Settings
	tuning   physics.Tuning
	dt       float64

	actors       *orderedmap.OrderedMap[string, *Actor]
	bullets      []*Projectile
	nextBulletID uint64
	tick         int64
	startedAt    time.Time
	departed     []pb.PlayerResult
	endReason    string

	slotsMu deadlock.RWMutex
	slots   map[string]*InputSlot

	status      atomic.Int32
	members     atomic.Int32
	lastActive  atomic.Int64
	currentTick atomic.Int64
	hostID      atomic.String

	inbox    chan func()
	done     chan struct{}
	listener Listener
	rng      *rand.Rand
	log      *logrus.Entry
}

func NewRoom(id string, settings Settings, listener Listener, log *logrus.Entry) *Room {
	settings = settings.withDefaults()
	seed := settings.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := &Room{
		ID:       id,
		MatchID:  uuid.NewString(),
		settings: settings,
		tuning:   settings.Tuning,
		dt:       1.0 / float64(settings.TickRate),
		actors:   orderedmap.NewOrderedMap[string, *Actor](),
		slots:    make(map[string]*InputSlot),
		inbox:    make(chan func()),
		done:     make(chan struct{}),
		listener: listener,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:      log.WithField("room", id),
	}
	r.touch()
	return r
}

func (r *Room) Status() Status        { return Status(r.status.Load()) }
func (r *Room) Members() int          { return int(r.members.Load()) }
func (r *Room) HostID() string        { return r.hostID.Load() }
func (r *Room) Tick() int64           { return r.currentTick.Load() }
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func (r *Room) Info() pb.RoomInfo {
	return pb.RoomInfo{
		RoomID:    r.ID,
		Status:    r.Status().String(),
		Members:   r.Members(),
		HostID:    r.HostID(),
		UpdatedAt: time.Now().Unix(),
	}
}

func (r *Room) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}

// Run is the room goroutine. It serves membership commands from the moment
// the room exists and runs the tick and snapshot timers only while active.
func (r *Room) Run() {
	defer close(r.done)
	defer logging.Recover(r.log)

	var (
		tickTicker, snapTicker *time.Ticker
		tickC, snapC           <-chan time.Time
	)
	stopTimers := func() {
		if tickTicker != nil {
			tickTicker.Stop()
			snapTicker.Stop()
		}
	}
	defer stopTimers()

	for {
		select {
		case fn := <-r.inbox:
			fn()
		case <-tickC:
			r.step(r.dt)
		case <-snapC:
			r.broadcastSnapshot()
		}

		switch r.Status() {
		case StatusActive:
			if tickTicker == nil {
				tickTicker = time.NewTicker(time.Second / time.Duration(r.settings.TickRate))
				snapTicker = time.NewTicker(time.Second / time.Duration(r.settings.SnapshotRate))
				tickC, snapC = tickTicker.C, snapTicker.C
			}
		case StatusEnded:
			r.log.WithField("reason", r.endReason).Info("room ended")
			return
		}
	}
}

// do runs fn on the room goroutine. It returns false once the room is gone.
func (r *Room) do(fn func()) bool {
	select {
	case r.inbox <- fn:
		return true
	case <-r.done:
		return false
	}
}

// AddActor admits a connection with the identity read off its credential.
func (r *Room) AddActor(conn Conn, id, name string) error {
	errc := make(chan error, 1)
	if !r.do(func() { errc <- r.addActor(conn, id, name) }) {
		return ErrUnavailable
	}
	return <-errc
}

// RemoveActor drops a connection's actor. Unknown connections are a no-op.
// Removing the last actor ends the room.
func (r *Room) RemoveActor(connID string) {
	r.do(func() { r.removeActor(connID) })
}

// Start moves a forming room to active. Starting an active room is a no-op.
func (r *Room) Start() error {
	errc := make(chan error, 1)
	if !r.do(func() { errc <- r.start() }) {
		return ErrUnavailable
	}
	return <-errc
}

// Stop ends the room for reason. Stopping an ended room is a no-op.
func (r *Room) Stop(reason string) {
	r.do(func() { r.stop(reason) })
}

// HandleInput is the Input Channel: it clamps movement and overwrites the
// actor's slot. It reports whether the input was buffered.
func (r *Room) HandleInput(connID string, in pb.Input) bool {
	r.slotsMu.RLock()
	slot := r.slots[connID]
	r.slotsMu.RUnlock()
	if slot == nil {
		return false
	}
	in.Mx = physics.ClampAxis(in.Mx)
	in.My = physics.ClampAxis(in.My)
	if !slot.Offer(in) {
		return false
	}
	r.touch()
	return true
}

func (r *Room) addActor(conn Conn, id, name string) error {
	if r.Status() == StatusEnded {
		return ErrUnavailable
	}
	if _, ok := r.actors.Get(conn.ID()); ok {
		return nil
	}
	a := NewActor(conn, id, name, r.tuning.MaxHP, r.tuning.PlayerRadius, r.spawnPoint())
	r.actors.Set(a.ConnID, a)
	r.slotsMu.Lock()
	r.slots[a.ConnID] = a.input
	r.slotsMu.Unlock()
	r.members.Store(int32(r.actors.Len()))

	// 第一个加入的玩家设为房主
	if r.hostID.Load() == "" {
		r.hostID.Store(id)
	}
	r.touch()
	r.log.WithFields(logrus.Fields{"player": id, "conn": a.ConnID}).Info("player joined")
	r.publishLobby()
	// 中途加入的玩家单独补发开始通知
	if r.Status() == StatusActive {
		conn.Send(pb.MsgGameStarted, struct{}{})
	}
	return nil
}

func (r *Room) removeActor(connID string) {
	a, ok := r.actors.Get(connID)
	if !ok {
		return
	}
	r.actors.Delete(connID)
	r.slotsMu.Lock()
	delete(r.slots, connID)
	r.slotsMu.Unlock()
	r.members.Store(int32(r.actors.Len()))
	r.departed = append(r.departed, a.result())
	r.touch()
	r.log.WithFields(logrus.Fields{"player": a.ID, "conn": connID}).Info("player left")

	if r.actors.Len() == 0 {
		r.hostID.Store("")
		r.stop("empty")
		return
	}

	// 房主离开时转移给最早加入的玩家
	if a.ID == r.hostID.Load() && !r.hasIdentity(a.ID) {
		next := r.actors.Front().Value.ID
		r.hostID.Store(next)
		r.log.WithFields(logrus.Fields{"from": a.ID, "to": next}).Info("host transferred")
	}
	r.publishLobby()
}

func (r *Room) hasIdentity(id string) bool {
	for el := r.actors.Front(); el != nil; el = el.Next() {
		if el.Value.ID == id {
			return true
		}
	}
	return false
}

func (r *Room) start() error {
	switch r.Status() {
	case StatusActive:
		return nil
	case StatusEnded:
		return ErrUnavailable
	}
	r.status.Store(int32(StatusActive))
	r.startedAt = time.Now()
	r.touch()
	r.log.WithField("players", r.actors.Len()).Info("room started")
	r.publish(pb.MsgGameStarted, struct{}{})
	info := r.Info()
	r.emit(Event{Type: EventStarted, Info: &info})
	return nil
}

func (r *Room) stop(reason string) {
	if r.Status() == StatusEnded {
		return
	}
	r.status.Store(int32(StatusEnded))
	r.endReason = reason
	r.publish(pb.MsgGameEnded, pb.GameEnded{Reason: reason})
	result := r.result(reason)
	r.emit(Event{Type: EventEnded, Result: &result})
}

// result summarises the room with one entry per identity: stats from every
// connection a player held here, departed or live, are summed.
func (r *Room) result(reason string) pb.RoomResult {
	merged := orderedmap.NewOrderedMap[string, pb.PlayerResult]()
	add := func(p pb.PlayerResult) {
		if cur, ok := merged.Get(p.PlayerID); ok {
			p.HitsDealt += cur.HitsDealt
			p.HitsTaken += cur.HitsTaken
			p.Respawns += cur.Respawns
		}
		merged.Set(p.PlayerID, p)
	}
	for _, p := range r.departed {
		add(p)
	}
	for el := r.actors.Front(); el != nil; el = el.Next() {
		add(el.Value.result())
	}
	players := make([]pb.PlayerResult, 0, merged.Len())
	for el := merged.Front(); el != nil; el = el.Next() {
		players = append(players, el.Value)
	}

	res := pb.RoomResult{
		RoomID:  r.ID,
		MatchID: r.MatchID,
		Reason:  reason,
		Ticks:   r.tick,
		EndedAt: time.Now().UnixMilli(),
		Players: players,
	}
	if !r.startedAt.IsZero() {
		res.StartedAt = r.startedAt.UnixMilli()
	}
	return res
}

func (r *Room) spawnPoint() mgl64.Vec2 {
	t := r.tuning
	return mgl64.Vec2{
		t.SpawnMinX + r.rng.Float64()*t.SpawnRangeX,
		t.SpawnMinY + r.rng.Float64()*t.SpawnRangeY,
	}
}

func (r *Room) snapshot() pb.State {
	now := time.Now().UnixMilli()
	st := pb.State{
		Tick:       r.tick,
		Time:       now,
		ServerTime: now,
		Players:    make([]pb.PlayerState, 0, r.actors.Len()),
		Bullets:    make([]pb.BulletState, 0, len(r.bullets)),
	}
	for el := r.actors.Front(); el != nil; el = el.Next() {
		st.Players = append(st.Players, el.Value.State())
	}
	for _, b := range r.bullets {
		st.Bullets = append(st.Bullets, b.State())
	}
	return st
}

// broadcastSnapshot is the Snapshot Broadcaster: a full state dump to every
// member, no retry.
func (r *Room) broadcastSnapshot() {
	r.publish(pb.MsgState, r.snapshot())
}
