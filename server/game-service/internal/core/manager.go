package core

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

// Directory mirrors room metadata somewhere other services can read it.
type Directory interface {
	SaveRoom(ctx context.Context, info pb.RoomInfo) error
	RemoveRoom(ctx context.Context, roomID string) error
	ListRooms(ctx context.Context) ([]pb.RoomInfo, error)
}

// ResultPublisher receives the summary of every room that was played.
type ResultPublisher interface {
	PublishRoomResult(result pb.RoomResult) error
}

type ManagerConfig struct {
	Room          Settings
	IdleTTL       time.Duration
	SweepInterval time.Duration
	CodeLength    int
}

const directoryTimeout = 2 * time.Second

// Manager owns every room on this node, keyed by room code, and remembers
// which room each connection is in. The lock is never held while waiting on
// a room goroutine, since rooms call back into the manager with events.
type Manager struct {
	mu       deadlock.RWMutex
	rooms    map[string]*Room
	memberOf map[string]string

	cfg     ManagerConfig
	dir     Directory
	results ResultPublisher
	log     *logrus.Entry

	// directory writes and result publishes still in flight
	bg errgroup.Group
}

func NewManager(cfg ManagerConfig, dir Directory, results ResultPublisher, log *logrus.Entry) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 6
	}
	return &Manager{
		rooms:    make(map[string]*Room),
		memberOf: make(map[string]string),
		cfg:      cfg,
		dir:      dir,
		results:  results,
		log:      log,
	}
}

func (m *Manager) GetRoom(code string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[normalizeCode(code)]
}

// RoomOf returns the code of the room a connection is in.
func (m *Manager) RoomOf(connID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	code, ok := m.memberOf[connID]
	return code, ok
}

// CreateRoom opens a new room with conn as its first member and host.
func (m *Manager) CreateRoom(conn Conn, playerID, name string) (string, error) {
	m.LeaveRoom(conn.ID())

	m.mu.Lock()
	code := m.uniqueCode()
	room := NewRoom(code, m.cfg.Room, nil, m.log)
	room.listener = m.listenerFor(room)
	m.rooms[code] = room
	m.mu.Unlock()
	go room.Run()

	if err := room.AddActor(conn, playerID, name); err != nil {
		return "", err
	}
	m.setMember(conn.ID(), code)
	m.log.WithFields(logrus.Fields{"room": code, "player": playerID}).Info("room created")
	return code, nil
}

// JoinRoom adds conn to an existing room, leaving any room it was in.
func (m *Manager) JoinRoom(code string, conn Conn, playerID, name string) error {
	code = normalizeCode(code)
	room := m.GetRoom(code)
	if room == nil {
		return ErrNotFound
	}
	if room.Status() == StatusEnded {
		return ErrUnavailable
	}
	if cur, ok := m.RoomOf(conn.ID()); ok {
		if cur == code {
			return nil
		}
		m.LeaveRoom(conn.ID())
	}
	if err := room.AddActor(conn, playerID, name); err != nil {
		return err
	}
	m.setMember(conn.ID(), code)
	return nil
}

// StartRoom activates a room on behalf of playerID, who must be its host.
func (m *Manager) StartRoom(code, playerID string) error {
	if code == "" {
		return ErrNoGame
	}
	room := m.GetRoom(code)
	if room == nil {
		return ErrNotFound
	}
	if room.HostID() != playerID {
		return ErrNotHost
	}
	return room.Start()
}

// StopRoom ends a room administratively.
func (m *Manager) StopRoom(code, reason string) error {
	room := m.GetRoom(code)
	if room == nil {
		return ErrNotFound
	}
	room.Stop(reason)
	return nil
}

// LeaveRoom removes conn from its room. A room left empty ends and is
// discarded through its ended event.
func (m *Manager) LeaveRoom(connID string) error {
	m.mu.Lock()
	code, ok := m.memberOf[connID]
	delete(m.memberOf, connID)
	room := m.rooms[code]
	m.mu.Unlock()
	if !ok {
		return ErrNotInGame
	}
	if room != nil {
		room.RemoveActor(connID)
	}
	return nil
}

// Disconnect is an implicit leave.
func (m *Manager) Disconnect(connID string) {
	m.LeaveRoom(connID)
}

// HandleInput routes an input to the sender's room, if any.
func (m *Manager) HandleInput(connID string, in pb.Input) bool {
	m.mu.RLock()
	room := m.rooms[m.memberOf[connID]]
	m.mu.RUnlock()
	if room == nil {
		return false
	}
	return room.HandleInput(connID, in)
}

func (m *Manager) ListRooms() []pb.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pb.RoomInfo, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r.Info())
	}
	return out
}

// Sweep stops every room idle for longer than the TTL and returns how many
// it stopped.
func (m *Manager) Sweep(now time.Time) int {
	m.mu.RLock()
	var idle []*Room
	for _, r := range m.rooms {
		if now.Sub(r.LastActive()) > m.cfg.IdleTTL {
			idle = append(idle, r)
		}
	}
	m.mu.RUnlock()

	for _, r := range idle {
		m.log.WithField("room", r.ID).Info("cleanup idle room")
		r.Stop("idle")
		m.discard(r.ID, r)
	}
	return len(idle)
}

// RunSweeper sweeps periodically until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Shutdown stops every room, then waits for the rooms to exit and for their
// directory updates and results to be handed off.
func (m *Manager) Shutdown(reason string) {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()
	for _, r := range rooms {
		r.Stop(reason)
	}
	for _, r := range rooms {
		<-r.Done()
	}
	m.bg.Wait()
}

func (m *Manager) setMember(connID, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[code]; ok {
		m.memberOf[connID] = code
	}
}

// listenerFor builds the event hook for one room. It runs on that room's
// goroutine.
func (m *Manager) listenerFor(room *Room) Listener {
	return func(ev Event) {
		switch ev.Type {
		case EventLobby, EventStarted:
			m.saveDirectory(*ev.Info)
		case EventEnded:
			m.discard(room.ID, room)
			m.publishResult(*ev.Result)
		}
	}
}

// discard drops exactly the room instance want from the registry. A newer
// room that took the same code is left alone.
func (m *Manager) discard(code string, want *Room) {
	m.mu.Lock()
	r, ok := m.rooms[code]
	ok = ok && r == want
	if ok {
		delete(m.rooms, code)
		for conn, c := range m.memberOf {
			if c == code {
				delete(m.memberOf, conn)
			}
		}
	}
	m.mu.Unlock()
	if !ok || m.dir == nil {
		return
	}
	m.bg.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
		defer cancel()
		if err := m.dir.RemoveRoom(ctx, code); err != nil {
			m.log.WithError(err).WithField("room", code).Warn("directory remove failed")
		}
		return nil
	})
}

func (m *Manager) saveDirectory(info pb.RoomInfo) {
	if m.dir == nil {
		return
	}
	m.bg.Go(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), directoryTimeout)
		defer cancel()
		if err := m.dir.SaveRoom(ctx, info); err != nil {
			m.log.WithError(err).WithField("room", info.RoomID).Warn("directory save failed")
		}
		return nil
	})
}

func (m *Manager) publishResult(res pb.RoomResult) {
	if m.results == nil || res.StartedAt == 0 {
		return
	}
	m.bg.Go(func() error {
		if err := m.results.PublishRoomResult(res); err != nil {
			m.log.WithError(err).WithField("room", res.RoomID).Error("publish room result failed")
		}
		return nil
	})
}

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// uniqueCode must be called with mu held.
func (m *Manager) uniqueCode() string {
	for {
		code := generateCode(m.cfg.CodeLength)
		if _, exists := m.rooms[code]; !exists {
			return code
		}
	}
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
