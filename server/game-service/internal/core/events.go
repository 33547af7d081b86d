package core

import (
	"errors"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

// Outcome codes reported to callers; the error text is the wire code.
var (
	ErrNotFound    = errors.New("NOT_FOUND")
	ErrUnavailable = errors.New("UNAVAILABLE")
	ErrNotHost     = errors.New("NOT_HOST")
	ErrNoGame      = errors.New("NO_GAME")
	ErrNotInGame   = errors.New("NOT_IN_GAME")
)

type EventType string

const (
	EventLobby   EventType = "lobby"
	EventStarted EventType = "started"
	EventHit     EventType = "hit"
	EventRespawn EventType = "respawn"
	EventEnded   EventType = "ended"
)

// Event is what a room reports to the layer that owns it. Exactly one of the
// payload fields is set, matching Type; lobby and started events carry Info.
type Event struct {
	Room    string
	Type    EventType
	Info    *pb.RoomInfo
	Hit     *pb.Hit
	Respawn *pb.Respawn
	Result  *pb.RoomResult
}

// Listener receives room events on the room goroutine. It must not call back
// into the room synchronously.
type Listener func(Event)

// publish fans a frame out to every member of the room. A member whose send
// fails simply misses this frame.
func (r *Room) publish(t string, payload any) {
	for el := r.actors.Front(); el != nil; el = el.Next() {
		el.Value.Conn.Send(t, payload)
	}
}

func (r *Room) emit(ev Event) {
	if r.listener == nil {
		return
	}
	ev.Room = r.ID
	r.listener(ev)
}

func (r *Room) lobby() pb.LobbyUpdate {
	players := make([]pb.LobbyPlayer, 0, r.actors.Len())
	for el := r.actors.Front(); el != nil; el = el.Next() {
		players = append(players, pb.LobbyPlayer{PlayerID: el.Value.ID, Name: el.Value.Name})
	}
	return pb.LobbyUpdate{GameID: r.ID, HostID: r.hostID.Load(), Players: players}
}

func (r *Room) publishLobby() {
	r.publish(pb.MsgLobbyUpdate, r.lobby())
	info := r.Info()
	r.emit(Event{Type: EventLobby, Info: &info})
}
