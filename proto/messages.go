// Package proto holds the wire messages exchanged between controllers and the
// game service, and the RPC contracts between services.
package proto

import "math"

// Envelope types, client -> server.
const (
	MsgCreateGame = "create_game"
	MsgJoinGame   = "join_game"
	MsgStartGame  = "start_game"
	MsgLeaveGame  = "leave_game"
	MsgInput      = "input"
	MsgPing       = "ping_client"
)

// Envelope types, server -> client.
const (
	MsgAck         = "ack"
	MsgWelcome     = "welcome"
	MsgLobbyUpdate = "lobby_update"
	MsgGameStarted = "game_started"
	MsgGameEnded   = "game_ended"
	MsgState       = "state"
	MsgHit         = "hit"
	MsgRespawn     = "player_respawn"
	MsgPong        = "pong_server"
)

// Input is one controller sample. Sequence numbers are controller-local and
// increase by one per sample.
type Input struct {
	Seq       uint64  `json:"seq"`
	Mx        float64 `json:"mx"`
	My        float64 `json:"my"`
	Shoot     bool    `json:"shoot"`
	Dash      bool    `json:"dash"`
	Timestamp int64   `json:"timestamp"`
}

// InputRequest is Input as it arrives off the wire, before validation.
type InputRequest struct {
	Seq       uint64   `json:"seq"`
	Mx        *float64 `json:"mx"`
	My        *float64 `json:"my"`
	Shoot     bool     `json:"shoot"`
	Dash      bool     `json:"dash"`
	Timestamp int64    `json:"timestamp"`
}

// Normalize validates the movement fields and clamps them to [-1, 1]. It
// returns false when either axis is missing or not a finite number.
func (r InputRequest) Normalize() (Input, bool) {
	if r.Mx == nil || r.My == nil || !finite(*r.Mx) || !finite(*r.My) {
		return Input{}, false
	}
	return Input{
		Seq:       r.Seq,
		Mx:        math.Max(-1, math.Min(1, *r.Mx)),
		My:        math.Max(-1, math.Min(1, *r.My)),
		Shoot:     r.Shoot,
		Dash:      r.Dash,
		Timestamp: r.Timestamp,
	}, true
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

type PlayerState struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	X                     float64 `json:"x"`
	Y                     float64 `json:"y"`
	Angle                 float64 `json:"angle"`
	HP                    int32   `json:"hp"`
	R                     float64 `json:"r"`
	LastProcessedInputSeq uint64  `json:"lastProcessedInputSeq"`
}

type BulletState struct {
	ID      uint64  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	OwnerID string  `json:"ownerId"`
}

// State is the full room snapshot. Time and ServerTime are both server wall
// clock in Unix milliseconds.
type State struct {
	Tick       int64         `json:"tick"`
	Time       int64         `json:"time"`
	ServerTime int64         `json:"serverTime"`
	Players    []PlayerState `json:"players"`
	Bullets    []BulletState `json:"bullets"`
}

// Player finds a player entry by identity.
func (s *State) Player(id string) (PlayerState, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerState{}, false
}

type Hit struct {
	PlayerID string `json:"playerId"`
	HP       int32  `json:"hp"`
}

type Respawn struct {
	PlayerID string `json:"playerId"`
}

type Ping struct {
	ClientTs int64 `json:"clientTs"`
}

type Pong struct {
	ClientTs int64 `json:"clientTs"`
	ServerTs int64 `json:"serverTs"`
}

type Welcome struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type JoinGame struct {
	GameID string `json:"gameId"`
}

type StartGame struct {
	GameID string `json:"gameId,omitempty"`
}

type Ack struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	GameID string `json:"gameId,omitempty"`
}

type LobbyPlayer struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
}

type LobbyUpdate struct {
	GameID  string        `json:"gameId"`
	HostID  string        `json:"hostId"`
	Players []LobbyPlayer `json:"players"`
}

type GameEnded struct {
	Reason string `json:"reason"`
}
