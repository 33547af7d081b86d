package core

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler admits authenticated controllers and turns their frames into
// Manager calls.
type WSHandler struct {
	Manager *Manager
	Secret  []byte
	Log     *logrus.Entry
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "NO_TOKEN"})
		return
	}
	ident, err := ParseToken(h.Secret, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "AUTH_FAILED"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.WithError(err).Warn("upgrade failed")
		return
	}

	connID := uuid.NewString()
	log := h.Log.WithFields(logrus.Fields{"conn": connID, "player": ident.PlayerID})
	conn := NewWebSocketConn(connID, ws, pb.CodecByName(c.Query("codec")), log)
	go conn.WritePump()
	defer conn.Close()
	defer h.Manager.Disconnect(connID)

	log.Info("connected")
	conn.Send(pb.MsgWelcome, pb.Welcome{PlayerID: ident.PlayerID, Name: ident.Name})

	ws.SetReadDeadline(time.Now().Add(wsReadDeadline))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			log.WithError(err).Debug("read ended")
			break
		}
		ws.SetReadDeadline(time.Now().Add(wsReadDeadline))

		frame, err := conn.codec.Decode(data)
		if err != nil {
			log.WithError(err).Debug("malformed frame dropped")
			continue
		}
		h.dispatch(conn, ident, frame, log)
	}
	log.Info("disconnected")
}

func (h *WSHandler) dispatch(conn *WebSocketConn, ident Identity, f pb.Frame, log *logrus.Entry) {
	switch f.T {
	case pb.MsgInput:
		var req pb.InputRequest
		if err := f.Decode(&req); err != nil {
			log.WithError(err).Debug("bad input dropped")
			return
		}
		if in, ok := req.Normalize(); ok {
			h.Manager.HandleInput(conn.ID(), in)
		}

	case pb.MsgPing:
		var ping pb.Ping
		if err := f.Decode(&ping); err != nil {
			log.WithError(err).Debug("bad ping dropped")
			return
		}
		now := time.Now().UnixMilli()
		if ping.ClientTs == 0 {
			ping.ClientTs = now
		}
		conn.Send(pb.MsgPong, pb.Pong{ClientTs: ping.ClientTs, ServerTs: now})

	case pb.MsgCreateGame:
		code, err := h.Manager.CreateRoom(conn, ident.PlayerID, ident.Name)
		conn.Reply(f.ID, ack(err, code))

	case pb.MsgJoinGame:
		var req pb.JoinGame
		if err := f.Decode(&req); err != nil || req.GameID == "" {
			conn.Reply(f.ID, ack(ErrNotFound, ""))
			return
		}
		code := normalizeCode(req.GameID)
		conn.Reply(f.ID, ack(h.Manager.JoinRoom(code, conn, ident.PlayerID, ident.Name), code))

	case pb.MsgStartGame:
		var req pb.StartGame
		if err := f.Decode(&req); err != nil {
			log.WithError(err).Debug("bad start_game payload")
			conn.Reply(f.ID, ack(ErrNoGame, ""))
			return
		}
		code := req.GameID
		if code == "" {
			code, _ = h.Manager.RoomOf(conn.ID())
		}
		conn.Reply(f.ID, ack(h.Manager.StartRoom(code, ident.PlayerID), normalizeCode(code)))

	case pb.MsgLeaveGame:
		conn.Reply(f.ID, ack(h.Manager.LeaveRoom(conn.ID()), ""))

	default:
		log.WithField("type", f.T).Debug("unknown frame type")
	}
}

func ack(err error, gameID string) pb.Ack {
	if err != nil {
		return pb.Ack{OK: false, Error: err.Error()}
	}
	return pb.Ack{OK: true, GameID: gameID}
}
