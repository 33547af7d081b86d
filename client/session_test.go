package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

// fakeServer speaks just enough of the game-service protocol: welcome on
// connect, acks for membership requests, pongs, and one snapshot after start.
func fakeServer(t *testing.T) *httptest.Server {
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "tok" {
			http.Error(w, "AUTH_FAILED", http.StatusUnauthorized)
			return
		}
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		codec := pb.CodecByName(r.URL.Query().Get("codec"))
		msgType := websocket.TextMessage
		if codec.Binary() {
			msgType = websocket.BinaryMessage
		}
		send := func(typ string, id uint64, payload any) {
			data, _ := codec.Encode(typ, id, payload)
			conn.WriteMessage(msgType, data)
		}

		send(pb.MsgWelcome, 0, pb.Welcome{PlayerID: "me", Name: "Ana"})
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			f, err := codec.Decode(data)
			if err != nil {
				continue
			}
			switch f.T {
			case pb.MsgCreateGame:
				send(pb.MsgAck, f.ID, pb.Ack{OK: true, GameID: "ABC234"})
			case pb.MsgJoinGame:
				send(pb.MsgAck, f.ID, pb.Ack{OK: false, Error: "NOT_FOUND"})
			case pb.MsgStartGame:
				send(pb.MsgAck, f.ID, pb.Ack{OK: true, GameID: "ABC234"})
				send(pb.MsgGameStarted, 0, struct{}{})
				send(pb.MsgState, 0, pb.State{Tick: 3, ServerTime: time.Now().UnixMilli(), Players: []pb.PlayerState{
					{ID: "me", X: 300, Y: 300, HP: 100, R: 20},
				}})
			case pb.MsgPing:
				var p pb.Ping
				f.Decode(&p)
				send(pb.MsgPong, 0, pb.Pong{ClientTs: p.ClientTs, ServerTs: time.Now().UnixMilli()})
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func quietLog() *logrus.Entry {
	lg := logrus.New()
	lg.SetOutput(io.Discard)
	return logrus.NewEntry(lg)
}

func TestSessionRoundTrip(t *testing.T) {
	for _, codec := range []string{"json", "msgpack"} {
		t.Run(codec, func(t *testing.T) {
			srv := fakeServer(t)
			defer srv.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			started := make(chan struct{}, 1)
			s, err := Dial(ctx, Config{URL: wsURL(srv), Token: "tok", Codec: codec, PingInterval: 20 * time.Millisecond},
				Handlers{OnStarted: func() { started <- struct{}{} }}, quietLog())
			if err != nil {
				t.Fatal(err)
			}
			if s.Welcome.PlayerID != "me" || s.Controller().PlayerID() != "me" {
				t.Fatalf("welcome = %+v", s.Welcome)
			}

			runCtx, stop := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- s.Run(runCtx) }()

			code, err := s.CreateGame(ctx)
			if err != nil || code != "ABC234" || s.GameID() != "ABC234" {
				t.Fatalf("create = %q, %v", code, err)
			}
			var ackErr *AckError
			if err := s.JoinGame(ctx, "nope"); !errors.As(err, &ackErr) || ackErr.Code != "NOT_FOUND" {
				t.Fatalf("join err = %v", err)
			}
			if err := s.StartGame(ctx); err != nil {
				t.Fatal(err)
			}
			select {
			case <-started:
			case <-ctx.Done():
				t.Fatal("game_started not delivered")
			}

			deadline := time.Now().Add(3 * time.Second)
			for time.Now().Before(deadline) {
				_, placed := s.Controller().Ship()
				if placed && s.Telemetry().ServerTick == 3 && s.rttSampled() {
					break
				}
				time.Sleep(10 * time.Millisecond)
			}
			if _, placed := s.Controller().Ship(); !placed {
				t.Fatal("snapshot never applied")
			}
			if !s.rttSampled() {
				t.Fatal("no pong observed")
			}
			if !s.Playing() {
				t.Fatal("session not playing after start")
			}

			stop()
			select {
			case err := <-done:
				if err != nil {
					t.Fatalf("Run = %v", err)
				}
			case <-time.After(3 * time.Second):
				t.Fatal("Run did not return after cancel")
			}
		})
	}
}

func (s *Session) rttSampled() bool {
	_, ok := s.rtt.RTT()
	return ok
}

func TestDialRejected(t *testing.T) {
	srv := fakeServer(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Dial(ctx, Config{URL: wsURL(srv), Token: "bad"}, Handlers{}, quietLog()); err == nil {
		t.Fatal("dial with a bad token succeeded")
	}
}

func TestMalformedAckDoesNotWakeWaiter(t *testing.T) {
	s := &Session{log: quietLog(), waiters: make(map[uint64]chan pb.Ack)}
	ch := make(chan pb.Ack, 1)
	s.waiters[7] = ch

	f, err := pb.JSONCodec{}.Decode([]byte(`{"t":"ack","id":7,"d":"not an ack"}`))
	if err != nil {
		t.Fatal(err)
	}
	s.dispatch(f)
	select {
	case a := <-ch:
		t.Fatalf("waiter woken with %+v", a)
	default:
	}

	f, _ = pb.JSONCodec{}.Decode([]byte(`{"t":"ack","id":7,"d":{"ok":false,"error":"NOT_HOST"}}`))
	s.dispatch(f)
	select {
	case a := <-ch:
		if a.Error != "NOT_HOST" {
			t.Fatalf("ack = %+v", a)
		}
	default:
		t.Fatal("well-formed ack not delivered")
	}
}
