package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sasha-s/go-deadlock"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/alainledesmablanco-dev/interestelar2/pkg/physics"
	pb "github.com/alainledesmablanco-dev/interestelar2/proto"
)

type Config struct {
	// URL of the game-service WebSocket endpoint, e.g. ws://host:3000/ws.
	URL   string
	Token string
	// Codec is "json" or "msgpack".
	Codec string

	SendRate       int
	PingInterval   time.Duration
	SmoothInterval time.Duration
	// AdaptiveBlend sizes the correction blend from the measured RTT.
	AdaptiveBlend bool
	Tuning        physics.Tuning
}

func (c Config) withDefaults() Config {
	if c.SendRate <= 0 {
		c.SendRate = 20
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 2 * time.Second
	}
	if c.SmoothInterval <= 0 {
		c.SmoothInterval = 16 * time.Millisecond
	}
	return c
}

// Handlers are optional callbacks for room events. They run on the read
// loop and must not block.
type Handlers struct {
	OnLobby   func(pb.LobbyUpdate)
	OnStarted func()
	OnEnded   func(pb.GameEnded)
	OnHit     func(pb.Hit)
	OnRespawn func(pb.Respawn)
}

type Telemetry struct {
	RTT         time.Duration
	ClockOffset time.Duration
	Pending     int
	ServerTick  int64
	SnapshotAge time.Duration
}

// AckError is a request the server answered with ok=false; Code is the
// server's outcome code.
type AckError struct {
	Code string
}

func (e *AckError) Error() string { return e.Code }

var ErrSessionClosed = errors.New("session closed")

// Session is one controller's connection to a game-service. Requests such as
// CreateGame are answered through the read loop, so Run must be running.
type Session struct {
	cfg      Config
	conn     *websocket.Conn
	codec    pb.Codec
	msgType  int
	log      *logrus.Entry
	handlers Handlers

	Welcome pb.Welcome
	ctl     *Controller
	rtt     *Estimator

	writeMu deadlock.Mutex
	control atomic.Value // physics.Control
	playing atomic.Bool
	gameID  atomic.String

	nextID    atomic.Uint64
	waitersMu deadlock.Mutex
	waiters   map[uint64]chan pb.Ack

	closed    chan struct{}
	closeOnce sync.Once
}

// Dial connects with cfg.Token and waits for the server's welcome.
func Dial(ctx context.Context, cfg Config, handlers Handlers, log *logrus.Entry) (*Session, error) {
	cfg = cfg.withDefaults()
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("token", cfg.Token)
	if cfg.Codec != "" {
		q.Set("codec", cfg.Codec)
	}
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL, err)
	}

	s := &Session{
		cfg:      cfg,
		conn:     conn,
		codec:    pb.CodecByName(cfg.Codec),
		msgType:  websocket.TextMessage,
		log:      log,
		handlers: handlers,
		rtt:      &Estimator{},
		waiters:  make(map[uint64]chan pb.Ack),
		closed:   make(chan struct{}),
	}
	if s.codec.Binary() {
		s.msgType = websocket.BinaryMessage
	}
	s.control.Store(physics.Control{})

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}
	for {
		f, err := s.readFrame()
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("waiting for welcome: %w", err)
		}
		if f.T != pb.MsgWelcome {
			continue
		}
		if err := f.Decode(&s.Welcome); err != nil {
			conn.Close()
			return nil, err
		}
		break
	}
	conn.SetReadDeadline(time.Time{})

	s.ctl = NewController(s.Welcome.PlayerID, cfg.Tuning)
	s.log = log.WithField("player", s.Welcome.PlayerID)
	return s, nil
}

func (s *Session) Controller() *Controller { return s.ctl }
func (s *Session) Estimator() *Estimator   { return s.rtt }
func (s *Session) GameID() string          { return s.gameID.Load() }
func (s *Session) Playing() bool           { return s.playing.Load() }

// SetControl replaces the control sample the send loop reads.
func (s *Session) SetControl(c physics.Control) {
	s.control.Store(c)
}

// CreateGame opens a room and returns its code.
func (s *Session) CreateGame(ctx context.Context) (string, error) {
	ack, err := s.request(ctx, pb.MsgCreateGame, struct{}{})
	if err != nil {
		return "", err
	}
	s.gameID.Store(ack.GameID)
	return ack.GameID, nil
}

func (s *Session) JoinGame(ctx context.Context, code string) error {
	ack, err := s.request(ctx, pb.MsgJoinGame, pb.JoinGame{GameID: code})
	if err != nil {
		return err
	}
	s.gameID.Store(ack.GameID)
	return nil
}

func (s *Session) StartGame(ctx context.Context) error {
	_, err := s.request(ctx, pb.MsgStartGame, pb.StartGame{GameID: s.gameID.Load()})
	return err
}

func (s *Session) LeaveGame(ctx context.Context) error {
	_, err := s.request(ctx, pb.MsgLeaveGame, struct{}{})
	s.gameID.Store("")
	s.stopPlaying()
	return err
}

func (s *Session) request(ctx context.Context, t string, payload any) (pb.Ack, error) {
	id := s.nextID.Inc()
	ch := make(chan pb.Ack, 1)
	s.waitersMu.Lock()
	s.waiters[id] = ch
	s.waitersMu.Unlock()
	defer func() {
		s.waitersMu.Lock()
		delete(s.waiters, id)
		s.waitersMu.Unlock()
	}()

	if err := s.write(t, id, payload); err != nil {
		return pb.Ack{}, err
	}
	select {
	case ack := <-ch:
		if !ack.OK {
			return ack, &AckError{Code: ack.Error}
		}
		return ack, nil
	case <-ctx.Done():
		return pb.Ack{}, ctx.Err()
	case <-s.closed:
		return pb.Ack{}, ErrSessionClosed
	}
}

// Run drives the session until ctx is done or the connection drops: the
// read loop, the input send loop, the ping loop and the smoothing loop.
func (s *Session) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(s.readLoop)
	g.Go(func() error { return s.sendLoop(ctx) })
	g.Go(func() error { return s.pingLoop(ctx) })
	g.Go(func() error { return s.smoothLoop(ctx) })
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-s.closed:
		}
		s.Close()
		return nil
	})
	err := g.Wait()
	if errors.Is(err, ErrSessionClosed) || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil
	}
	return err
}

func (s *Session) readLoop() error {
	for {
		f, err := s.readFrame()
		if err != nil {
			select {
			case <-s.closed:
				return ErrSessionClosed
			default:
			}
			s.Close()
			return err
		}
		s.dispatch(f)
	}
}

func (s *Session) dispatch(f pb.Frame) {
	switch f.T {
	case pb.MsgState:
		var st pb.State
		if err := f.Decode(&st); err != nil {
			s.log.WithError(err).Debug("bad snapshot")
			return
		}
		if s.cfg.AdaptiveBlend {
			s.ctl.SetBlendDuration(s.rtt.BlendDuration())
		}
		s.ctl.ApplySnapshot(st)

	case pb.MsgPong:
		var p pb.Pong
		if f.Decode(&p) == nil {
			s.rtt.Observe(p, time.Now())
		}

	case pb.MsgAck:
		var ack pb.Ack
		if err := f.Decode(&ack); err != nil {
			s.log.WithError(err).WithField("id", f.ID).Debug("bad ack dropped")
			return
		}
		s.waitersMu.Lock()
		ch := s.waiters[f.ID]
		s.waitersMu.Unlock()
		if ch != nil {
			select {
			case ch <- ack:
			default:
			}
		}

	case pb.MsgLobbyUpdate:
		var lu pb.LobbyUpdate
		if f.Decode(&lu) == nil && s.handlers.OnLobby != nil {
			s.handlers.OnLobby(lu)
		}

	case pb.MsgGameStarted:
		s.playing.Store(true)
		if s.handlers.OnStarted != nil {
			s.handlers.OnStarted()
		}

	case pb.MsgGameEnded:
		var ge pb.GameEnded
		if err := f.Decode(&ge); err != nil {
			s.log.WithError(err).Debug("bad game_ended payload")
		}
		s.stopPlaying()
		if s.handlers.OnEnded != nil {
			s.handlers.OnEnded(ge)
		}

	case pb.MsgHit:
		var h pb.Hit
		if f.Decode(&h) == nil && s.handlers.OnHit != nil {
			s.handlers.OnHit(h)
		}

	case pb.MsgRespawn:
		var r pb.Respawn
		if f.Decode(&r) == nil && s.handlers.OnRespawn != nil {
			s.handlers.OnRespawn(r)
		}
	}
}

func (s *Session) stopPlaying() {
	if s.playing.Swap(false) {
		s.ctl.Reset()
	}
}

func (s *Session) sendLoop(ctx context.Context) error {
	period := time.Second / time.Duration(s.cfg.SendRate)
	dt := period.Seconds()
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if !s.playing.Load() {
				continue
			}
			in := s.ctl.Predict(s.control.Load().(physics.Control), dt, now)
			if err := s.write(pb.MsgInput, 0, in); err != nil {
				return err
			}
		}
	}
}

func (s *Session) pingLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if err := s.write(pb.MsgPing, 0, s.rtt.Probe(now)); err != nil {
				return err
			}
		}
	}
}

func (s *Session) smoothLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.SmoothInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.ctl.Step(now.Sub(last))
			last = now
		}
	}
}

func (s *Session) Telemetry() Telemetry {
	rtt, _ := s.rtt.RTT()
	tick, serverTime := s.ctl.LastSnapshot()
	return Telemetry{
		RTT:         rtt,
		ClockOffset: s.rtt.Offset(),
		Pending:     len(s.ctl.Pending()),
		ServerTick:  tick,
		SnapshotAge: s.rtt.SnapshotAge(serverTime, time.Now()),
	}
}

func (s *Session) readFrame() (pb.Frame, error) {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return pb.Frame{}, err
		}
		f, err := s.codec.Decode(data)
		if err != nil {
			s.log.WithError(err).Debug("malformed frame dropped")
			continue
		}
		return f, nil
	}
}

func (s *Session) write(t string, id uint64, payload any) error {
	data, err := s.codec.Encode(t, id, payload)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(s.msgType, data)
}

// Close sends a close frame and tears the connection down. It is safe to
// call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.writeMu.Lock()
		s.conn.SetWriteDeadline(time.Now().Add(time.Second))
		s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		close(s.closed)
		s.writeMu.Unlock()
		err = s.conn.Close()
	})
	return err
}
